package container

import (
	"testing"

	"saurus/internal/intern"
	"saurus/internal/value"
)

func TestConsFirstRest(t *testing.T) {
	s := value.Obj(value.Sequence, Cons(value.Num(1), value.Nil_()))

	first, err := First(s)
	if err != nil || first.AsNumber() != 1 {
		t.Fatalf("first: got %v err %v", first, err)
	}
	rest, err := Rest(s)
	if err != nil || !rest.IsNil() {
		t.Fatalf("rest of one-element sequence should be NIL, got %v", rest)
	}
}

func TestFirstOfNilIsError(t *testing.T) {
	if _, err := First(value.Nil_()); err == nil {
		t.Fatal("expected error taking first of nil")
	}
}

func TestFromSliceOrderAndLength(t *testing.T) {
	xs := []value.Value{value.Num(1), value.Num(2), value.Num(3)}
	s := FromSlice(xs)

	for _, want := range xs {
		first, err := First(s)
		if err != nil {
			t.Fatalf("first: %v", err)
		}
		if first.AsNumber() != want.AsNumber() {
			t.Fatalf("first: got %v want %v", first, want)
		}
		s, err = Rest(s)
		if err != nil {
			t.Fatalf("rest: %v", err)
		}
	}
	if !s.IsNil() {
		t.Fatalf("expected exhausted sequence to be nil, got %v", s)
	}
}

func TestVectorIteratorSequence(t *testing.T) {
	v := Empty()
	for i := 0; i < 5; i++ {
		v = v.Push(value.Num(float64(i)))
	}
	s := VectorIterator(v, 0)
	for i := 0; i < 5; i++ {
		first, err := First(s)
		if err != nil || first.AsNumber() != float64(i) {
			t.Fatalf("element %d: got %v err %v", i, first, err)
		}
		s, err = Rest(s)
		if err != nil {
			t.Fatalf("rest: %v", err)
		}
	}
	if !s.IsNil() {
		t.Fatal("expected exhausted vector iterator to be nil")
	}
}

func TestVectorIteratorRestNeverMutates(t *testing.T) {
	v := Empty().Push(value.Num(10)).Push(value.Num(20))
	s := VectorIterator(v, 0)
	r1, _ := Rest(s)
	r2, _ := Rest(s)
	f1, _ := First(r1)
	f2, _ := First(r2)
	if f1.AsNumber() != f2.AsNumber() {
		t.Fatalf("rest should be pure: got %v and %v", f1, f2)
	}
}

func TestStringIteratorByteByByte(t *testing.T) {
	table := intern.NewTable()
	str := table.InternString("abc")
	s := StringIterator(table, str, 0)

	want := []string{"a", "b", "c"}
	for _, w := range want {
		first, err := First(s)
		if err != nil {
			t.Fatalf("first: %v", err)
		}
		if value.Stringify(first) != w {
			t.Fatalf("got %q want %q", value.Stringify(first), w)
		}
		s, err = Rest(s)
		if err != nil {
			t.Fatalf("rest: %v", err)
		}
	}
	if !s.IsNil() {
		t.Fatal("expected exhausted string iterator to be nil")
	}
}
