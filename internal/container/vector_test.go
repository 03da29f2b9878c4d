package container

import (
	"testing"

	"saurus/internal/value"
)

func TestVectorPushIndexRoundTrip(t *testing.T) {
	v := Empty()
	for i := 0; i < 33; i++ {
		v = v.Push(value.Num(float64(i)))
	}

	if v.Length() != 33 {
		t.Fatalf("length: got %d want 33", v.Length())
	}
	if v.Shift() != 5 {
		t.Fatalf("shift: got %d want 5 (element 32 lives in the tail)", v.Shift())
	}

	got, err := v.Index(32)
	if err != nil || got.AsNumber() != 32 {
		t.Fatalf("index(v,32): got %v err %v", got, err)
	}

	popped, err := v.Pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	got, err = popped.Index(31)
	if err != nil || got.AsNumber() != 31 {
		t.Fatalf("index(pop(v),31): got %v err %v", got, err)
	}
}

func TestVectorPushPreservesExistingElements(t *testing.T) {
	v := Empty()
	for i := 0; i < 40; i++ {
		v = v.Push(value.Num(float64(i)))
	}
	next := v.Push(value.Num(999))
	for i := 0; i < v.Length(); i++ {
		got, err := next.Index(i)
		if err != nil {
			t.Fatalf("index(%d): %v", i, err)
		}
		want, _ := v.Index(i)
		if got.AsNumber() != want.AsNumber() {
			t.Errorf("index(push(v,x), %d): got %v want %v", i, got, want)
		}
	}
	last, err := next.Index(v.Length())
	if err != nil || last.AsNumber() != 999 {
		t.Fatalf("index(push(v,x), length(v)): got %v err %v", last, err)
	}
}

func TestVectorSet(t *testing.T) {
	v := Empty()
	for i := 0; i < 100; i++ {
		v = v.Push(value.Num(float64(i)))
	}
	updated, err := v.Set(50, value.Num(-1))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := updated.Index(50)
	if got.AsNumber() != -1 {
		t.Errorf("set(v,50,-1): got %v", got)
	}
	orig, _ := v.Index(50)
	if orig.AsNumber() != 50 {
		t.Errorf("original vector mutated: got %v", orig)
	}
}

func TestVectorIndexOutOfRange(t *testing.T) {
	v := Empty()
	v = v.Push(value.Num(1))
	if _, err := v.Index(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestVectorPopEmpty(t *testing.T) {
	if _, err := Empty().Pop(); err == nil {
		t.Fatal("expected error popping empty vector")
	}
}

func TestVectorLargeRoundTrip(t *testing.T) {
	const n = 2000
	v := Empty()
	for i := 0; i < n; i++ {
		v = v.Push(value.Num(float64(i)))
	}
	if v.Length() != n {
		t.Fatalf("length: got %d want %d", v.Length(), n)
	}
	for i := 0; i < n; i++ {
		got, err := v.Index(i)
		if err != nil || got.AsNumber() != float64(i) {
			t.Fatalf("index(%d): got %v err %v", i, got, err)
		}
	}
	for i := n - 1; i >= 0; i-- {
		var err error
		v, err = v.Pop()
		if err != nil {
			t.Fatalf("pop at length %d: %v", i+1, err)
		}
		if v.Length() != i {
			t.Fatalf("length after pop: got %d want %d", v.Length(), i)
		}
	}
}
