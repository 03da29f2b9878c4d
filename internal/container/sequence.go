package container

import (
	"fmt"

	"saurus/internal/gc"
	"saurus/internal/intern"
	"saurus/internal/value"
)

// Sequence is the lazy first/rest abstraction of §4.4. Two concrete
// realizations share the protocol: an eager cons cell, and an
// iterator over a container (vector or string). rest never mutates;
// stepping an iterator allocates a fresh node.
type Sequence interface {
	gc.Object
	First() (value.Value, error)
	Rest() value.Value // value.Nil_() when exhausted, else a Sequence-kind Value
}

// --- cons cell ---

type cellSeq struct {
	first value.Value
	rest  value.Value // Nil or a Sequence-kind value
}

// Cons allocates one cell with first=x, rest=s.
func Cons(x value.Value, s value.Value) Sequence {
	return &cellSeq{first: x, rest: s}
}

func (c *cellSeq) GCChildren() []gc.Object {
	return append(valueChildren(c.first), valueChildren(c.rest)...)
}

func (c *cellSeq) First() (value.Value, error) { return c.first, nil }
func (c *cellSeq) Rest() value.Value            { return c.rest }

// FromSlice builds a sequence from xs, one cell per element, linked
// right to left, terminal rest NIL.
func FromSlice(xs []value.Value) value.Value {
	rest := value.Nil_()
	for i := len(xs) - 1; i >= 0; i-- {
		rest = value.Obj(value.Sequence, Cons(xs[i], rest))
	}
	return rest
}

// --- vector iterator ---

type vectorIterSeq struct {
	vec *Vector
	idx int
}

// VectorIterator builds an iterator sequence over vec, starting at
// idx. An empty vector yields value.Nil_() (no sequence allocated).
func VectorIterator(vec *Vector, idx int) value.Value {
	if idx >= vec.Length() {
		return value.Nil_()
	}
	return value.Obj(value.Sequence, &vectorIterSeq{vec: vec, idx: idx})
}

func (v *vectorIterSeq) GCChildren() []gc.Object {
	return []gc.Object{v.vec}
}

func (v *vectorIterSeq) First() (value.Value, error) {
	return v.vec.Index(v.idx)
}

func (v *vectorIterSeq) Rest() value.Value {
	return VectorIterator(v.vec, v.idx+1)
}

// --- string iterator ---

type stringIterSeq struct {
	table *intern.Table
	str   *intern.String
	idx   int
}

// StringIterator builds a byte-by-byte iterator sequence over str,
// interning one-byte strings per step. Strings are byte buffers (no
// Unicode awareness), per the data model's Non-goals.
func StringIterator(table *intern.Table, str *intern.String, idx int) value.Value {
	if idx >= str.Len() {
		return value.Nil_()
	}
	return value.Obj(value.Sequence, &stringIterSeq{table: table, str: str, idx: idx})
}

func (s *stringIterSeq) GCChildren() []gc.Object {
	return []gc.Object{s.str}
}

func (s *stringIterSeq) First() (value.Value, error) {
	if s.idx >= s.str.Len() {
		return value.Value{}, fmt.Errorf("first of exhausted string iterator")
	}
	one := s.table.Intern(s.str.Bytes[s.idx : s.idx+1])
	return value.Obj(value.String, one), nil
}

func (s *stringIterSeq) Rest() value.Value {
	return StringIterator(s.table, s.str, s.idx+1)
}

// First reads the first element of a Sequence-kind value; first of
// NIL is an error, per the data model invariant.
func First(v value.Value) (value.Value, error) {
	if v.IsNil() {
		return value.Value{}, fmt.Errorf("first of nil sequence")
	}
	seq, ok := v.Ptr().(Sequence)
	if !ok {
		return value.Value{}, fmt.Errorf("first: not a sequence")
	}
	return seq.First()
}

// Rest reads the rest of a Sequence-kind value; rest of nil or of a
// one-element sequence yields NIL.
func Rest(v value.Value) (value.Value, error) {
	if v.IsNil() {
		return value.Nil_(), nil
	}
	seq, ok := v.Ptr().(Sequence)
	if !ok {
		return value.Value{}, fmt.Errorf("rest: not a sequence")
	}
	return seq.Rest(), nil
}
