package container

import "saurus/internal/gc"
import "saurus/internal/value"

// Local is the boxed mutable slot of §3: ref wraps, unref reads, set
// overwrites. Locals are distinct from ordinary values at the type
// level (value.Kind Local), providing reference semantics on top of
// an otherwise immutable value universe.
type Local struct {
	v value.Value
}

// Ref wraps v in a fresh local cell.
func Ref(v value.Value) *Local { return &Local{v: v} }

func (l *Local) GCChildren() []gc.Object { return valueChildren(l.v) }

// Unref reads the stored value.
func (l *Local) Unref() value.Value { return l.v }

// Set overwrites the stored value, mutating in place (the one
// user-visible mutable heap object in the data model).
func (l *Local) Set(v value.Value) { l.v = v }
