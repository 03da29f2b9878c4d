package vm

import (
	"saurus/internal/bytecode"
	"saurus/internal/gc"
	"saurus/internal/value"
)

// Closure is a prototype paired with its resolved constant pool and
// captured upvalues, plus the declared calling convention. FixedArity
// counts the declared formal parameters; when Variadic is set, a CALL
// supplying more than FixedArity arguments folds the trailing ones
// into a vector pushed as one extra local after the fixed formals.
type Closure struct {
	Proto      *bytecode.Prototype
	Constants  []value.Value
	Upvalues   []value.Value
	FixedArity int
	Variadic   bool
}

// GCChildren exposes the constant pool and captured upvalues to the
// collector; the prototype itself is not heap-managed (it is fixed,
// read-only bytecode owned by the loader).
func (c *Closure) GCChildren() []gc.Object {
	var out []gc.Object
	for _, v := range c.Constants {
		if o, ok := v.Ptr().(gc.Object); ok {
			out = append(out, o)
		}
	}
	for _, v := range c.Upvalues {
		if o, ok := v.Ptr().(gc.Object); ok {
			out = append(out, o)
		}
	}
	return out
}

// NativeFunc is the signature of a built-in exposed to Saurus code.
// n is the argument count available via s.Arg; the function pushes at
// most one result value and returns its count (0 or 1). Errors are
// raised by panic(*errors.SaurusError), recovered by the active
// checkpoint (see SetError in api.go).
type NativeFunc func(s *State, n int) int

// NativeFunction is a built-in wrapped as a first-class Saurus value
// (value.NativeFunction), carrying its own name and declared arity for
// the arity-checking helper used by CALL/TCALL dispatch.
type NativeFunction struct {
	Name  string
	Arity int // -1 means variadic: any argument count is accepted.
	Fn    NativeFunc
}

// GCChildren: native functions hold no Saurus-heap references.
func (n *NativeFunction) GCChildren() []gc.Object { return nil }

// instantiateClosure builds a Closure from a nested prototype and the
// upvalue values it captures, resolving the prototype's constant pool
// into VM values (interning strings through the owning state).
func (s *State) instantiateClosure(proto *bytecode.Prototype, upvalues []value.Value, fixedArity int, variadic bool) *Closure {
	consts := make([]value.Value, len(proto.Constants))
	for i, c := range proto.Constants {
		consts[i] = s.resolveConstant(c)
	}
	return &Closure{
		Proto:      proto,
		Constants:  consts,
		Upvalues:   upvalues,
		FixedArity: fixedArity,
		Variadic:   variadic,
	}
}

func (s *State) resolveConstant(c bytecode.Constant) value.Value {
	switch c.Kind {
	case bytecode.ConstNil:
		return value.Nil_()
	case bytecode.ConstTrue:
		return value.Bool(true)
	case bytecode.ConstFalse:
		return value.Bool(false)
	case bytecode.ConstNumber:
		return value.Num(c.Number)
	case bytecode.ConstString:
		// The on-disk size is the C-string length including the
		// terminating NUL (§4.1/§9); intern only the content bytes.
		b := c.Bytes
		if n := len(b); n > 0 && b[n-1] == 0 {
			b = b[:n-1]
		}
		return value.Obj(value.String, s.Strings.Intern(b))
	default:
		return value.Nil_()
	}
}
