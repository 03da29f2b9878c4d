package vm

import (
	"io"

	"saurus/internal/bytecode"
	"saurus/internal/container"
	"saurus/internal/errors"
	"saurus/internal/gc"
	"saurus/internal/value"
)

// Push/Pop/Copy give an embedder direct operand-stack access, the
// same primitives the dispatch loop itself uses for PUSH/POP/COPY.
func (s *State) Push(v value.Value) { s.push(v) }
func (s *State) Pop() value.Value   { return s.pop() }

// Copy pushes a copy of the stack slot at the given absolute index.
func (s *State) Copy(index int) {
	if index < 0 || index >= len(s.Stack) {
		panic(errors.New(errors.ResourceError, "stack index out of range: %d", index))
	}
	s.push(s.Stack[index])
}

// Top returns the current stack height, usable as a base for Arg.
func (s *State) Top() int { return len(s.Stack) }

// Arg returns the n-th argument (0-based) of the call currently
// executing base arguments starting at stackBase — natives receive
// stackBase implicitly as Top()-n when called, so Arg indexes from
// the bottom of that window.
func (s *State) Arg(base, n int) value.Value {
	i := base + n
	if i < 0 || i >= len(s.Stack) {
		panic(errors.New(errors.ResourceError, "argument index out of range: %d", n))
	}
	return s.Stack[i]
}

// --- type predicates and checked accessors ---

func (s *State) IsNil(v value.Value) bool     { return v.IsNil() }
func (s *State) IsBoolean(v value.Value) bool { return v.Kind() == value.Boolean }
func (s *State) IsNumber(v value.Value) bool  { return v.Kind() == value.Number }
func (s *State) IsString(v value.Value) bool  { return v.Kind() == value.String }
func (s *State) IsVector(v value.Value) bool  { return v.Kind() == value.Vector }
func (s *State) IsMap(v value.Value) bool     { return v.Kind() == value.Map }
func (s *State) IsCallable(v value.Value) bool {
	switch v.Kind() {
	case value.Function, value.NativeFunction, value.Vector, value.Map:
		return true
	default:
		return false
	}
}

// CheckKind raises a TypeError if v is not of kind k; used by native
// functions to validate arguments before use.
func (s *State) CheckKind(v value.Value, k value.Kind, what string) {
	s.checkKind(v, k, what)
}

// CheckNumber/CheckString are the two most common checked accessors
// used throughout the built-in library.
func (s *State) CheckNumber(v value.Value, what string) float64 {
	s.checkKind(v, value.Number, what)
	return v.AsNumber()
}

func (s *State) CheckString(v value.Value, what string) string {
	s.checkKind(v, value.String, what)
	return value.Stringify(v)
}

// --- constructors ---

func (s *State) NewNil() value.Value     { return value.Nil_() }
func (s *State) NewBool(b bool) value.Value { return value.Bool(b) }
func (s *State) NewNumber(n float64) value.Value { return value.Num(n) }

// NewString interns the given text through this State's string
// table and returns the resulting string value.
func (s *State) NewString(text string) value.Value {
	return value.Obj(value.String, s.Strings.InternString(text))
}

// NewNative wraps fn as a callable value with the given name and
// declared arity (-1 for variadic).
func (s *State) NewNative(name string, arity int, fn NativeFunc) value.Value {
	nf := &NativeFunction{Name: name, Arity: arity, Fn: fn}
	return value.Obj(value.NativeFunction, nf)
}

// NewNativeData wraps an arbitrary Go value (e.g. a *sql.DB or
// *websocket.Conn) as an opaque NATIVE_DATA handle.
func (s *State) NewNativeData(data interface{}) value.Value {
	return value.Obj(value.NativeData, &nativeData{v: data})
}

// nativeData is the heap wrapper behind NATIVE_DATA values; it is
// never traced by the collector (the Go object it wraps is owned by
// Go's own GC, not this interpreter's).
type nativeData struct{ v interface{} }

func (n *nativeData) GCChildren() []gc.Object { return nil }

// NativeDataOf recovers the wrapped Go value behind a NATIVE_DATA
// value already checked to be that kind. Panics a ResourceError if
// the handle was already closed (see ClearNativeData).
func (s *State) NativeDataOf(v value.Value) interface{} {
	nd := v.Ptr().(*nativeData)
	if nd.v == nil {
		panic(errors.New(errors.ResourceError, "use of closed native handle"))
	}
	return nd.v
}

// ClearNativeData empties a NATIVE_DATA handle's payload so any
// further use after close raises ResourceError, matching the
// donor library's close-then-reuse guards.
func (s *State) ClearNativeData(v value.Value) {
	v.Ptr().(*nativeData).v = nil
}

// NewPointer wraps an arbitrary Go value as a NATIVE_POINTER handle
// (file handles, and anything else addressed opaquely by identity
// rather than by the richer NATIVE_DATA protocol).
func (s *State) NewPointer(p interface{}) value.Value {
	return value.Obj(value.NativePointer, &nativePointer{v: p})
}

type nativePointer struct{ v interface{} }

func (n *nativePointer) GCChildren() []gc.Object { return nil }

func (s *State) PointerOf(v value.Value) interface{} {
	return v.Ptr().(*nativePointer).v
}

// --- collection builders ---

func (s *State) NewVector() value.Value {
	return value.Obj(value.Vector, container.Empty())
}

func (s *State) VectorFromSlice(xs []value.Value) value.Value {
	vec := container.Empty()
	for _, x := range xs {
		vec = vec.Push(x)
	}
	return value.Obj(value.Vector, vec)
}

func (s *State) NewMap() value.Value {
	return value.Obj(value.Map, container.EmptyMap())
}

func (s *State) NewLocal(v value.Value) value.Value {
	return value.Obj(value.Local, container.Ref(v))
}

// UnrefLocal/SetLocal are the ref_local/unref_local/set_local
// embedding API operations for a value already checked to be Kind
// Local.
func (s *State) UnrefLocal(v value.Value) value.Value {
	return v.Ptr().(*container.Local).Unref()
}

func (s *State) SetLocal(v value.Value, x value.Value) {
	v.Ptr().(*container.Local).Set(x)
}

// VectorOf/MapOf/SequenceOf recover the concrete container behind a
// value already checked to be the matching Kind, for the stdlib
// collection families.
func (s *State) VectorOf(v value.Value) *container.Vector { return v.Ptr().(*container.Vector) }
func (s *State) MapOf(v value.Value) *container.Map       { return v.Ptr().(*container.Map) }
func (s *State) SequenceOf(v value.Value) container.Sequence {
	return v.Ptr().(container.Sequence)
}

// NewVectorFrom/NewMapFrom wrap an already-built container as a
// value, used by the vector*/map* native families after mutating
// through the persistent-collection API.
func (s *State) NewVectorFrom(vec *container.Vector) value.Value {
	return value.Obj(value.Vector, vec)
}

func (s *State) NewMapFrom(m *container.Map) value.Value {
	return value.Obj(value.Map, m)
}

func (s *State) NewSequence(xs []value.Value) value.Value {
	return container.FromSlice(xs)
}

// Cons/SeqFirst/SeqRest are the sequence family's cons/first/rest,
// exposed so stdlib need not import internal/container directly.
func (s *State) Cons(x, rest value.Value) value.Value {
	return value.Obj(value.Sequence, container.Cons(x, rest))
}

func (s *State) SeqFirst(v value.Value) (value.Value, error) { return container.First(v) }
func (s *State) SeqRest(v value.Value) (value.Value, error)  { return container.Rest(v) }

// --- globals ---

// SetGlobal is the embedding API's setglobal(name, replace_flag): with
// replace=false it raises a LookupError if name is already bound,
// mirroring the bytecode-level SETGLOBAL instruction's "no
// redefinition" rule; with replace=true it overwrites unconditionally,
// which is how stdlib registration pre-populates the global table.
func (s *State) SetGlobal(name string, v value.Value, replace bool) {
	if !replace {
		if _, exists := s.Globals[name]; exists {
			panic(errors.New(errors.LookupError, "global already defined: %s", name))
		}
	}
	s.Globals[name] = v
}

func (s *State) GetGlobal(name string) (value.Value, bool) {
	v, ok := s.Globals[name]
	return v, ok
}

// --- stringify ---

func (s *State) Stringify(v value.Value) string { return value.Stringify(v) }

// --- loader ---

// Load reads a prototype from r and wraps it as a callable top-level
// closure, ready for Call.
func (s *State) Load(r bytecode.PullReader) (*Closure, error) {
	proto, err := bytecode.Load(r)
	if err != nil {
		return nil, errors.New(errors.LoaderError, "%s", err.Error())
	}
	return s.NewClosure(proto), nil
}

// CheckArgs validates the n arguments starting at argBase against
// kinds, the embedding API's generic native-argument-check helper
// (§4.7): kinds[i] == value.Invalid (the zero Kind) accepts any value
// at that position; passing fewer kinds than n checks only the given
// prefix and accepts any trailing extras, the "at least N" variadic
// case. Returns an ArityError if n is smaller than len(kinds), or a
// TypeError at the first kind mismatch.
func (s *State) CheckArgs(argBase, n int, kinds ...value.Kind) error {
	if n < len(kinds) {
		return errors.New(errors.ArityError, "expected at least %d arguments, got %d", len(kinds), n)
	}
	for i, k := range kinds {
		if k == value.Invalid {
			continue
		}
		if got := s.Arg(argBase, i).Kind(); got != k {
			return errors.New(errors.TypeError, "argument %d: expected %s, got %s", i, k, got)
		}
	}
	return nil
}

// --- error protocol ---

// SetError installs a checkpoint at the current stack height and
// runs fn; any *errors.SaurusError panic raised within fn (directly,
// or by any Saurus code fn calls back into) is recovered here, the
// operand stack is truncated back to the checkpoint, and the error
// is returned instead of propagating further. This is the embedding
// API's setjmp/longjmp error protocol, expressed as panic/recover.
func (s *State) SetError(fn func() error) (err error) {
	saved := s.checkpoint
	top := len(s.Stack)
	s.checkpoint = errCheckpoint{stackTop: top, active: true}
	defer func() {
		s.checkpoint = saved
		if r := recover(); r != nil {
			se, ok := r.(*errors.SaurusError)
			if !ok {
				panic(r)
			}
			if len(s.Stack) > top {
				s.Stack = s.Stack[:top]
			}
			err = se
		}
	}()
	return fn()
}

// Error raises a Saurus error from native code: the Go-native
// rendering of the embedding API's error()/seterror long jump.
func (s *State) Error(kind errors.Kind, format string, args ...interface{}) {
	panic(errors.New(kind, format, args...))
}

// --- streams ---

func (s *State) Stream(name string) io.ReadWriter {
	switch name {
	case "stdin":
		if rw, ok := s.stdin.(io.ReadWriter); ok {
			return rw
		}
	case "stdout":
		if rw, ok := s.stdout.(io.ReadWriter); ok {
			return rw
		}
	case "stderr":
		if rw, ok := s.stderr.(io.ReadWriter); ok {
			return rw
		}
	}
	return nil
}
