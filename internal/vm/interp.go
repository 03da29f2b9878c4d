package vm

import (
	"fmt"
	"math"

	"saurus/internal/bytecode"
	"saurus/internal/container"
	"saurus/internal/errors"
	"saurus/internal/value"
)

// NewClosure wraps a loaded top-level prototype as a zero-arg,
// non-variadic closure with no captured upvalues — the entry point
// bytecode.Load hands back.
func (s *State) NewClosure(proto *bytecode.Prototype) *Closure {
	return s.instantiateClosure(proto, nil, 0, false)
}

// Call invokes closure with the given arguments and runs the
// dispatch loop to completion, returning its single result value.
// This is the embedding API's call() entry point (§6).
func (s *State) Call(cl *Closure, args []value.Value) (result value.Value, err error) {
	base := len(s.Stack)
	depth := len(s.Frames)
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*errors.SaurusError); ok {
				for i := len(s.Frames) - 1; i >= depth && se.Location.File == ""; i-- {
					f := s.Frames[i]
					if p := f.closure.Proto; p.Name != "" && f.pc < len(p.LineInfo) {
						se.WithLocation(p.Name, int(p.LineInfo[f.pc]))
					}
				}
				if len(s.Stack) > base {
					s.Stack = s.Stack[:base]
				}
				if len(s.Frames) > depth {
					s.Frames = s.Frames[:depth]
				}
				err = se
				return
			}
			panic(r)
		}
	}()

	s.push(value.Obj(value.Function, cl))
	for _, a := range args {
		s.push(a)
	}
	if err := s.dispatchCall(cl, base, len(args)); err != nil {
		s.Stack = s.Stack[:base]
		return value.Value{}, err
	}
	result = s.run()
	return result, nil
}

// run drives the dispatch loop until the frame stack started by the
// outermost Call unwinds, returning the final RETURN value.
func (s *State) run() value.Value {
	for {
		s.gcPulse()

		f := s.curFrame()
		proto := f.closure.Proto
		if f.pc >= len(proto.Instructions) {
			panic(errors.New(errors.ResourceError, "program counter ran past end of instructions"))
		}
		inst := proto.Instructions[f.pc]

		if s.trace {
			fmt.Fprintf(s.stderr, "pc=%d %s a=%d b=%d stack=%d frames=%d\n",
				f.pc, inst.Op, inst.A, inst.B, len(s.Stack), len(s.Frames))
		}

		switch inst.Op {
		case bytecode.OpPush:
			s.push(f.closure.Constants[inst.A])
			f.pc++

		case bytecode.OpPop:
			s.pop()
			f.pc++

		case bytecode.OpCopy:
			s.push(s.Stack[f.base+int(inst.A)])
			f.pc++

		case bytecode.OpLoad:
			s.push(s.Stack[f.base+1+int(inst.A)])
			f.pc++

		case bytecode.OpAdd:
			s.binNumeric(func(a, b float64) float64 { return a + b })
			f.pc++
		case bytecode.OpSub:
			s.binNumeric(func(a, b float64) float64 { return a - b })
			f.pc++
		case bytecode.OpMul:
			s.binNumeric(func(a, b float64) float64 { return a * b })
			f.pc++
		case bytecode.OpDiv:
			s.binNumeric(func(a, b float64) float64 { return a / b })
			f.pc++
		case bytecode.OpMod:
			// Frozen source behavior: truncate both operands to int64
			// toward zero, then apply Go's remainder operator — not a
			// floating-point fmod.
			s.binNumeric(func(a, b float64) float64 {
				return float64(int64(a) % int64(b))
			})
			f.pc++
		case bytecode.OpPow:
			s.binNumeric(math.Pow)
			f.pc++
		case bytecode.OpUnm:
			a := s.pop()
			s.checkKind(a, value.Number, "unary minus")
			s.push(value.Num(-a.AsNumber()))
			f.pc++

		case bytecode.OpEq:
			b := s.pop()
			a := s.pop()
			s.push(value.Bool(value.Equal(a, b)))
			f.pc++
		case bytecode.OpLess:
			b := s.pop()
			a := s.pop()
			s.checkKind(a, value.Number, "comparison")
			s.checkKind(b, value.Number, "comparison")
			s.push(value.Bool(a.AsNumber() < b.AsNumber()))
			f.pc++
		case bytecode.OpLequal:
			b := s.pop()
			a := s.pop()
			s.checkKind(a, value.Number, "comparison")
			s.checkKind(b, value.Number, "comparison")
			s.push(value.Bool(a.AsNumber() <= b.AsNumber()))
			f.pc++

		case bytecode.OpNot:
			a := s.pop()
			s.push(a.Not())
			f.pc++

		case bytecode.OpAnd:
			b := s.pop()
			a := s.pop()
			if !a.Truthy() {
				s.push(a)
			} else {
				s.push(b)
			}
			f.pc++
		case bytecode.OpOr:
			b := s.pop()
			a := s.pop()
			if a.Truthy() {
				s.push(a)
			} else {
				s.push(b)
			}
			f.pc++

		case bytecode.OpTest:
			top := s.pop()
			if top.Truthy() {
				f.pc = int(inst.B)
			} else {
				f.pc++
			}

		case bytecode.OpJmp:
			f.pc = int(inst.B)

		case bytecode.OpReturn:
			result := s.pop()
			done := s.popFrame(result)
			if done {
				return result
			}

		case bytecode.OpCall:
			if done, result := s.doCall(int(inst.A), false); done {
				return result
			}
		case bytecode.OpTcall:
			if done, result := s.doCall(int(inst.A), true); done {
				return result
			}

		case bytecode.OpLambda:
			s.doLambda(int(inst.A), inst.B)
			f.pc++

		case bytecode.OpGetGlobal:
			s.doGetGlobal(f.closure.Constants[inst.A])
			f.pc++
		case bytecode.OpSetGlobal:
			s.doSetGlobal(f.closure.Constants[inst.A])
			f.pc++

		default:
			panic(errors.New(errors.LoaderError, "unknown opcode %d", inst.Op))
		}
	}
}

func (s *State) binNumeric(op func(a, b float64) float64) {
	b := s.pop()
	a := s.pop()
	s.checkKind(a, value.Number, "arithmetic")
	s.checkKind(b, value.Number, "arithmetic")
	s.push(value.Num(op(a.AsNumber(), b.AsNumber())))
}

func (s *State) checkKind(v value.Value, k value.Kind, ctx string) {
	if v.Kind() != k {
		panic(errors.New(errors.TypeError, "%s: expected %s, got %s", ctx, k, v.Kind()))
	}
}

// popFrame pops the current frame, discarding its stack region down
// to frame.base and pushing result in its place. Returns true when
// the popped frame was the outermost call started by Call.
func (s *State) popFrame(result value.Value) bool {
	f := s.Frames[len(s.Frames)-1]
	s.Stack = s.Stack[:f.base]
	s.Frames = s.Frames[:len(s.Frames)-1]
	if len(s.Frames) == 0 {
		return true
	}
	s.push(result)
	s.curFrame().pc = f.retPC
	return false
}

// doCall implements CALL/TCALL a: invoke the value at
// stack_top-a-1 with a arguments already pushed above it. It returns
// (true, result) when the call completed immediately (a tail call
// into a native/vector/map callee with no frames left below it) and
// the outer run loop should return result as the program's result.
func (s *State) doCall(nargs int, tail bool) (bool, value.Value) {
	base := len(s.Stack) - nargs - 1
	if base < 0 {
		panic(errors.New(errors.ResourceError, "call with insufficient operands"))
	}
	callee := s.Stack[base]

	// A tail call discards the current frame before dispatching the
	// new one, so the callee reuses its caller's frame slot instead
	// of growing the frame stack (proper tail-call elimination). The
	// eliminated frame's own retPC carries forward to whatever is
	// eventually returned, since this frame is skipped entirely.
	var tailRetPC int
	var framesBelow int
	if tail {
		eliminated := s.Frames[len(s.Frames)-1]
		tailRetPC = eliminated.retPC
		region := append([]value.Value(nil), s.Stack[base:base+nargs+1]...)
		s.Stack = s.Stack[:eliminated.base]
		s.Stack = append(s.Stack, region...)
		s.Frames = s.Frames[:len(s.Frames)-1]
		base = eliminated.base
		framesBelow = len(s.Frames)
	}

	switch callee.Kind() {
	case value.Function:
		cl := callee.Ptr().(*Closure)
		var err error
		if tail {
			err = s.dispatchCallWithRetPC(cl, base, nargs, tailRetPC)
		} else {
			err = s.dispatchCall(cl, base, nargs)
		}
		if err != nil {
			panic(err)
		}
		return false, value.Value{}

	case value.NativeFunction:
		nf := callee.Ptr().(*NativeFunction)
		checkNativeArity(nf, nargs)
		nret := nf.Fn(s, nargs)
		result := value.Nil_()
		if nret != 0 {
			result = s.pop()
		}
		s.Stack = s.Stack[:base]
		return s.completeCall(result, tail, framesBelow, tailRetPC)

	case value.Vector:
		if nargs != 1 {
			panic(errors.New(errors.ArityError, "vector call expects exactly 1 argument, got %d", nargs))
		}
		idx := s.Stack[base+1]
		s.checkKind(idx, value.Number, "vector index")
		vec := callee.Ptr().(*container.Vector)
		v, err := vec.Index(int(idx.AsNumber()))
		if err != nil {
			panic(errors.New(errors.LookupError, "%s", err.Error()))
		}
		s.Stack = s.Stack[:base]
		return s.completeCall(v, tail, framesBelow, tailRetPC)

	case value.Map:
		if nargs != 1 {
			panic(errors.New(errors.ArityError, "map call expects exactly 1 argument, got %d", nargs))
		}
		key := s.Stack[base+1]
		m := callee.Ptr().(*container.Map)
		v := m.Find(key)
		if v.IsInvalid() {
			panic(errors.New(errors.LookupError, "key not found in map"))
		}
		s.Stack = s.Stack[:base]
		return s.completeCall(v, tail, framesBelow, tailRetPC)

	default:
		panic(errors.New(errors.TypeError, "attempt to call a %s value", callee.Kind()))
	}
}

// completeCall lands a non-closure callee's result. A non-tail call
// just pushes it for the caller to consume. A tail call means the
// frame that issued TCALL has already been discarded, so the result
// is effectively this (now nonexistent) frame's return value: with
// no frame left below, it is the program's final result; otherwise
// it is pushed and execution resumes in the frame below at the
// eliminated frame's own retPC.
func (s *State) completeCall(result value.Value, tail bool, framesBelow int, tailRetPC int) (bool, value.Value) {
	if !tail {
		s.push(result)
		return false, value.Value{}
	}
	if framesBelow == 0 {
		return true, result
	}
	s.push(result)
	s.curFrame().pc = tailRetPC
	return false, value.Value{}
}

// dispatchCall pushes a new frame for cl starting at calleeBase,
// enforcing arity and folding variadic trailing args into a vector.
// The new frame's retPC resumes the current top frame just past the
// CALL instruction.
func (s *State) dispatchCall(cl *Closure, calleeBase, nargs int) error {
	retPC := 0
	if len(s.Frames) > 0 {
		retPC = s.curFrame().pc + 1
	}
	return s.dispatchCallWithRetPC(cl, calleeBase, nargs, retPC)
}

// dispatchCallWithRetPC is dispatchCall with an explicit retPC,
// overridden by tail calls to the eliminated frame's own retPC.
func (s *State) dispatchCallWithRetPC(cl *Closure, calleeBase, nargs, retPC int) error {
	if len(s.Frames) >= s.frameLimit {
		return errors.New(errors.ResourceError, "call stack overflow")
	}

	if cl.Variadic {
		if nargs < cl.FixedArity {
			return errors.New(errors.ArityError, "expected at least %d arguments, got %d", cl.FixedArity, nargs)
		}
		extraStart := calleeBase + 1 + cl.FixedArity
		extras := append([]value.Value(nil), s.Stack[extraStart:calleeBase+1+nargs]...)
		s.Stack = s.Stack[:extraStart]
		vec := container.Empty()
		for _, e := range extras {
			vec = vec.Push(e)
		}
		s.push(value.Obj(value.Vector, vec))
	} else if nargs != cl.FixedArity {
		return errors.New(errors.ArityError, "expected %d arguments, got %d", cl.FixedArity, nargs)
	}

	for _, uv := range cl.Upvalues {
		s.push(uv)
	}

	s.Frames = append(s.Frames, Frame{closure: cl, base: calleeBase, retPC: retPC, pc: 0})
	return nil
}

func checkNativeArity(nf *NativeFunction, nargs int) {
	if nf.Arity >= 0 && nargs != nf.Arity {
		panic(errors.New(errors.ArityError, "%s: expected %d arguments, got %d", nf.Name, nf.Arity, nargs))
	}
}

// doLambda implements LAMBDA a b: instantiate a closure from
// sub-prototype a. b encodes the calling convention: b >= 0 is a
// fixed arity of b; b < 0 is variadic with ^b fixed formals before
// the trailing vector.
func (s *State) doLambda(subIdx int, b int16) {
	f := s.curFrame()
	proto := f.closure.Proto.SubProtos[subIdx]

	fixedArity := int(b)
	variadic := false
	if b < 0 {
		fixedArity = int(^b)
		variadic = true
	}

	upvalues := make([]value.Value, len(proto.Upvalues))
	for i, uv := range proto.Upvalues {
		upvalues[i] = s.resolveUpvalue(uv)
	}

	cl := s.instantiateClosure(proto, upvalues, fixedArity, variadic)
	s.push(value.Obj(value.Function, cl))
}

// resolveUpvalue reads the captured slot Level frames up from the
// currently executing frame, at offset Index from that frame's base.
func (s *State) resolveUpvalue(uv bytecode.UpvalueDesc) value.Value {
	frameIdx := len(s.Frames) - 1 - int(uv.Level)
	if frameIdx < 0 || frameIdx >= len(s.Frames) {
		panic(errors.New(errors.LookupError, "upvalue references a frame outside the live call stack"))
	}
	target := s.Frames[frameIdx]
	slot := target.base + int(uv.Index)
	if slot < 0 || slot >= len(s.Stack) {
		panic(errors.New(errors.LookupError, "upvalue slot out of range"))
	}
	return s.Stack[slot]
}

func (s *State) doGetGlobal(nameConst value.Value) {
	name := s.constString(nameConst)
	v, ok := s.Globals[name]
	if !ok {
		panic(errors.New(errors.LookupError, "undefined global variable: %s", name))
	}
	s.push(v)
}

func (s *State) doSetGlobal(nameConst value.Value) {
	name := s.constString(nameConst)
	if _, exists := s.Globals[name]; exists {
		panic(errors.New(errors.UserError, "Redefinition of global variable: %s", name))
	}
	s.Globals[name] = s.pop()
}

func (s *State) constString(v value.Value) string {
	s.checkKind(v, value.String, "global name")
	return value.Stringify(v)
}
