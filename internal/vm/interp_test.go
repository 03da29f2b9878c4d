package vm

import (
	"testing"

	"saurus/internal/bytecode"
	"saurus/internal/container"
	"saurus/internal/errors"
	"saurus/internal/value"
)

// TestArithmeticScenario is scenario 1 of the end-to-end list: PUSH
// 0, PUSH 1, ADD, RETURN over constants [2, 3] called with no
// arguments yields 5.
func TestArithmeticScenario(t *testing.T) {
	s := NewState()
	proto := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPush, A: 0},
			{Op: bytecode.OpPush, A: 1},
			{Op: bytecode.OpAdd},
			{Op: bytecode.OpReturn},
		},
		Constants: []bytecode.Constant{
			{Kind: bytecode.ConstNumber, Number: 2},
			{Kind: bytecode.ConstNumber, Number: 3},
		},
	}
	cl := s.NewClosure(proto)
	result, err := s.Call(cl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind() != value.Number || result.AsNumber() != 5 {
		t.Fatalf("result: got %v want 5", value.Stringify(result))
	}
}

func TestModTruncatesTowardZero(t *testing.T) {
	s := NewState()
	proto := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPush, A: 0},
			{Op: bytecode.OpPush, A: 1},
			{Op: bytecode.OpMod},
			{Op: bytecode.OpReturn},
		},
		Constants: []bytecode.Constant{
			{Kind: bytecode.ConstNumber, Number: -7.9},
			{Kind: bytecode.ConstNumber, Number: 2},
		},
	}
	cl := s.NewClosure(proto)
	result, err := s.Call(cl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// truncate(-7.9) = -7, -7 % 2 = -1 (Go's %, not floating fmod).
	if result.AsNumber() != -1 {
		t.Fatalf("MOD result: got %v want -1", result.AsNumber())
	}
}

// TestTailCallBounded is scenario 4: a closure that calls itself via
// TCALL with a decremented counter runs many iterations without the
// frame stack ever exceeding depth 1 (let alone the 128-frame bound).
func TestTailCallBounded(t *testing.T) {
	s := NewState()
	proto := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLoad, A: 0},      // 0: push counter
			{Op: bytecode.OpPush, A: 0},      // 1: push 0
			{Op: bytecode.OpEq},               // 2: counter == 0
			{Op: bytecode.OpTest, B: 9},       // 3: if true -> 9
			{Op: bytecode.OpGetGlobal, A: 2},  // 4: push loop
			{Op: bytecode.OpLoad, A: 0},       // 5: push counter
			{Op: bytecode.OpPush, A: 1},       // 6: push 1
			{Op: bytecode.OpSub},               // 7: counter - 1
			{Op: bytecode.OpTcall, A: 1},       // 8: tail-call loop(counter-1)
			{Op: bytecode.OpLoad, A: 0},       // 9: push counter (0)
			{Op: bytecode.OpReturn},            // 10
		},
		Constants: []bytecode.Constant{
			{Kind: bytecode.ConstNumber, Number: 0},
			{Kind: bytecode.ConstNumber, Number: 1},
			{Kind: bytecode.ConstString, Bytes: []byte("loop\x00")},
		},
	}
	cl := s.instantiateClosure(proto, nil, 1, false)
	s.SetGlobal("loop", value.Obj(value.Function, cl), true)

	result, err := s.Call(cl, []value.Value{value.Num(100000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AsNumber() != 0 {
		t.Fatalf("result: got %v want 0", result.AsNumber())
	}
	if len(s.Frames) != 0 {
		t.Fatalf("frame stack leaked: %d frames remain", len(s.Frames))
	}
}

// TestGlobalRedefinitionScenario is scenario 5.
func TestGlobalRedefinitionScenario(t *testing.T) {
	s := NewState()
	setX := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPush, A: 0},
			{Op: bytecode.OpSetGlobal, A: 1},
			{Op: bytecode.OpPush, A: 2},
			{Op: bytecode.OpReturn},
		},
		Constants: []bytecode.Constant{
			{Kind: bytecode.ConstFalse},
			{Kind: bytecode.ConstString, Bytes: []byte("x\x00")},
			{Kind: bytecode.ConstNil},
		},
	}
	cl := s.NewClosure(setX)

	if _, err := s.Call(cl, nil); err != nil {
		t.Fatalf("first setglobal(x, false): unexpected error: %v", err)
	}

	_, err := s.Call(cl, nil)
	if err == nil {
		t.Fatal("redefining x should raise an error")
	}
	se, ok := err.(*errors.SaurusError)
	if !ok || se.Kind != errors.UserError {
		t.Fatalf("expected UserError, got %v", err)
	}
	if se.Message != "Redefinition of global variable: x" {
		t.Fatalf("message: got %q", se.Message)
	}

	setY := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPush, A: 0},
			{Op: bytecode.OpSetGlobal, A: 1},
			{Op: bytecode.OpPush, A: 2},
			{Op: bytecode.OpReturn},
		},
		Constants: []bytecode.Constant{
			{Kind: bytecode.ConstTrue},
			{Kind: bytecode.ConstString, Bytes: []byte("y\x00")},
			{Kind: bytecode.ConstNil},
		},
	}
	clY := s.NewClosure(setY)
	if _, err := s.Call(clY, nil); err != nil {
		t.Fatalf("setglobal(y, true) on a fresh name should not error: %v", err)
	}
}

// TestLambdaCapturesUpvalue builds a closure that creates and returns
// an inner closure capturing its own argument as an upvalue.
func TestLambdaCapturesUpvalue(t *testing.T) {
	s := NewState()
	inner := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLoad, A: 0}, // the one captured upvalue
			{Op: bytecode.OpReturn},
		},
		Upvalues: []bytecode.UpvalueDesc{{Level: 0, Index: 1}},
	}
	outer := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLambda, A: 0, B: 0},
			{Op: bytecode.OpReturn},
		},
		SubProtos: []*bytecode.Prototype{inner},
	}

	outerCl := s.instantiateClosure(outer, nil, 1, false)
	result, err := s.Call(outerCl, []value.Value{value.Num(41)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind() != value.Function {
		t.Fatalf("expected a closure result, got %s", result.Kind())
	}

	innerCl := result.Ptr().(*Closure)
	got, err := s.Call(innerCl, nil)
	if err != nil {
		t.Fatalf("unexpected error calling inner closure: %v", err)
	}
	if got.AsNumber() != 41 {
		t.Fatalf("captured upvalue: got %v want 41", got.AsNumber())
	}
}

func TestCallVectorAsIndexFunction(t *testing.T) {
	s := NewState()
	vec := container.Empty().Push(value.Num(10)).Push(value.Num(20)).Push(value.Num(30))
	s.push(value.Obj(value.Vector, vec))
	s.push(value.Num(1))

	done, result := s.doCall(1, false)
	if done {
		t.Fatal("vector call should not signal program completion")
	}
	if got := s.pop(); got.AsNumber() != 20 {
		t.Fatalf("vector(1): got %v want 20", got.AsNumber())
	}
	_ = result
}

func TestCallMapAsLookupFunction(t *testing.T) {
	s := NewState()
	key := value.Obj(value.String, s.Strings.InternString("name"))
	m := container.EmptyMap().Insert(key, value.Num(7))
	s.push(value.Obj(value.Map, m))
	s.push(key)

	if done, _ := s.doCall(1, false); done {
		t.Fatal("map call should not signal program completion")
	}
	if got := s.pop(); got.AsNumber() != 7 {
		t.Fatalf("map(key): got %v want 7", got.AsNumber())
	}
}

func TestCallMapMissingKeyErrors(t *testing.T) {
	s := NewState()
	m := container.EmptyMap()
	s.push(value.Obj(value.Map, m))
	s.push(value.Obj(value.String, s.Strings.InternString("missing")))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for a missing key")
		}
		se, ok := r.(*errors.SaurusError)
		if !ok || se.Kind != errors.LookupError {
			t.Fatalf("expected LookupError, got %v", r)
		}
	}()
	s.doCall(1, false)
}

func TestArityMismatchRaisesArityError(t *testing.T) {
	s := NewState()
	proto := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPush, A: 0},
			{Op: bytecode.OpReturn},
		},
		Constants: []bytecode.Constant{{Kind: bytecode.ConstNil}},
	}
	cl := s.instantiateClosure(proto, nil, 2, false)
	_, err := s.Call(cl, []value.Value{value.Num(1)})
	if err == nil {
		t.Fatal("expected an arity error")
	}
	se, ok := err.(*errors.SaurusError)
	if !ok || se.Kind != errors.ArityError {
		t.Fatalf("expected ArityError, got %v", err)
	}
}

func TestVariadicFoldsTrailingArgsIntoVector(t *testing.T) {
	s := NewState()
	proto := &bytecode.Prototype{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLoad, A: 1}, // the folded vector local
			{Op: bytecode.OpReturn},
		},
	}
	cl := s.instantiateClosure(proto, nil, 1, true)
	result, err := s.Call(cl, []value.Value{value.Num(1), value.Num(2), value.Num(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind() != value.Vector {
		t.Fatalf("expected a vector of trailing args, got %s", result.Kind())
	}
	vec := result.Ptr().(*container.Vector)
	if vec.Length() != 2 {
		t.Fatalf("trailing args: got %d want 2", vec.Length())
	}
}
