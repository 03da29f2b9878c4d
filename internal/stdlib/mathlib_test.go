package stdlib

import (
	"math"
	"testing"

	"saurus/internal/errors"
	"saurus/internal/vm"
)

func TestMathUnaryFunctions(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	got, err := callNative(s, "math-sqrt", s.NewNumber(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsNumber() != 3 {
		t.Fatalf("math-sqrt(9): got %v want 3", got.AsNumber())
	}

	abs, err := callNative(s, "math-abs", s.NewNumber(-5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if abs.AsNumber() != 5 {
		t.Fatalf("math-abs(-5): got %v want 5", abs.AsNumber())
	}
}

func TestMathBinaryFunctions(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	got, err := callNative(s, "math-fmod", s.NewNumber(7.5), s.NewNumber(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsNumber() != math.Mod(7.5, 2) {
		t.Fatalf("math-fmod: got %v", got.AsNumber())
	}
}

func TestMathNotImplementedRaisesUserError(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	_, err := callNative(s, "math-frexp", s.NewNumber(1))
	if err == nil {
		t.Fatal("expected math-frexp to raise an error")
	}
	se, ok := err.(*errors.SaurusError)
	if !ok || se.Kind != errors.UserError {
		t.Fatalf("expected UserError, got %v", err)
	}
	if se.Message != "Not implemented!" {
		t.Fatalf("message: got %q", se.Message)
	}
}

func TestMathMaxMinSeedFromZero(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	max, err := callNative(s, "math-max", s.NewNumber(-5), s.NewNumber(-2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The fold seed is 0.0, exactly matching the original library's
	// accumulator init — both negative inputs lose to the seed.
	if max.AsNumber() != 0 {
		t.Fatalf("math-max(-5,-2): got %v want 0 (seeded fold)", max.AsNumber())
	}

	min, err := callNative(s, "math-min", s.NewNumber(5), s.NewNumber(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min.AsNumber() != 0 {
		t.Fatalf("math-min(5,2): got %v want 0 (seeded fold)", min.AsNumber())
	}
}

func TestMathClamp(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	got, err := callNative(s, "math-clamp", s.NewNumber(15), s.NewNumber(0), s.NewNumber(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsNumber() != 10 {
		t.Fatalf("math-clamp(15,0,10): got %v want 10", got.AsNumber())
	}
}

func TestMathConstants(t *testing.T) {
	s := vm.NewState()
	InstallMath(s)

	pi, ok := s.GetGlobal("math-pi")
	if !ok || pi.AsNumber() != math.Pi {
		t.Fatalf("math-pi: got %v", pi.AsNumber())
	}
	big, ok := s.GetGlobal("math-big")
	if !ok || big.AsNumber() != math.MaxFloat64 {
		t.Fatalf("math-big: got %v", big.AsNumber())
	}
}
