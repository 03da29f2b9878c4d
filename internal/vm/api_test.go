package vm

import (
	"testing"

	"saurus/internal/errors"
	"saurus/internal/value"
)

func TestSetGlobalReplaceFlag(t *testing.T) {
	s := NewState()
	s.SetGlobal("x", s.NewNumber(1), true)

	if _, ok := s.GetGlobal("x"); !ok {
		t.Fatal("expected x to be defined")
	}

	func() {
		defer func() {
			r := recover()
			se, ok := r.(*errors.SaurusError)
			if !ok {
				t.Fatalf("expected a SaurusError panic, got %v", r)
			}
			if se.Kind != errors.LookupError {
				t.Fatalf("expected LookupError, got %v", se.Kind)
			}
		}()
		s.SetGlobal("x", s.NewNumber(2), false)
		t.Fatal("expected a panic redefining x with replace=false")
	}()

	s.SetGlobal("x", s.NewNumber(3), true)
	v, _ := s.GetGlobal("x")
	if v.AsNumber() != 3 {
		t.Fatalf("replace=true must overwrite: got %v want 3", v.AsNumber())
	}

	s.SetGlobal("y", s.NewNumber(9), false)
	v, _ = s.GetGlobal("y")
	if v.AsNumber() != 9 {
		t.Fatalf("replace=false on an undefined name must still define it: got %v want 9", v.AsNumber())
	}
}

func TestCheckArgsAnyAndPrefix(t *testing.T) {
	s := NewState()
	s.Push(s.NewNumber(1))
	s.Push(s.NewString("two"))
	s.Push(s.NewBool(true))
	base := s.Top() - 3

	if err := s.CheckArgs(base, 3, value.Number, value.String); err != nil {
		t.Fatalf("fewer kinds than n should only check the prefix: %v", err)
	}

	if err := s.CheckArgs(base, 3, value.Invalid, value.Invalid, value.Boolean); err != nil {
		t.Fatalf("value.Invalid should accept any kind: %v", err)
	}

	if err := s.CheckArgs(base, 3, value.String); err == nil {
		t.Fatal("expected a type error on the first argument")
	} else if se, ok := err.(*errors.SaurusError); !ok || se.Kind != errors.TypeError {
		t.Fatalf("expected TypeError, got %v", err)
	}

	if err := s.CheckArgs(base, 1, value.Number, value.String); err == nil {
		t.Fatal("expected an arity error when n < len(kinds)")
	} else if se, ok := err.(*errors.SaurusError); !ok || se.Kind != errors.ArityError {
		t.Fatalf("expected ArityError, got %v", err)
	}
}
