package stdlib

import (
	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallSeq registers seqlib.go's seq/list/cons/first/rest family.
func InstallSeq(s *vm.State) {
	s.SetGlobal("seq", s.NewNative("seq", -1, nativeSeq), true)
	s.SetGlobal("list", s.NewNative("list", -1, nativeSeq), true)
	s.SetGlobal("cons", s.NewNative("cons", 2, nativeCons), true)
	s.SetGlobal("first", s.NewNative("first", 1, nativeFirst), true)
	s.SetGlobal("rest", s.NewNative("rest", 1, nativeRest), true)
}

// nativeSeq builds an eager sequence out of the n arguments on the
// stack; seq and list are the same built-in under two names, matching
// the original library's pair of synonyms for cons-list construction.
func nativeSeq(s *vm.State, n int) int {
	base := s.Top() - n
	xs := make([]value.Value, n)
	for i := 0; i < n; i++ {
		xs[i] = s.Arg(base, i)
	}
	s.Push(s.NewSequence(xs))
	return 1
}

func nativeCons(s *vm.State, n int) int {
	base := s.Top() - n
	x := s.Arg(base, 0)
	rest := s.Arg(base, 1)
	if !rest.IsNil() && rest.Kind() != value.Sequence {
		s.Error(errors.TypeError, "cons: second argument must be a sequence or nil")
	}
	s.Push(s.Cons(x, rest))
	return 1
}

func nativeFirst(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	first, err := s.SeqFirst(v)
	if err != nil {
		s.Error(errors.TypeError, "first: %s", err.Error())
	}
	s.Push(first)
	return 1
}

func nativeRest(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	rest, err := s.SeqRest(v)
	if err != nil {
		s.Error(errors.TypeError, "rest: %s", err.Error())
	}
	s.Push(rest)
	return 1
}
