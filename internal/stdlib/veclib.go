package stdlib

import (
	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallVec registers veclib.go's vector family: build, length,
// index, set, push, pop.
func InstallVec(s *vm.State) {
	s.SetGlobal("vector", s.NewNative("vector", -1, nativeVector), true)
	s.SetGlobal("vector-length", s.NewNative("vector-length", 1, nativeVectorLength), true)
	s.SetGlobal("vector-index", s.NewNative("vector-index", 2, nativeVectorIndex), true)
	s.SetGlobal("vector-set", s.NewNative("vector-set", 3, nativeVectorSet), true)
	s.SetGlobal("vector-push", s.NewNative("vector-push", -1, nativeVectorPush), true)
	s.SetGlobal("vector-pop", s.NewNative("vector-pop", 2, nativeVectorPop), true)
}

// nativeVector builds a vector from the last n values on the stack,
// per the embedding API's "build from last N of stack" rule.
func nativeVector(s *vm.State, n int) int {
	base := s.Top() - n
	xs := make([]value.Value, n)
	for i := 0; i < n; i++ {
		xs[i] = s.Arg(base, i)
	}
	s.Push(s.VectorFromSlice(xs))
	return 1
}

func nativeVectorLength(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.CheckKind(v, value.Vector, "vector-length")
	s.Push(s.NewNumber(float64(s.VectorOf(v).Length())))
	return 1
}

func nativeVectorIndex(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Vector, "vector-index")
	i := s.CheckNumber(s.Arg(base, 1), "vector-index")
	elem, err := s.VectorOf(v).Index(int(i))
	if err != nil {
		s.Error(errors.LookupError, "vector-index: %s", err.Error())
	}
	s.Push(elem)
	return 1
}

func nativeVectorSet(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Vector, "vector-set")
	i := s.CheckNumber(s.Arg(base, 1), "vector-set")
	x := s.Arg(base, 2)
	newVec, err := s.VectorOf(v).Set(int(i), x)
	if err != nil {
		s.Error(errors.LookupError, "vector-set: %s", err.Error())
	}
	s.Push(s.NewVectorFrom(newVec))
	return 1
}

// nativeVectorPush is variadic: it pushes each of its trailing n-1
// arguments onto the vector in order, in a single call.
func nativeVectorPush(s *vm.State, n int) int {
	if n < 1 {
		s.Error(errors.ArityError, "vector-push: expected at least 1 argument, got %d", n)
	}
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Vector, "vector-push")
	acc := s.VectorOf(v)
	for i := 1; i < n; i++ {
		acc = acc.Push(s.Arg(base, i))
	}
	s.Push(s.NewVectorFrom(acc))
	return 1
}

// nativeVectorPop removes the caller-supplied count of elements from
// the vector's tail in a single call.
func nativeVectorPop(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Vector, "vector-pop")
	count := int(s.CheckNumber(s.Arg(base, 1), "vector-pop"))
	if count < 0 {
		s.Error(errors.UserError, "vector-pop: count must be non-negative, got %d", count)
	}
	acc := s.VectorOf(v)
	for i := 0; i < count; i++ {
		newVec, err := acc.Pop()
		if err != nil {
			s.Error(errors.ResourceError, "vector-pop: %s", err.Error())
		}
		acc = newVec
	}
	s.Push(s.NewVectorFrom(acc))
	return 1
}
