package stdlib

import (
	"math"
	"math/rand"

	"saurus/internal/errors"
	"saurus/internal/vm"
)

// InstallMath registers mathlib.go's math-* family and the math-pi /
// math-big / math-small constants, following the original library's
// libm table one-for-one.
func InstallMath(s *vm.State) {
	unary := map[string]func(float64) float64{
		"cos": math.Cos, "sin": math.Sin, "tan": math.Tan,
		"acos": math.Acos, "asin": math.Asin, "atan": math.Atan,
		"cosh": math.Cosh, "sinh": math.Sinh, "tanh": math.Tanh,
		"acosh": math.Acosh, "asinh": math.Asinh, "atanh": math.Atanh,
		"sqrt": math.Sqrt, "exp": math.Exp, "log": math.Log, "log10": math.Log10,
		"ceil": math.Ceil, "floor": math.Floor, "abs": math.Abs,
	}
	for name, fn := range unary {
		fn := fn
		s.SetGlobal("math-"+name, s.NewNative("math-"+name, 1, func(st *vm.State, n int) int {
			x := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-"+name)
			st.Push(st.NewNumber(fn(x)))
			return 1
		}), true)
	}

	binary := map[string]func(a, b float64) float64{
		"atan2": math.Atan2, "fmod": math.Mod,
	}
	for name, fn := range binary {
		fn := fn
		s.SetGlobal("math-"+name, s.NewNative("math-"+name, 2, func(st *vm.State, n int) int {
			base := st.Top() - n
			a := st.CheckNumber(st.Arg(base, 0), "math-"+name)
			b := st.CheckNumber(st.Arg(base, 1), "math-"+name)
			st.Push(st.NewNumber(fn(a, b)))
			return 1
		}), true)
	}

	s.SetGlobal("math-frexp", s.NewNative("math-frexp", 1, mathNotImplemented), true)
	s.SetGlobal("math-ldexp", s.NewNative("math-ldexp", 1, mathNotImplemented), true)

	s.SetGlobal("math-modfi", s.NewNative("math-modfi", 1, func(st *vm.State, n int) int {
		x := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-modfi")
		frac, _ := math.Modf(x)
		st.Push(st.NewNumber(frac))
		return 1
	}), true)
	s.SetGlobal("math-modff", s.NewNative("math-modff", 1, func(st *vm.State, n int) int {
		x := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-modff")
		_, whole := math.Modf(x)
		st.Push(st.NewNumber(whole))
		return 1
	}), true)

	s.SetGlobal("math-random", s.NewNative("math-random", 0, func(st *vm.State, n int) int {
		st.Push(st.NewNumber(float64(rand.Int31())))
		return 1
	}), true)
	s.SetGlobal("math-randomseed", s.NewNative("math-randomseed", 1, func(st *vm.State, n int) int {
		seed := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-randomseed")
		rand.Seed(int64(seed))
		return 0
	}), true)

	s.SetGlobal("math-deg", s.NewNative("math-deg", 1, func(st *vm.State, n int) int {
		x := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-deg")
		st.Push(st.NewNumber(x * 180.0 / math.Pi))
		return 1
	}), true)
	s.SetGlobal("math-rad", s.NewNative("math-rad", 1, func(st *vm.State, n int) int {
		x := st.CheckNumber(st.Arg(st.Top()-n, 0), "math-rad")
		st.Push(st.NewNumber(x * math.Pi / 180.0))
		return 1
	}), true)

	s.SetGlobal("math-max", s.NewNative("math-max", -1, func(st *vm.State, n int) int {
		base := st.Top() - n
		m := 0.0
		for i := 0; i < n; i++ {
			m = math.Max(m, st.CheckNumber(st.Arg(base, i), "math-max"))
		}
		st.Push(st.NewNumber(m))
		return 1
	}), true)
	s.SetGlobal("math-min", s.NewNative("math-min", -1, func(st *vm.State, n int) int {
		base := st.Top() - n
		m := 0.0
		for i := 0; i < n; i++ {
			m = math.Min(m, st.CheckNumber(st.Arg(base, i), "math-min"))
		}
		st.Push(st.NewNumber(m))
		return 1
	}), true)

	s.SetGlobal("math-clamp", s.NewNative("math-clamp", 3, func(st *vm.State, n int) int {
		base := st.Top() - n
		x := st.CheckNumber(st.Arg(base, 0), "math-clamp")
		lo := st.CheckNumber(st.Arg(base, 1), "math-clamp")
		hi := st.CheckNumber(st.Arg(base, 2), "math-clamp")
		st.Push(st.NewNumber(math.Min(math.Max(x, lo), hi)))
		return 1
	}), true)

	s.SetGlobal("math-pi", s.NewNumber(math.Pi), true)
	s.SetGlobal("math-big", s.NewNumber(math.MaxFloat64), true)
	s.SetGlobal("math-small", s.NewNumber(math.SmallestNonzeroFloat64), true)
}

func mathNotImplemented(st *vm.State, n int) int {
	st.Error(errors.UserError, "Not implemented!")
	return 0
}
