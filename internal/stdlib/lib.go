// Package stdlib registers Saurus's built-in global library onto a
// vm.State: core operators, sequence/vector/map families, math and IO
// wrappers, and the SQL/WebSocket/util domain libraries.
package stdlib

import (
	"fmt"

	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// Install registers every built-in global onto s; the embedding API's
// libinit(state). Callers that only need the core language surface
// (no SQL/WebSocket/util wiring) may call the individual Install*
// functions directly instead.
func Install(s *vm.State) {
	InstallCore(s)
	InstallSeq(s)
	InstallVec(s)
	InstallMap(s)
	InstallMath(s)
	InstallIO(s)
	InstallSQL(s)
	InstallNet(s)
	InstallUtil(s)
}

// InstallCore registers lib.go's print/type?/string!/number!/ref
// family — §6's baseline built-ins with no collection dependency.
func InstallCore(s *vm.State) {
	s.SetGlobal("print", s.NewNative("print", -1, nativePrint), true)
	s.SetGlobal("type?", s.NewNative("type?", 1, nativeTypeName), true)
	s.SetGlobal("string!", s.NewNative("string!", 1, nativeToString), true)
	s.SetGlobal("number!", s.NewNative("number!", 1, nativeToNumber), true)
	s.SetGlobal("ref", s.NewNative("ref", 1, nativeRef), true)
	s.SetGlobal("unref", s.NewNative("unref", 1, nativeUnref), true)
	s.SetGlobal("set", s.NewNative("set", 2, nativeSet), true)
}

func nativePrint(s *vm.State, n int) int {
	base := s.Top() - n
	for i := 0; i < n; i++ {
		if i > 0 {
			fmt.Fprint(s.Stdout(), " ")
		}
		fmt.Fprint(s.Stdout(), s.Stringify(s.Arg(base, i)))
	}
	fmt.Fprintln(s.Stdout())
	return 0
}

func nativeTypeName(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.Push(s.NewString(v.Kind().String()))
	return 1
}

func nativeToString(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.Push(s.NewString(s.Stringify(v)))
	return 1
}

func nativeToNumber(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	if s.IsNumber(v) {
		s.Push(v)
		return 1
	}
	text := s.CheckString(v, "number!")
	var f float64
	if _, err := fmt.Sscanf(text, "%g", &f); err != nil {
		s.Error(errors.TypeError, "number!: cannot parse %q as a number", text)
	}
	s.Push(s.NewNumber(f))
	return 1
}

func nativeRef(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.Push(s.NewLocal(v))
	return 1
}

func nativeUnref(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.CheckKind(v, value.Local, "unref")
	s.Push(s.UnrefLocal(v))
	return 1
}

func nativeSet(s *vm.State, n int) int {
	base := s.Top() - n
	local := s.Arg(base, 0)
	s.CheckKind(local, value.Local, "set")
	s.SetLocal(local, s.Arg(base, 1))
	return 0
}
