package stdlib

import (
	"os"

	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallIO registers iolib.go's io-* family, grounded on the
// original library's fopen/fclose/fread/fwrite wrapper table. The
// three standard streams are installed as opaque NATIVE_POINTER
// handles pointing at the State's (possibly redirected) streams.
func InstallIO(s *vm.State) {
	s.SetGlobal("io-open", s.NewNative("io-open", 2, nativeIOOpen), true)
	s.SetGlobal("io-close", s.NewNative("io-close", 1, nativeIOClose), true)
	s.SetGlobal("io-read-file", s.NewNative("io-read-file", 1, nativeIOReadFile), true)
	s.SetGlobal("io-write-file", s.NewNative("io-write-file", 2, nativeIOWriteFile), true)
	s.SetGlobal("io-size", s.NewNative("io-size", 1, nativeIOSize), true)
	s.SetGlobal("io-error", s.NewNative("io-error", 1, nativeIOError), true)

	s.SetGlobal("io-stdin", s.NewPointer(s.Stdin()), true)
	s.SetGlobal("io-stdout", s.NewPointer(s.Stdout()), true)
	s.SetGlobal("io-stderr", s.NewPointer(s.Stderr()), true)
}

func nativeIOOpen(s *vm.State, n int) int {
	base := s.Top() - n
	path := s.CheckString(s.Arg(base, 0), "io-open")
	mode := s.CheckString(s.Arg(base, 1), "io-open")

	flag := os.O_RDONLY
	switch mode {
	case "r", "rb":
		flag = os.O_RDONLY
	case "w", "wb":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a", "ab":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		flag = os.O_RDONLY
	}

	fp, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		s.Push(s.NewNil())
		return 1
	}
	s.Push(s.NewPointer(fp))
	return 1
}

func nativeIOClose(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.CheckKind(v, value.NativePointer, "io-close")
	fp, ok := s.PointerOf(v).(*os.File)
	if ok {
		fp.Close()
	}
	return 0
}

func nativeIOReadFile(s *vm.State, n int) int {
	path := s.CheckString(s.Arg(s.Top()-n, 0), "io-read-file")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	s.Push(s.NewString(string(data)))
	return 1
}

func nativeIOWriteFile(s *vm.State, n int) int {
	base := s.Top() - n
	path := s.CheckString(s.Arg(base, 0), "io-write-file")
	data := s.CheckString(s.Arg(base, 1), "io-write-file")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return 0
	}
	s.Push(s.NewNumber(float64(len(data))))
	return 1
}

func nativeIOSize(s *vm.State, n int) int {
	path := s.CheckString(s.Arg(s.Top()-n, 0), "io-size")
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	s.Push(s.NewNumber(float64(info.Size())))
	return 1
}

func nativeIOError(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.CheckKind(v, value.NativePointer, "io-error")
	_, ok := s.PointerOf(v).(*os.File)
	if !ok {
		s.Error(errors.TypeError, "io-error: not a file pointer")
	}
	return 0
}
