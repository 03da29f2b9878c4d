package stdlib

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"saurus/internal/vm"
)

// InstallUtil registers uuid-new and bytes-human, small formatting
// helpers with no natural home in any of the other families.
func InstallUtil(s *vm.State) {
	s.SetGlobal("uuid-new", s.NewNative("uuid-new", 0, nativeUUIDNew), true)
	s.SetGlobal("bytes-human", s.NewNative("bytes-human", 1, nativeBytesHuman), true)
}

func nativeUUIDNew(s *vm.State, n int) int {
	s.Push(s.NewString(uuid.New().String()))
	return 1
}

func nativeBytesHuman(s *vm.State, n int) int {
	size := s.CheckNumber(s.Arg(s.Top()-n, 0), "bytes-human")
	s.Push(s.NewString(humanize.Bytes(uint64(size))))
	return 1
}
