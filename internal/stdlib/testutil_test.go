package stdlib

import (
	"saurus/internal/value"
	"saurus/internal/vm"
)

// callNative looks up a registered global by name and invokes it
// directly with args pushed onto the operand stack, the same calling
// convention the dispatch loop's CALL/TCALL opcodes use. Any raised
// *errors.SaurusError is recovered and returned rather than panicking
// the test, via the same SetError checkpoint the embedding API uses.
func callNative(s *vm.State, name string, args ...value.Value) (value.Value, error) {
	g, ok := s.GetGlobal(name)
	if !ok {
		panic("callNative: no such global: " + name)
	}
	nf, ok := g.Ptr().(*vm.NativeFunction)
	if !ok {
		panic("callNative: global is not a native function: " + name)
	}

	var result value.Value
	err := s.SetError(func() error {
		top := s.Top()
		for _, a := range args {
			s.Push(a)
		}
		if n := nf.Fn(s, len(args)); n == 1 {
			result = s.Pop()
		}
		for s.Top() > top {
			s.Pop()
		}
		return nil
	})
	return result, err
}
