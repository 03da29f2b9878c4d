// cmd/saurus/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"saurus/internal/bytecode"
	"saurus/internal/stdlib"
	"saurus/internal/vm"
)

func main() {
	trace := flag.Bool("trace", false, "log one line per executed instruction to stderr")
	stackSize := flag.Int("stack-size", 0, "operand stack size (0 keeps the default)")
	frameSize := flag.Int("frame-size", 0, "frame stack depth (0 keeps the default)")
	gcThreshold := flag.Int("gc-threshold", 0, "live-object count that begins a GC cycle (0 keeps the default)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: saurus [flags] <program.suc>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("saurus: %s", err)
	}

	s := vm.NewState()
	stdlib.Install(s)

	if *trace || os.Getenv("SAURUS_TRACE") == "1" {
		s.SetTrace(true)
	}
	s.SetBounds(*stackSize, *frameSize)
	s.SetGCThreshold(*gcThreshold)

	cl, err := s.Load(bytecode.NewSliceReader(data))
	if err != nil {
		log.Fatalf("saurus: %s", err)
	}

	if _, err := s.Call(cl, nil); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
}
