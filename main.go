package main

import (
	"github.com/0xPolygon/evm-tracecheck/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
