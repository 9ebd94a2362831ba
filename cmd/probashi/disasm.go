package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"probashi/compiler"
	"probashi/object"

	"github.com/google/subcommands"
)

type disasmCmd struct {
	dumpPath string
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a source file and print its bytecode disassembly" }
func (*disasmCmd) Usage() string {
	return "disasm [-dump path.nic] <file>: print disassembled bytecode without running it.\n"
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.dumpPath, "dump", "", "also hex-dump the raw instruction bytes to this file")
}

func (cmd *disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	bytecode, err := compileSource(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printDisassembly(bytecode)

	if cmd.dumpPath != "" {
		if err := os.WriteFile(cmd.dumpPath, []byte(fmt.Sprintf("%x", []byte(bytecode.Instructions))), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write bytecode dump: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

// printDisassembly walks the flat constant pool in index order,
// disassembling every CompiledFunction in it after the top-level stream.
func printDisassembly(bytecode *compiler.Bytecode) {
	fmt.Print(bytecode.Instructions.String())
	for i, c := range bytecode.Constants {
		if fn, ok := c.(*object.CompiledFunction); ok {
			fmt.Printf("\n-- constant %d: compiled function (locals=%d params=%d) --\n", i, fn.NumLocals, fn.NumParams)
			fmt.Print(compiler.Instructions(fn.Instructions).String())
		}
	}
}
