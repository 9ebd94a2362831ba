package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"probashi/compiler"
	"probashi/lexer"
	"probashi/parser"
	"probashi/vm"

	"github.com/google/subcommands"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and run a Probashi source file" }
func (*runCmd) Usage() string {
	return "run <file>: compile and execute a source file, printing the final value.\n"
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	machine := vm.New(bytecode)
	if err := machine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Println(machine.LastPoppedStackElem().Inspect())
	return subcommands.ExitSuccess
}

// compileSource runs the full lexer → parser → compiler pipeline,
// reporting every accumulated parse error before stopping at the first.
func compileSource(source string) (*compiler.Bytecode, error) {
	l := lexer.New(source)
	p := parser.New(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		msg := "💥 parse errors:\n"
		for _, e := range errs {
			msg += fmt.Sprintf("\t%v\n", e)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	comp := compiler.New()
	bytecode, err := comp.Compile(program)
	if err != nil {
		return nil, err
	}
	return bytecode, nil
}
