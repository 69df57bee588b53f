package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"swiftscript/analyzer"
	"swiftscript/compiler"
	"swiftscript/module"
)

// emitCmd implements the `emit` subcommand: compiles a source file to a
// SwiftScript Assembly and writes its disassembly and/or its serialized
// on-disk form (spec §6), without executing it.
type emitCmd struct {
	disassemble bool
	writeBinary bool
	outPath     string
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Emit the compiled bytecode for a source file" }
func (*emitCmd) Usage() string {
	return `emit <file.ss>:
  Compile a SwiftScript source file and emit its bytecode, without
  running it.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "print a human-readable disassembly to stdout")
	f.BoolVar(&cmd.writeBinary, "write", false, "write the serialized Assembly to a .ssc file alongside the source")
	f.StringVar(&cmd.outPath, "o", "", "output path for -write (defaults to the source file with a .ssc extension)")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	loader := module.NewLoader(module.FileResolver{BaseDir: filepath.Dir(filename)})
	statements, err := loader.Load(filename, string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := analyzer.New().Analyze(statements); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	asm, err := compiler.Compile(statements)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if cmd.disassemble {
		fmt.Println(compiler.Disassemble(asm.Code))
		for i, proto := range asm.Functions {
			fmt.Printf("\n-- function[%d] %s --\n", i, proto.Name)
			fmt.Println(compiler.Disassemble(proto.Code))
		}
	}

	if cmd.writeBinary {
		outPath := cmd.outPath
		if outPath == "" {
			base := strings.TrimSuffix(filename, filepath.Ext(filename))
			outPath = base + ".ssc"
		}
		out, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to create output file: %v\n", err)
			return subcommands.ExitFailure
		}
		defer out.Close()
		if err := compiler.WriteAssembly(out, asm); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write assembly: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("wrote %s\n", outPath)
	}

	return subcommands.ExitSuccess
}
