package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"swiftscript/analyzer"
	"swiftscript/compiler"
	"swiftscript/lexer"
	"swiftscript/parser"
	"swiftscript/token"
	"swiftscript/vm"
)

// replCmd implements the REPL command: a persistent analyzer and VM that
// accumulate globals/types/live objects across buffered input chunks,
// recompiling each freshly-parsed chunk rather than incrementally
// patching bytecode.
type replCmd struct {
	stats bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive SwiftScript session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive SwiftScript session. Type "exit" to quit, or
  ":stats" to print the VM's current live-object footprint.
`
}
func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.stats, "stats", false, "print live-object stats after every chunk")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to SwiftScript!")

	rl, err := readline.New("SwiftScript>>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	az := analyzer.New()
	machine := vm.New(&compiler.Assembly{}, os.Stdout, os.Stdin)

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt("SwiftScript>>> ")
		} else {
			rl.SetPrompt("SwiftScript... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buffer.Len() == 0 {
				continue
			}
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}
		if strings.TrimSpace(line) == ":stats" && buffer.Len() == 0 {
			fmt.Println(machine.CurrentStats())
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens, lexErr := lex.Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, pErr := range parseErrs {
				fmt.Fprintln(os.Stderr, pErr)
			}
			buffer.Reset()
			continue
		}

		if err := az.Analyze(statements); err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		asm, err := compiler.Compile(statements)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		if err := machine.RunAssembly(asm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if cmd.stats {
			fmt.Println(machine.CurrentStats())
		}
		buffer.Reset()
	}
}

// isInputReady checks for balanced braces and for a trailing token that
// implies more input is still coming (an open operator, an unterminated
// block-opening keyword), so a multi-line `if`/`func`/`class` body can be
// typed across several Readline calls before being parsed as one chunk.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.ASSIGN,
		token.PLUS,
		token.MINUS,
		token.STAR,
		token.SLASH,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.GREATER,
		token.GREATER_EQUAL,
		token.AND_AND,
		token.OR_OR,
		token.COMMA,
		token.LPAREN,
		token.LBRACE,
		token.IF,
		token.ELSE,
		token.WHILE,
		token.FOR,
		token.FUNC,
		token.RETURN,
		token.VAR,
		token.LET:
		return false
	}
	return true
}

// lastNonEOF returns the last non-EOF token, or nil if none exists.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF treats a set of parse errors as "need more input"
// rather than a real failure when every one of them is positioned exactly
// at the final EOF token — the same heuristic as the input-readiness check.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	if len(parseErrs) == 0 {
		return false
	}
	for _, perr := range parseErrs {
		pe, ok := perr.(parser.ParseError)
		if !ok {
			return false
		}
		if pe.Line != eof.Line || pe.Column != eof.Column {
			return false
		}
	}
	return true
}
