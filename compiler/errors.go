package compiler

import "fmt"

// CompilerError is raised immediately (not accumulated, unlike TypeCheckError)
// the moment the compiler hits a capacity overflow or a construct that
// should have been ruled out by a well-typed AST.
type CompilerError struct {
	Message string
	Line    int
}

func (e CompilerError) Error() string {
	return fmt.Sprintf("💥 CompilerError: line:%d - %s", e.Line, e.Message)
}

func newCompilerError(line int, format string, args ...any) CompilerError {
	return CompilerError{Line: line, Message: fmt.Sprintf(format, args...)}
}
