package analyzer

import (
	"fmt"
	"strings"

	"swiftscript/token"
)

// TypeError is a single semantic violation found during Pass C.
type TypeError struct {
	Line    int
	Column  int
	Message string
}

func newTypeError(tok token.Token, format string, args ...any) TypeError {
	return TypeError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func (e TypeError) Error() string {
	return fmt.Sprintf("line:%d, column:%d - %s", e.Line, e.Column, e.Message)
}

// TypeCheckError aggregates every TypeError raised across Pass C before
// compilation proceeds; Analyze returns one of these, never a bare
// TypeError, so callers always see the complete list of violations.
type TypeCheckError struct {
	Errors []TypeError
}

func (e TypeCheckError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("💥 SwiftScript type error (%d issue(s)):\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}

// Warning is a non-fatal diagnostic (e.g. use of a Deprecated symbol),
// printed to stderr after a successful analysis instead of failing it.
type Warning struct {
	Line    int
	Column  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("⚠️  line:%d, column:%d - %s", w.Line, w.Column, w.Message)
}
