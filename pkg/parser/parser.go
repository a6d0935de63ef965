// Package parser provides the public parsing API for tron source code.
// It wraps the internal builder, which resolves scopes and types while
// parsing, and returns a fully typed AST.
package parser

import (
	"encoding/json"
	"io"

	"github.com/tron-lang/tron/internal/builder"
	"github.com/tron-lang/tron/pkg/ast"
)

// ParserError represents a parsing failure
type ParserError struct {
	Errors []*Error
}

func (e *ParserError) Error() string {
	if len(e.Errors) == 0 {
		return "parsing error"
	}
	return e.Errors[0].Error()
}

// Error represents a single positional error. Lex distinguishes lexical
// failures (unrecognized byte, unterminated string) from syntactic and
// semantic ones.
type Error struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Lex     bool   `json:"lex,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Parse parses tron source code and returns the typed AST. Parsing stops
// at the first error.
func Parse(input string) (*ast.Program, error) {
	return build(builder.New(input))
}

// ParseReader parses tron source from an io.Reader and returns the AST.
func ParseReader(r io.Reader) (*ast.Program, error) {
	return build(builder.NewReader(r))
}

func build(b *builder.Builder) (*ast.Program, error) {
	result, err := b.Build()
	if err != nil {
		builderErr := err.(*builder.Error)
		return nil, &ParserError{
			Errors: []*Error{{
				Message: builderErr.Message,
				Line:    builderErr.Line,
				Column:  builderErr.Column,
				Lex:     builderErr.Lex,
			}},
		}
	}
	return result, nil
}

// ParseToJSON parses tron source code and returns the AST as JSON.
func ParseToJSON(input string) ([]byte, error) {
	result, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}
