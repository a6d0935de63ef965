// Package builder provides the AST builder from tokens. It drives the lexer
// with one token of lookahead and resolves scopes, symbols and types while
// parsing, so the tree it returns is fully typed.
package builder

import (
	"fmt"
	"io"

	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/internal/scope"
	"github.com/tron-lang/tron/pkg/ast"
)

// Error represents a lexical or parsing error. Lex marks failures rooted
// in the scanner (unrecognized byte, unterminated string), which render
// with their own diagnostic prefix.
type Error struct {
	Message string
	Line    int
	Column  int
	Lex     bool
}

func (e *Error) Error() string {
	if e.Lex {
		return fmt.Sprintf("Lexer Error <%d:%d> %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("Syntax Error <%d:%d> %s", e.Line, e.Column, e.Message)
}

// bail unwinds the recursive descent on the first error.
type bail struct {
	err *Error
}

// scopeInfo is the parser-side per-scope metadata: the enclosing function
// declaration, and whether the scope belongs to a loop body.
type scopeInfo struct {
	function *ast.Function
	isLoop   bool
}

// Builder builds a typed AST from tron source code
type Builder struct {
	lex   *lexer.Lexer
	tok   lexer.Token
	scope *scope.Scope
}

// New creates a new Builder over an in-memory source.
func New(input string) *Builder {
	return newBuilder(lexer.New(input))
}

// NewReader creates a new Builder over an arbitrary byte source.
func NewReader(r io.Reader) *Builder {
	return newBuilder(lexer.NewReader(r))
}

func newBuilder(lex *lexer.Lexer) *Builder {
	b := &Builder{
		lex:   lex,
		scope: scope.Push(nil, scope.ScopeRoot, &scopeInfo{}),
	}

	// Built-in symbols available in every program.
	b.scope.Insert(scope.SymbolType, "int", ast.NewTypeInfo(ast.TypeInt))
	b.scope.Insert(scope.SymbolType, "float", ast.NewTypeInfo(ast.TypeFloat))
	b.scope.Insert(scope.SymbolFunction, "print_int", ast.NewTypeInfo(ast.TypeInt))

	return b
}

// Build parses the source and returns the typed AST. It stops at the first
// error; there is no recovery.
func (b *Builder) Build() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if be, ok := r.(bail); ok {
				prog = nil
				err = be.err
				return
			}
			panic(r)
		}
	}()

	b.nextToken()
	prog = ast.NewProgram()
	for b.tok.Type != lexer.EOF {
		stmt := b.parseStatement()
		if stmt == nil {
			b.failf("Unexpected token")
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

// enterScope pushes a child scope. Non-function scopes inherit the
// enclosing function from their parent chain.
func (b *Builder) enterScope(kind scope.ScopeKind, fn *ast.Function) {
	info := &scopeInfo{function: fn, isLoop: kind == scope.ScopeWhile}
	if fn == nil {
		if enclosing, ok := b.scope.FindEnclosingInfo(scope.ScopeFunction).(*scopeInfo); ok {
			info.function = enclosing.function
		}
	}
	b.scope = scope.Push(b.scope, kind, info)
}

func (b *Builder) exitScope() {
	b.scope = b.scope.Pop()
}

// enclosingFunction returns the function declaration the parser is
// currently inside, or nil at the top level.
func (b *Builder) enclosingFunction() *ast.Function {
	if info, ok := b.scope.FindEnclosingInfo(scope.ScopeFunction).(*scopeInfo); ok {
		return info.function
	}
	return nil
}
