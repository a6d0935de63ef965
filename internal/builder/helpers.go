package builder

import (
	"fmt"
	"strings"

	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/internal/scope"
)

// nextToken advances the lookahead, discarding whitespace and comment
// trivia so productions only ever see significant tokens. A NOMATCH token
// aborts immediately with a lexical diagnostic.
func (b *Builder) nextToken() {
	tok := b.lex.NextToken()
	for lexer.IsTrivia(tok.Type) {
		tok = b.lex.NextToken()
	}
	if tok.Type == lexer.NOMATCH {
		b.failLex(tok)
	}
	b.tok = tok
}

// failLex aborts with the lexical diagnostic for a NOMATCH token. An
// unterminated string keeps its opening quote in the lexeme; anything else
// is a single unrecognized byte.
func (b *Builder) failLex(tok lexer.Token) {
	msg := fmt.Sprintf("Unrecognized character %q", tok.Value)
	if strings.HasPrefix(tok.Value, `"`) {
		msg = "Unterminated string"
	}
	panic(bail{err: &Error{
		Message: msg,
		Line:    tok.Line,
		Column:  tok.Column,
		Lex:     true,
	}})
}

// failf aborts the parse with a positional diagnostic at the current token.
func (b *Builder) failf(format string, args ...any) {
	panic(bail{err: &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    b.tok.Line,
		Column:  b.tok.Column,
	}})
}

// check reports whether the lookahead is one of the given token types.
func (b *Builder) check(types ...lexer.TokenType) bool {
	for _, t := range types {
		if b.tok.Type == t {
			return true
		}
	}
	return false
}

// acceptToken consumes and returns the lookahead if it matches one of the
// given token types, or returns nil without consuming.
func (b *Builder) acceptToken(types ...lexer.TokenType) *lexer.Token {
	for _, t := range types {
		if b.tok.Type == t {
			tok := b.tok
			b.nextToken()
			return &tok
		}
	}
	return nil
}

// expectToken is acceptToken that aborts with "Unexpected token" on a miss.
func (b *Builder) expectToken(types ...lexer.TokenType) lexer.Token {
	if tok := b.acceptToken(types...); tok != nil {
		return *tok
	}
	b.failf("Unexpected token")
	return lexer.Token{}
}

// acceptKeyword consumes a NAME token whose lexeme equals the keyword.
func (b *Builder) acceptKeyword(keyword string) *lexer.Token {
	if b.tok.Type == lexer.NAME && b.tok.Value == keyword {
		return b.acceptToken(lexer.NAME)
	}
	return nil
}

// acceptType consumes a NAME token that resolves to a TYPE symbol in the
// current scope, returning the symbol.
func (b *Builder) acceptType() *scope.Symbol {
	if b.tok.Type == lexer.NAME {
		if sym := b.scope.Lookup(b.tok.Value); sym != nil && sym.Kind == scope.SymbolType {
			b.acceptToken(lexer.NAME)
			return sym
		}
	}
	return nil
}
