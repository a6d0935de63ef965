package builder

import (
	"strconv"

	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/pkg/ast"
)

// parseTypeInfo parses a single type annotation: a type name optionally
// followed by array dimensions, e.g. "int" or "float[3]". Returns nil when
// the lookahead does not name a type.
func (b *Builder) parseTypeInfo() *ast.TypeInfo {
	sym := b.acceptType()
	if sym == nil {
		return nil
	}

	ti := sym.Info.(*ast.TypeInfo).Clone()
	for b.acceptToken(lexer.LBRACK) != nil {
		dim := ast.DimUnknown
		if sizeTok := b.acceptToken(lexer.INTEGER); sizeTok != nil {
			size, err := strconv.Atoi(sizeTok.Value)
			if err != nil {
				b.failf("Invalid array size")
			}
			dim = size
		}
		b.expectToken(lexer.RBRACK)
		ti.Dims = append(ti.Dims, dim)
	}
	return ti
}

// parseTypeInfos parses either a single type annotation or a parenthesized
// multi-return tuple "(int, float)", chaining the entries.
func (b *Builder) parseTypeInfos() *ast.TypeInfo {
	if b.acceptToken(lexer.LPAREN) == nil {
		return b.parseTypeInfo()
	}

	ti := b.parseTypeInfo()
	if ti == nil {
		b.failf("Type info is missing")
	}

	current := ti
	for b.acceptToken(lexer.COMMA) != nil {
		next := b.parseTypeInfo()
		if next == nil {
			b.failf("Type info is missing")
		}
		current.Next = next
		current = next
	}

	b.expectToken(lexer.RPAREN)
	return ti
}
