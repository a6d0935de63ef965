package builder

import (
	"strconv"

	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/internal/scope"
	"github.com/tron-lang/tron/pkg/ast"
)

// precedenceTable drives the binary expression parser, lowest-binding
// level first.
var precedenceTable = [][]lexer.TokenType{
	{lexer.LOGICAL_OR},
	{lexer.LOGICAL_AND},
	{lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE},
	{lexer.ADD, lexer.SUB, lexer.OR, lexer.XOR},
	{lexer.MUL, lexer.DIV, lexer.REM, lexer.SHL, lexer.SHR, lexer.AND, lexer.AND_NOT},
}

func isComparisonOp(t lexer.TokenType) bool {
	switch t {
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return true
	}
	return false
}

// parseExpression parses a full expression with precedence climbing and
// propagates the result type onto every node. Returns nil when the
// lookahead cannot start an expression.
func (b *Builder) parseExpression() *ast.Expression {
	return b.parseBinaryExpression(0)
}

func (b *Builder) parseBinaryExpression(level int) *ast.Expression {
	if level >= len(precedenceTable) {
		return b.parseUnaryExpression()
	}

	left := b.parseBinaryExpression(level + 1)
	if left == nil {
		return nil
	}

	for {
		opTok := b.acceptToken(precedenceTable[level]...)
		if opTok == nil {
			return left
		}

		right := b.parseBinaryExpression(level + 1)
		if right == nil {
			b.failf("Expected expression after binary operator")
		}

		if !left.TypeInfo.Equal(right.TypeInfo) {
			b.failf("Operand types do not match")
		}

		ti := left.TypeInfo.Clone()
		if isComparisonOp(opTok.Type) {
			ti = ast.NewTypeInfo(ast.TypeInt)
		}
		left = ast.NewExpression(*opTok, left, right, nil, ti)
	}
}

// parseUnaryExpression handles the prefix operators - ! ^, which bind
// tighter than any binary operator, and the postfix forms ++ and --.
func (b *Builder) parseUnaryExpression() *ast.Expression {
	if opTok := b.acceptToken(lexer.SUB, lexer.NOT, lexer.XOR); opTok != nil {
		operand := b.parseUnaryExpression()
		if operand == nil {
			b.failf("Operand is missing")
		}
		return ast.NewExpression(*opTok, operand, nil, nil, operand.TypeInfo.Clone())
	}

	expr := b.parseFactor()
	if expr == nil {
		return nil
	}
	for {
		opTok := b.acceptToken(lexer.INC, lexer.DEC)
		if opTok == nil {
			return expr
		}
		expr = ast.NewExpression(*opTok, expr, nil, nil, expr.TypeInfo.Clone())
	}
}

// parseFactor parses a primary expression: a parenthesized expression, a
// literal, an array literal, or a name resolving to a variable read or a
// function call.
func (b *Builder) parseFactor() *ast.Expression {
	switch {
	case b.check(lexer.LPAREN):
		b.expectToken(lexer.LPAREN)
		expr := b.parseExpression()
		if expr == nil {
			b.failf("Expression is missing")
		}
		b.expectToken(lexer.RPAREN)
		return expr

	case b.check(lexer.INTEGER):
		tok := b.expectToken(lexer.INTEGER)
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			b.failf("Invalid integer literal")
		}
		return ast.NewExpression(tok, nil, nil, ast.NewInteger(value), ast.NewTypeInfo(ast.TypeInt))

	case b.check(lexer.FLOAT):
		tok := b.expectToken(lexer.FLOAT)
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			b.failf("Invalid float literal")
		}
		return ast.NewExpression(tok, nil, nil, ast.NewFloat(value), ast.NewTypeInfo(ast.TypeFloat))

	case b.check(lexer.LBRACE):
		return b.parseArrayLiteral()

	case b.check(lexer.NAME):
		tok := b.expectToken(lexer.NAME)
		sym := b.scope.Lookup(tok.Value)
		if sym == nil {
			b.failf("Symbol not found")
		}
		switch sym.Kind {
		case scope.SymbolFunction:
			call := b.parseCall(sym)
			if call == nil {
				b.failf("Function call missing")
			}
			return ast.NewExpression(tok, nil, nil, call, call.TypeInfo.Clone())
		case scope.SymbolVariable, scope.SymbolArg:
			ti := sym.Info.(*ast.TypeInfo).Clone()
			return ast.NewExpression(tok, nil, nil, ast.NewName(tok.Value), ti)
		default:
			b.failf("Invalid symbol found")
		}
	}
	return nil
}

// parseArrayLiteral parses "{ e, e, ... }". The element type is inferred
// from the first element; an empty literal stays unresolved.
func (b *Builder) parseArrayLiteral() *ast.Expression {
	tok := b.expectToken(lexer.LBRACE)

	arr := &ast.Array{BaseNode: ast.BaseNode{Type: ast.NodeArray}}
	if !b.check(lexer.RBRACE) {
		for {
			elem := b.parseExpression()
			if elem == nil {
				b.failf("Expression is missing")
			}
			arr.Elements = append(arr.Elements, elem)
			if b.acceptToken(lexer.COMMA) == nil {
				break
			}
		}
	}
	b.expectToken(lexer.RBRACE)

	ti := &ast.TypeInfo{Type: ast.TypeInfer, Dims: []int{ast.DimUnknown}}
	if len(arr.Elements) > 0 {
		first := arr.Elements[0].TypeInfo
		for _, elem := range arr.Elements[1:] {
			if !first.Equal(elem.TypeInfo) {
				b.failf("Array elements must have the same type")
			}
		}
		ti = first.Clone()
		ti.Dims = append([]int{len(arr.Elements)}, ti.Dims...)
	}
	return ast.NewExpression(tok, nil, nil, arr, ti)
}

// parseCall parses "( arg, arg, ... )" for a resolved function symbol.
// Returns nil when the lookahead is not an opening parenthesis.
func (b *Builder) parseCall(sym *scope.Symbol) *ast.Call {
	if b.acceptToken(lexer.LPAREN) == nil {
		return nil
	}

	call := &ast.Call{
		BaseNode: ast.BaseNode{Type: ast.NodeCall},
		Name:     sym.Name,
		TypeInfo: sym.Info.(*ast.TypeInfo).Clone(),
	}

	if !b.check(lexer.RPAREN) {
		for {
			arg := b.parseExpression()
			if arg == nil {
				b.failf("Expression is missing")
			}
			call.Args = append(call.Args, arg)
			if b.acceptToken(lexer.COMMA) == nil {
				break
			}
		}
	}

	b.expectToken(lexer.RPAREN)
	return call
}
