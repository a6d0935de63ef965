package builder

import (
	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/internal/scope"
	"github.com/tron-lang/tron/pkg/ast"
)

// Reserved keywords. They are ordinary NAME tokens; statement dispatch
// claims them by position.
const (
	kwVar      = "var"
	kwFunc     = "func"
	kwIf       = "if"
	kwElse     = "else"
	kwWhile    = "while"
	kwBreak    = "break"
	kwContinue = "continue"
	kwReturn   = "return"
)

// parseStatement dispatches on the statement head. The first production
// that matches wins; a nil return means no production matched.
func (b *Builder) parseStatement() ast.Node {
	if fn := b.parseFunction(); fn != nil {
		return fn
	}
	if ifStmt := b.parseIf(); ifStmt != nil {
		return ifStmt
	}
	if whileStmt := b.parseWhile(); whileStmt != nil {
		return whileStmt
	}
	if breakStmt := b.parseBreak(); breakStmt != nil {
		return breakStmt
	}
	if continueStmt := b.parseContinue(); continueStmt != nil {
		return continueStmt
	}
	if returnStmt := b.parseReturn(); returnStmt != nil {
		return returnStmt
	}
	if variable := b.parseVariable(); variable != nil {
		return variable
	}
	return b.parseNameStatement()
}

// parseBlockBody parses "{ statements }" in the current scope; the caller
// decides which scope the block runs in.
func (b *Builder) parseBlockBody() *ast.Block {
	b.expectToken(lexer.LBRACE)
	block := &ast.Block{BaseNode: ast.BaseNode{Type: ast.NodeBlock}}
	for !b.check(lexer.RBRACE, lexer.EOF) {
		stmt := b.parseStatement()
		if stmt == nil {
			b.failf("Unexpected token")
		}
		block.Statements = append(block.Statements, stmt)
	}
	b.expectToken(lexer.RBRACE)
	return block
}

// parseParam parses "name (: type)? (= expression)?" and inserts the
// resulting symbol into the current scope. Used both for var statements
// and for function parameters.
func (b *Builder) parseParam(kind scope.SymbolKind) *ast.Variable {
	nameTok := b.acceptToken(lexer.NAME)
	if nameTok == nil {
		return nil
	}

	var ti *ast.TypeInfo
	if b.acceptToken(lexer.COLON) != nil {
		ti = b.parseTypeInfo()
		if ti == nil {
			b.failf("Type info is missing")
		}
	} else {
		ti = ast.NewTypeInfo(ast.TypeInfer)
	}

	var expr *ast.Expression
	if b.acceptToken(lexer.ASSIGN) != nil {
		expr = b.parseExpression()
		if expr == nil {
			b.failf("Assignment requires expression")
		}
	} else if ti.Type == ast.TypeInfer {
		b.failf("Variable needs assignment")
	}

	var assignment *ast.Assignment
	if expr != nil {
		if ti.Type == ast.TypeInfer && !ti.IsArray() {
			ti = expr.TypeInfo.Clone()
		} else if !ti.Equal(expr.TypeInfo) {
			b.failf("Variable type does not match with expression type")
		}
		assignment = &ast.Assignment{
			BaseNode:   ast.BaseNode{Type: ast.NodeAssignment},
			Name:       nameTok.Value,
			TypeInfo:   ti.Clone(),
			Expression: expr,
		}
	}

	variable := &ast.Variable{
		BaseNode:   ast.BaseNode{Type: ast.NodeVariable},
		Name:       nameTok.Value,
		TypeInfo:   ti,
		Assignment: assignment,
	}

	if b.scope.Insert(kind, variable.Name, variable.TypeInfo.Clone()) == nil {
		b.failf("Symbol already exists")
	}
	return variable
}

// parseVariable parses "var name (: type)? (= expression)? ;".
func (b *Builder) parseVariable() ast.Node {
	if b.acceptKeyword(kwVar) == nil {
		return nil
	}
	variable := b.parseParam(scope.SymbolVariable)
	if variable == nil {
		b.failf("Variable not initialized")
	}
	b.expectToken(lexer.SEMICOLON)
	return variable
}

// parseFunction parses "func name ( params ) (: return_type)? { body }".
// The function symbol registers in the parent scope as soon as the header
// is parsed, so the body can call it recursively.
func (b *Builder) parseFunction() ast.Node {
	if b.acceptKeyword(kwFunc) == nil {
		return nil
	}
	if b.scope.Kind != scope.ScopeRoot {
		b.failf("Functions can only be declared at the top level")
	}

	nameTok := b.expectToken(lexer.NAME)
	fn := &ast.Function{
		BaseNode: ast.BaseNode{Type: ast.NodeFunction},
		Name:     nameTok.Value,
	}
	parent := b.scope

	b.enterScope(scope.ScopeFunction, fn)

	b.expectToken(lexer.LPAREN)
	if !b.check(lexer.RPAREN) {
		for {
			param := b.parseParam(scope.SymbolArg)
			if param == nil {
				b.failf("Parameter is missing")
			}
			fn.Params = append(fn.Params, param)
			if b.acceptToken(lexer.COMMA) == nil {
				break
			}
		}
	}
	b.expectToken(lexer.RPAREN)

	if b.acceptToken(lexer.COLON) != nil {
		fn.TypeInfo = b.parseTypeInfos()
		if fn.TypeInfo == nil {
			b.failf("Type info is missing")
		}
	} else {
		fn.TypeInfo = ast.NewTypeInfo(ast.TypeInfer)
	}

	// The symbol shares the function's TypeInfo so a return type inferred
	// inside the body is visible to every caller.
	if parent.Insert(scope.SymbolFunction, fn.Name, fn.TypeInfo) == nil {
		b.failf("Symbol already exists")
	}

	fn.Body = b.parseBlockBody()
	b.exitScope()
	return fn
}

// parseIf parses an if/else-if/else chain. Each branch body runs in a
// fresh IF scope.
func (b *Builder) parseIf() ast.Node {
	branch := b.parseIfBranch()
	if branch == nil {
		return nil
	}

	ifStmt := &ast.If{
		BaseNode: ast.BaseNode{Type: ast.NodeIf},
		Branches: []*ast.IfBranch{branch},
	}

	for b.acceptKeyword(kwElse) != nil {
		if next := b.parseIfBranch(); next != nil {
			ifStmt.Branches = append(ifStmt.Branches, next)
			continue
		}
		// A bare else terminates the chain with an unconditional branch.
		b.enterScope(scope.ScopeIf, nil)
		body := b.parseBlockBody()
		b.exitScope()
		ifStmt.Branches = append(ifStmt.Branches, &ast.IfBranch{Body: body})
		break
	}
	return ifStmt
}

func (b *Builder) parseIfBranch() *ast.IfBranch {
	if b.acceptKeyword(kwIf) == nil {
		return nil
	}
	if b.enclosingFunction() == nil {
		b.failf("If statement outside of a function")
	}

	b.expectToken(lexer.LPAREN)
	condition := b.parseExpression()
	if condition == nil {
		b.failf("Condition expression is missing")
	}
	b.expectToken(lexer.RPAREN)

	b.enterScope(scope.ScopeIf, nil)
	body := b.parseBlockBody()
	b.exitScope()

	return &ast.IfBranch{Condition: condition, Body: body}
}

// parseWhile parses "while ( condition ) { body }" in a fresh WHILE scope.
func (b *Builder) parseWhile() ast.Node {
	if b.acceptKeyword(kwWhile) == nil {
		return nil
	}
	if b.enclosingFunction() == nil {
		b.failf("While statement outside of a function")
	}

	b.expectToken(lexer.LPAREN)
	condition := b.parseExpression()
	if condition == nil {
		b.failf("Condition is missing")
	}
	b.expectToken(lexer.RPAREN)

	b.enterScope(scope.ScopeWhile, nil)
	body := b.parseBlockBody()
	b.exitScope()

	return &ast.While{
		BaseNode:  ast.BaseNode{Type: ast.NodeWhile},
		Condition: condition,
		Body:      body,
	}
}

// parseBreak parses "break ;", legal only inside a loop.
func (b *Builder) parseBreak() ast.Node {
	if b.acceptKeyword(kwBreak) == nil {
		return nil
	}
	if b.scope.FindEnclosingInfo(scope.ScopeWhile) == nil {
		b.failf("Break outside of a loop")
	}
	b.expectToken(lexer.SEMICOLON)
	return &ast.Break{BaseNode: ast.BaseNode{Type: ast.NodeBreak}}
}

// parseContinue parses "continue ;", legal only inside a loop.
func (b *Builder) parseContinue() ast.Node {
	if b.acceptKeyword(kwContinue) == nil {
		return nil
	}
	if b.scope.FindEnclosingInfo(scope.ScopeWhile) == nil {
		b.failf("Continue outside of a loop")
	}
	b.expectToken(lexer.SEMICOLON)
	return &ast.Continue{BaseNode: ast.BaseNode{Type: ast.NodeContinue}}
}

// parseReturn parses "return expression? ;" and unifies the expression
// type with the declared or inferred return type of the enclosing
// function.
func (b *Builder) parseReturn() ast.Node {
	if b.acceptKeyword(kwReturn) == nil {
		return nil
	}
	fn := b.enclosingFunction()
	if fn == nil {
		b.failf("Return outside of a function")
	}

	expr := b.parseExpression()
	if expr != nil {
		if fn.TypeInfo.Type == ast.TypeInfer {
			if expr.TypeInfo.Type == ast.TypeInfer {
				b.failf("Can not infer the return type")
			}
			// In-place so the function symbol sees the resolved type.
			*fn.TypeInfo = *expr.TypeInfo.Clone()
		} else if !fn.TypeInfo.Equal(expr.TypeInfo) {
			b.failf("Invalid or inconsistent return type")
		}
	} else if fn.TypeInfo.Type != ast.TypeInfer {
		b.failf("Invalid or inconsistent return type")
	}

	b.expectToken(lexer.SEMICOLON)
	return &ast.Return{
		BaseNode:   ast.BaseNode{Type: ast.NodeReturn},
		Expression: expr,
	}
}

// parseNameStatement disambiguates a statement that begins with a name:
// an assignment when the symbol is a variable or argument, a call
// statement when it is a function.
func (b *Builder) parseNameStatement() ast.Node {
	nameTok := b.acceptToken(lexer.NAME)
	if nameTok == nil {
		return nil
	}

	sym := b.scope.Lookup(nameTok.Value)
	if sym == nil {
		b.failf("Symbol not found")
	}

	switch sym.Kind {
	case scope.SymbolVariable, scope.SymbolArg:
		if b.acceptToken(lexer.ASSIGN) == nil {
			b.failf("Variable assignment missing")
		}
		expr := b.parseExpression()
		if expr == nil {
			b.failf("Expression required")
		}
		ti := sym.Info.(*ast.TypeInfo)
		if !ti.Equal(expr.TypeInfo) {
			b.failf("Variable type does not match with expression type")
		}
		b.expectToken(lexer.SEMICOLON)
		return &ast.Assignment{
			BaseNode:   ast.BaseNode{Type: ast.NodeAssignment},
			Name:       sym.Name,
			TypeInfo:   ti.Clone(),
			Expression: expr,
		}

	case scope.SymbolFunction:
		call := b.parseCall(sym)
		if call == nil {
			b.failf("Function call missing")
		}
		b.expectToken(lexer.SEMICOLON)
		return call

	default:
		b.failf("Invalid symbol")
		return nil
	}
}
