package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tron-lang/tron/pkg/ast"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := New(input).Build()
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func parseErr(t *testing.T, input string) *Error {
	t.Helper()
	prog, err := New(input).Build()
	require.Error(t, err)
	require.Nil(t, prog)
	berr, ok := err.(*Error)
	require.True(t, ok, "error should be a builder.Error")
	return berr
}

func TestVariableDeclaration(t *testing.T) {
	prog := parse(t, `var x: int = 41 + 1;`)
	require.Len(t, prog.Statements, 1)

	variable, ok := prog.Statements[0].(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "x", variable.Name)
	assert.Equal(t, ast.TypeInt, variable.TypeInfo.Type)

	require.NotNil(t, variable.Assignment)
	assert.Equal(t, "x", variable.Assignment.Name)
	assert.Equal(t, ast.TypeInt, variable.Assignment.TypeInfo.Type)

	expr := variable.Assignment.Expression
	require.NotNil(t, expr.Left)
	require.NotNil(t, expr.Right)
	assert.Equal(t, "+", expr.Token.Value)
	assert.Equal(t, ast.TypeInt, expr.TypeInfo.Type)

	left, ok := expr.Left.Leaf.(*ast.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(41), left.Value)
	right, ok := expr.Right.Leaf.(*ast.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(1), right.Value)
}

func TestVariableTypeInference(t *testing.T) {
	prog := parse(t, `var x = 2.5;`)
	variable := prog.Statements[0].(*ast.Variable)
	assert.Equal(t, ast.TypeFloat, variable.TypeInfo.Type)
}

func TestVariableWithoutTypeOrValue(t *testing.T) {
	berr := parseErr(t, `var x;`)
	assert.Equal(t, "Variable needs assignment", berr.Message)
}

func TestVariableTypeMismatch(t *testing.T) {
	berr := parseErr(t, `var x: int = 2.5;`)
	assert.Equal(t, "Variable type does not match with expression type", berr.Message)
}

func TestUndefinedSymbol(t *testing.T) {
	berr := parseErr(t, `var y: int = z;`)
	assert.Equal(t, "Symbol not found", berr.Message)
	assert.Equal(t, 1, berr.Line)
}

func TestAssignmentTypeMismatch(t *testing.T) {
	berr := parseErr(t, `var x: int = 1; x = 2.5;`)
	assert.Equal(t, "Variable type does not match with expression type", berr.Message)
}

func TestDuplicateSymbol(t *testing.T) {
	berr := parseErr(t, `var x: int = 1; var x: int = 2;`)
	assert.Equal(t, "Symbol already exists", berr.Message)
}

func TestFunctionReturnTypeInference(t *testing.T) {
	prog := parse(t, `func id(n: int) { return n; }`)

	fn, ok := prog.Statements[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "id", fn.Name)
	assert.Equal(t, ast.TypeInt, fn.TypeInfo.Type, "return type must infer from the return statement")

	require.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name)
	assert.Equal(t, ast.TypeInt, fn.Params[0].TypeInfo.Type)
}

func TestFunctionWithoutReturnKeepsInfer(t *testing.T) {
	prog := parse(t, `func noop() { var x: int = 1; }`)
	fn := prog.Statements[0].(*ast.Function)
	assert.Equal(t, ast.TypeInfer, fn.TypeInfo.Type)
}

func TestInconsistentReturnType(t *testing.T) {
	berr := parseErr(t, `func f() { return 1; return 2.5; }`)
	assert.Equal(t, "Invalid or inconsistent return type", berr.Message)
}

func TestDeclaredReturnTypeMismatch(t *testing.T) {
	berr := parseErr(t, `func f(): float { return 1; }`)
	assert.Equal(t, "Invalid or inconsistent return type", berr.Message)
}

func TestRecursionAllowed(t *testing.T) {
	parse(t, `
		func fact(n: int): int {
			if (n) {
				return fact(n - 1) * n;
			}
			return 1;
		}
	`)
}

func TestFunctionOnlyAtTopLevel(t *testing.T) {
	berr := parseErr(t, `func outer() { func inner() { return 1; } }`)
	assert.Equal(t, "Functions can only be declared at the top level", berr.Message)
}

func TestReturnOutsideFunction(t *testing.T) {
	berr := parseErr(t, `return 1;`)
	assert.Equal(t, "Return outside of a function", berr.Message)
}

func TestIfOutsideFunction(t *testing.T) {
	berr := parseErr(t, `if (1) { var x: int = 1; }`)
	assert.Equal(t, "If statement outside of a function", berr.Message)
}

func TestWhileOutsideFunction(t *testing.T) {
	berr := parseErr(t, `while (1) { var x: int = 1; }`)
	assert.Equal(t, "While statement outside of a function", berr.Message)
}

func TestBreakOutsideLoop(t *testing.T) {
	berr := parseErr(t, `func f() { break; }`)
	assert.Equal(t, "Break outside of a loop", berr.Message)
}

func TestContinueOutsideLoop(t *testing.T) {
	berr := parseErr(t, `func f() { if (1) { continue; } }`)
	assert.Equal(t, "Continue outside of a loop", berr.Message)
}

func TestBreakInsideLoop(t *testing.T) {
	parse(t, `
		func f() {
			while (1) {
				if (1) {
					break;
				}
				continue;
			}
		}
	`)
}

func TestIfElseChain(t *testing.T) {
	prog := parse(t, `
		func f(x: int): int {
			if (x) {
				return 1;
			} else if (x) {
				return 2;
			} else {
				return 3;
			}
		}
	`)

	fn := prog.Statements[0].(*ast.Function)
	require.Len(t, fn.Body.Statements, 1)

	ifStmt, ok := fn.Body.Statements[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, ifStmt.Branches, 3)

	assert.NotNil(t, ifStmt.Branches[0].Condition)
	assert.NotNil(t, ifStmt.Branches[1].Condition)
	assert.Nil(t, ifStmt.Branches[2].Condition, "trailing else has no condition")
}

func TestShadowingInNestedScopes(t *testing.T) {
	parse(t, `
		var x: int = 1;
		func f() {
			var x: float = 2.5;
			x = 3.5;
		}
	`)
}

func TestParamShadowsGlobal(t *testing.T) {
	parse(t, `
		var n: float = 1.5;
		func f(n: int): int {
			return n + 1;
		}
	`)
}

func TestCallStatement(t *testing.T) {
	prog := parse(t, `func f() { print_int(42); }`)
	fn := prog.Statements[0].(*ast.Function)

	call, ok := fn.Body.Statements[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "print_int", call.Name)
	assert.Equal(t, ast.TypeInt, call.TypeInfo.Type)
	require.Len(t, call.Args, 1)
}

func TestCallOnVariableFails(t *testing.T) {
	berr := parseErr(t, `var x: int = 1; func f() { x(); }`)
	assert.Equal(t, "Variable assignment missing", berr.Message)
}

func TestOperandTypeMismatch(t *testing.T) {
	berr := parseErr(t, `var x: int = 1 + 2.5;`)
	assert.Equal(t, "Operand types do not match", berr.Message)
}

func TestComparisonYieldsInt(t *testing.T) {
	prog := parse(t, `var x = 1.5 < 2.5;`)
	variable := prog.Statements[0].(*ast.Variable)
	assert.Equal(t, ast.TypeInt, variable.TypeInfo.Type)
}

func TestPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3).
	prog := parse(t, `var x: int = 1 + 2 * 3;`)
	expr := prog.Statements[0].(*ast.Variable).Assignment.Expression

	assert.Equal(t, "+", expr.Token.Value)
	require.NotNil(t, expr.Right)
	assert.Equal(t, "*", expr.Right.Token.Value)
}

func TestLeftAssociativity(t *testing.T) {
	// 10 - 4 - 3 must parse as (10 - 4) - 3.
	prog := parse(t, `var x: int = 10 - 4 - 3;`)
	expr := prog.Statements[0].(*ast.Variable).Assignment.Expression

	assert.Equal(t, "-", expr.Token.Value)
	require.NotNil(t, expr.Left)
	assert.Equal(t, "-", expr.Left.Token.Value)

	right, ok := expr.Right.Leaf.(*ast.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(3), right.Value)
}

func TestUnaryBindsTighter(t *testing.T) {
	// -1 + 2 must parse as (-1) + 2.
	prog := parse(t, `var x: int = -1 + 2;`)
	expr := prog.Statements[0].(*ast.Variable).Assignment.Expression

	assert.Equal(t, "+", expr.Token.Value)
	assert.Equal(t, "-", expr.Left.Token.Value)
	assert.Nil(t, expr.Left.Right, "unary has no right operand")
}

func TestPostfixIncrement(t *testing.T) {
	prog := parse(t, `var x: int = 1; var y: int = x++;`)
	expr := prog.Statements[1].(*ast.Variable).Assignment.Expression

	assert.Equal(t, "++", expr.Token.Value)
	require.NotNil(t, expr.Left)
	assert.Nil(t, expr.Right)
	assert.Equal(t, ast.TypeInt, expr.TypeInfo.Type)
}

func TestParenthesizedExpression(t *testing.T) {
	// (1 + 2) * 3 keeps the addition as the left subtree.
	prog := parse(t, `var x: int = (1 + 2) * 3;`)
	expr := prog.Statements[0].(*ast.Variable).Assignment.Expression

	assert.Equal(t, "*", expr.Token.Value)
	assert.Equal(t, "+", expr.Left.Token.Value)
}

func TestArrayLiteral(t *testing.T) {
	prog := parse(t, `var xs: int[3] = {1, 2, 3};`)
	variable := prog.Statements[0].(*ast.Variable)

	assert.Equal(t, ast.TypeInt, variable.TypeInfo.Type)
	assert.Equal(t, []int{3}, variable.TypeInfo.Dims)

	arr, ok := variable.Assignment.Expression.Leaf.(*ast.Array)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 3)
}

func TestArrayElementTypeMismatch(t *testing.T) {
	berr := parseErr(t, `var xs: int[2] = {1, 2.5};`)
	assert.Equal(t, "Array elements must have the same type", berr.Message)
}

func TestMultiReturnTypeChain(t *testing.T) {
	prog := parse(t, `func pair(): (int, float) { var x: int = 1; }`)
	fn := prog.Statements[0].(*ast.Function)

	require.NotNil(t, fn.TypeInfo.Next)
	assert.Equal(t, ast.TypeInt, fn.TypeInfo.Type)
	assert.Equal(t, ast.TypeFloat, fn.TypeInfo.Next.Type)
}

func TestTriviaIsSkipped(t *testing.T) {
	parse(t, "# leading comment\nvar x: int = 1; # trailing comment\n")
}

func TestUnrecognizedCharacterIsLexError(t *testing.T) {
	berr := parseErr(t, `var x: int = @;`)
	assert.Equal(t, `Unrecognized character "@"`, berr.Message)
	assert.True(t, berr.Lex)
	assert.Contains(t, berr.Error(), "Lexer Error <1:14>")
}

func TestNomatchStatementIsLexError(t *testing.T) {
	berr := parseErr(t, `@`)
	assert.Equal(t, `Unrecognized character "@"`, berr.Message)
	assert.True(t, berr.Lex)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	berr := parseErr(t, `var x: int = "abc`)
	assert.Equal(t, "Unterminated string", berr.Message)
	assert.True(t, berr.Lex)
	assert.Contains(t, berr.Error(), "Lexer Error <1:14>")
}

func TestSyntaxErrorIsNotLex(t *testing.T) {
	berr := parseErr(t, `var y: int = z;`)
	assert.False(t, berr.Lex)
	assert.Contains(t, berr.Error(), "Syntax Error <1:")
}

// Every expression type must be fully resolved once parsing succeeds.
func TestTypeDeterminism(t *testing.T) {
	prog := parse(t, `
		var g: int = 3;
		func scale(n: int, factor: int): int {
			var acc: int = n;
			while (acc < 100) {
				acc = acc * factor + g;
			}
			return acc;
		}
	`)

	var walkExpr func(e *ast.Expression)
	walkExpr = func(e *ast.Expression) {
		if e == nil {
			return
		}
		require.NotNil(t, e.TypeInfo)
		assert.NotEqual(t, ast.TypeInfer, e.TypeInfo.Type)
		walkExpr(e.Left)
		walkExpr(e.Right)
		if call, ok := e.Leaf.(*ast.Call); ok {
			for _, arg := range call.Args {
				walkExpr(arg)
			}
		}
	}

	var walkStmt func(n ast.Node)
	walkBlock := func(b *ast.Block) {
		for _, stmt := range b.Statements {
			walkStmt(stmt)
		}
	}
	walkStmt = func(n ast.Node) {
		switch stmt := n.(type) {
		case *ast.Variable:
			assert.NotEqual(t, ast.TypeInfer, stmt.TypeInfo.Type)
			if stmt.Assignment != nil {
				walkExpr(stmt.Assignment.Expression)
			}
		case *ast.Assignment:
			walkExpr(stmt.Expression)
		case *ast.Function:
			assert.NotEqual(t, ast.TypeInfer, stmt.TypeInfo.Type)
			walkBlock(stmt.Body)
		case *ast.While:
			walkExpr(stmt.Condition)
			walkBlock(stmt.Body)
		case *ast.If:
			for _, branch := range stmt.Branches {
				walkExpr(branch.Condition)
				walkBlock(branch.Body)
			}
		case *ast.Return:
			walkExpr(stmt.Expression)
		}
	}

	for _, stmt := range prog.Statements {
		walkStmt(stmt)
	}
}
