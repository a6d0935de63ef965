package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/pkg/ast"
)

// lowerExpression emits IR for an expression tree and returns its value.
func (c *Codegen) lowerExpression(e *ast.Expression) (llvm.Value, error) {
	if e.Left != nil && e.Right != nil {
		return c.lowerBinary(e)
	}
	if e.Left != nil {
		return c.lowerUnary(e)
	}
	return c.lowerLeaf(e)
}

// lowerBinary emits the instruction for a binary operator, switching on
// the operand type for the arithmetic and comparison families.
func (c *Codegen) lowerBinary(e *ast.Expression) (llvm.Value, error) {
	left, err := c.lowerExpression(e.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	right, err := c.lowerExpression(e.Right)
	if err != nil {
		return llvm.Value{}, err
	}

	isFloat := e.Left.TypeInfo != nil && e.Left.TypeInfo.Type == ast.TypeFloat

	if isFloat {
		switch e.Op() {
		case lexer.ADD:
			return c.builder.CreateFAdd(left, right, "fadd"), nil
		case lexer.SUB:
			return c.builder.CreateFSub(left, right, "fsub"), nil
		case lexer.MUL:
			return c.builder.CreateFMul(left, right, "fmul"), nil
		case lexer.DIV:
			return c.builder.CreateFDiv(left, right, "fdiv"), nil
		case lexer.REM:
			return c.builder.CreateFRem(left, right, "frem"), nil
		case lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
			return c.lowerFloatComparison(e.Op(), left, right)
		default:
			return llvm.Value{}, fmt.Errorf("operator %q is not defined for float operands", e.Token.Value)
		}
	}

	switch e.Op() {
	case lexer.ADD:
		return c.builder.CreateAdd(left, right, "add"), nil
	case lexer.SUB:
		return c.builder.CreateSub(left, right, "sub"), nil
	case lexer.MUL:
		return c.builder.CreateMul(left, right, "mul"), nil
	case lexer.DIV:
		return c.builder.CreateSDiv(left, right, "sdiv"), nil
	case lexer.REM:
		return c.builder.CreateSRem(left, right, "srem"), nil
	case lexer.SHL:
		return c.builder.CreateShl(left, right, "shl"), nil
	case lexer.SHR:
		return c.builder.CreateLShr(left, right, "lshr"), nil
	case lexer.AND:
		return c.builder.CreateAnd(left, right, "and"), nil
	case lexer.OR:
		return c.builder.CreateOr(left, right, "or"), nil
	case lexer.XOR:
		return c.builder.CreateXor(left, right, "xor"), nil
	case lexer.AND_NOT:
		return c.builder.CreateAnd(left, c.builder.CreateNot(right, "not"), "andnot"), nil
	case lexer.LOGICAL_AND:
		return c.builder.CreateAnd(left, right, "and"), nil
	case lexer.LOGICAL_OR:
		return c.builder.CreateOr(left, right, "or"), nil
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return c.lowerIntComparison(e.Op(), left, right)
	default:
		return llvm.Value{}, fmt.Errorf("invalid binary operator %q", e.Token.Value)
	}
}

// Comparisons produce an i1 which widens back to i32, the language's
// boolean carrier.
func (c *Codegen) lowerIntComparison(op lexer.TokenType, left, right llvm.Value) (llvm.Value, error) {
	var pred llvm.IntPredicate
	switch op {
	case lexer.EQ:
		pred = llvm.IntEQ
	case lexer.NEQ:
		pred = llvm.IntNE
	case lexer.LT:
		pred = llvm.IntSLT
	case lexer.LTE:
		pred = llvm.IntSLE
	case lexer.GT:
		pred = llvm.IntSGT
	case lexer.GTE:
		pred = llvm.IntSGE
	}
	cmp := c.builder.CreateICmp(pred, left, right, "icmp")
	return c.builder.CreateZExt(cmp, c.ctx.Int32Type(), "zext"), nil
}

func (c *Codegen) lowerFloatComparison(op lexer.TokenType, left, right llvm.Value) (llvm.Value, error) {
	var pred llvm.FloatPredicate
	switch op {
	case lexer.EQ:
		pred = llvm.FloatOEQ
	case lexer.NEQ:
		pred = llvm.FloatONE
	case lexer.LT:
		pred = llvm.FloatOLT
	case lexer.LTE:
		pred = llvm.FloatOLE
	case lexer.GT:
		pred = llvm.FloatOGT
	case lexer.GTE:
		pred = llvm.FloatOGE
	}
	cmp := c.builder.CreateFCmp(pred, left, right, "fcmp")
	return c.builder.CreateZExt(cmp, c.ctx.Int32Type(), "zext"), nil
}

// lowerUnary emits the prefix operators - ! ^ and the postfix increment
// and decrement forms, which synthesize an add or sub with a constant one.
func (c *Codegen) lowerUnary(e *ast.Expression) (llvm.Value, error) {
	operand, err := c.lowerExpression(e.Left)
	if err != nil {
		return llvm.Value{}, err
	}

	isFloat := e.Left.TypeInfo != nil && e.Left.TypeInfo.Type == ast.TypeFloat

	switch e.Op() {
	case lexer.SUB:
		if isFloat {
			return c.builder.CreateFNeg(operand, "fneg"), nil
		}
		return c.builder.CreateNeg(operand, "neg"), nil
	case lexer.NOT:
		if isFloat {
			return llvm.Value{}, fmt.Errorf("operator %q is not defined for float operands", e.Token.Value)
		}
		zero := llvm.ConstNull(operand.Type())
		cmp := c.builder.CreateICmp(llvm.IntEQ, operand, zero, "icmp")
		return c.builder.CreateZExt(cmp, c.ctx.Int32Type(), "zext"), nil
	case lexer.XOR:
		if isFloat {
			return llvm.Value{}, fmt.Errorf("operator %q is not defined for float operands", e.Token.Value)
		}
		return c.builder.CreateNot(operand, "not"), nil
	case lexer.INC:
		if isFloat {
			return c.builder.CreateFAdd(operand, llvm.ConstFloat(c.ctx.FloatType(), 1), "fadd"), nil
		}
		return c.builder.CreateAdd(operand, llvm.ConstInt(c.ctx.Int32Type(), 1, false), "add"), nil
	case lexer.DEC:
		if isFloat {
			return c.builder.CreateFSub(operand, llvm.ConstFloat(c.ctx.FloatType(), 1), "fsub"), nil
		}
		return c.builder.CreateSub(operand, llvm.ConstInt(c.ctx.Int32Type(), 1, false), "sub"), nil
	default:
		return llvm.Value{}, fmt.Errorf("invalid unary operator %q", e.Token.Value)
	}
}

// lowerLeaf emits a primary expression: a literal constant, a load from a
// named symbol, or a call.
func (c *Codegen) lowerLeaf(e *ast.Expression) (llvm.Value, error) {
	switch leaf := e.Leaf.(type) {
	case *ast.Integer:
		return llvm.ConstInt(c.ctx.Int32Type(), uint64(leaf.Value), true), nil
	case *ast.Float:
		return llvm.ConstFloat(c.ctx.FloatType(), leaf.Value), nil
	case *ast.Name:
		sym := c.scope.Lookup(leaf.Value)
		if sym == nil {
			return llvm.Value{}, fmt.Errorf("symbol %q not found", leaf.Value)
		}
		si := sym.Info.(*symbolInfo)
		return c.builder.CreateLoad(si.typ, si.value, leaf.Value), nil
	case *ast.Call:
		return c.lowerCall(leaf)
	case *ast.Array:
		return llvm.Value{}, fmt.Errorf("array values are not supported")
	default:
		return llvm.Value{}, fmt.Errorf("unsupported leaf node %s", e.Leaf.GetType())
	}
}

// lowerCall resolves the callee, lowers the argument list in order and
// emits the call.
func (c *Codegen) lowerCall(call *ast.Call) (llvm.Value, error) {
	sym := c.scope.Lookup(call.Name)
	if sym == nil {
		return llvm.Value{}, fmt.Errorf("function %q not found", call.Name)
	}
	si := sym.Info.(*symbolInfo)

	params := si.typ.ParamTypes()
	if len(call.Args) != len(params) {
		return llvm.Value{}, fmt.Errorf("function %q expects %d arguments, got %d",
			call.Name, len(params), len(call.Args))
	}

	args := make([]llvm.Value, len(call.Args))
	for i, arg := range call.Args {
		value, err := c.lowerExpression(arg)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = value
	}

	return c.builder.CreateCall(si.typ, si.value, args, call.Name), nil
}

// lowerCondition materializes an expression as an i1 for a conditional
// branch: any non-zero value is true.
func (c *Codegen) lowerCondition(e *ast.Expression) (llvm.Value, error) {
	value, err := c.lowerExpression(e)
	if err != nil {
		return llvm.Value{}, err
	}
	if value.Type().TypeKind() == llvm.IntegerTypeKind && value.Type().IntTypeWidth() == 1 {
		return value, nil
	}
	if e.TypeInfo != nil && e.TypeInfo.Type == ast.TypeFloat {
		zero := llvm.ConstFloat(c.ctx.FloatType(), 0)
		return c.builder.CreateFCmp(llvm.FloatONE, value, zero, "fcmp"), nil
	}
	zero := llvm.ConstNull(value.Type())
	return c.builder.CreateICmp(llvm.IntNE, value, zero, "icmp"), nil
}
