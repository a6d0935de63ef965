package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/tron-lang/tron/internal/scope"
	"github.com/tron-lang/tron/pkg/ast"
)

// lowerStatement dispatches one statement node. The returned flag reports
// whether the statement terminated the current basic block with a ret.
func (c *Codegen) lowerStatement(n ast.Node) (bool, error) {
	switch stmt := n.(type) {
	case *ast.Variable:
		return false, c.lowerVariable(stmt)
	case *ast.Assignment:
		return false, c.lowerAssignment(stmt)
	case *ast.Call:
		// Call as a statement: the value is discarded.
		if c.enclosingFunctionInfo().function.IsNil() {
			return false, fmt.Errorf("function calls are not supported at the top level")
		}
		_, err := c.lowerCall(stmt)
		return false, err
	case *ast.Function:
		return false, c.lowerFunction(stmt)
	case *ast.If:
		return c.lowerIf(stmt)
	case *ast.While:
		return false, c.lowerWhile(stmt)
	case *ast.Return:
		return true, c.lowerReturn(stmt)
	case *ast.Break:
		return false, c.lowerInterrupt(true)
	case *ast.Continue:
		return false, c.lowerInterrupt(false)
	default:
		return false, fmt.Errorf("unexpected node type %s", n.GetType())
	}
}

// lowerBlock lowers a statement sequence in a fresh scope. Statements after
// a ret or a pending interrupt are skipped; a pending interrupt is consumed
// by branching to its target when the block ends.
func (c *Codegen) lowerBlock(block *ast.Block, kind scope.ScopeKind, info *scopeInfo) (bool, error) {
	c.scope = scope.Push(c.scope, kind, info)
	defer func() { c.scope = c.scope.Pop() }()

	for _, stmt := range block.Statements {
		terminated, err := c.lowerStatement(stmt)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
		if !info.interrupt.IsNil() {
			c.builder.CreateBr(info.interrupt)
			return true, nil
		}
	}
	return false, nil
}

// lowerVariable emits storage for a declaration: an alloca in the entry
// block of the enclosing function, or a zero-initialized external global
// at the top level.
func (c *Codegen) lowerVariable(v *ast.Variable) error {
	typ, err := c.llvmType(v.TypeInfo)
	if err != nil {
		return err
	}

	info := c.enclosingFunctionInfo()

	var value llvm.Value
	if !info.function.IsNil() {
		// Allocas belong in the entry block; reposition the builder there
		// (before its terminator, if it already has one) and restore it.
		entry := info.function.EntryBasicBlock()
		current := c.builder.GetInsertBlock()
		if last := entry.LastInstruction(); !last.IsNil() && isTerminator(last) {
			c.builder.SetInsertPointBefore(last)
		} else {
			c.builder.SetInsertPointAtEnd(entry)
		}
		value = c.builder.CreateAlloca(typ, v.Name)
		c.builder.SetInsertPointAtEnd(current)
	} else {
		value = llvm.AddGlobal(c.module, typ, v.Name)
		value.SetLinkage(llvm.ExternalLinkage)
		value.SetInitializer(llvm.ConstNull(typ))
	}

	if c.scope.Insert(scope.SymbolVariable, v.Name, &symbolInfo{typ: typ, value: value}) == nil {
		return fmt.Errorf("symbol %q already defined", v.Name)
	}

	if v.Assignment != nil {
		return c.lowerAssignment(v.Assignment)
	}
	return nil
}

// lowerAssignment stores an expression value into a named target. Global
// targets only accept constant expressions, which become the global's
// initializer.
func (c *Codegen) lowerAssignment(a *ast.Assignment) error {
	sym := c.scope.Lookup(a.Name)
	if sym == nil {
		return fmt.Errorf("symbol %q not found", a.Name)
	}
	si := sym.Info.(*symbolInfo)

	isGlobal := !si.value.IsAGlobalVariable().IsNil()
	if isGlobal && c.enclosingFunctionInfo().function.IsNil() {
		// No insertion point exists at the top level, so reject
		// non-constant initializers before touching the builder.
		if !isConstantExpression(a.Expression) {
			return fmt.Errorf("global variables must be initialized with a constant expression")
		}
	}

	value, err := c.lowerExpression(a.Expression)
	if err != nil {
		return err
	}

	if isGlobal {
		if !value.IsConstant() {
			return fmt.Errorf("global variables must be initialized with a constant expression")
		}
		si.value.SetInitializer(value)
		return nil
	}

	c.builder.CreateStore(value, si.value)
	return nil
}

// isConstantExpression reports whether an expression tree reduces to a
// constant: literals combined with operators, no loads, no calls.
func isConstantExpression(e *ast.Expression) bool {
	if e == nil {
		return false
	}
	if e.Left != nil {
		if !isConstantExpression(e.Left) {
			return false
		}
		if e.Right != nil && !isConstantExpression(e.Right) {
			return false
		}
		return true
	}
	switch e.Leaf.(type) {
	case *ast.Integer, *ast.Float:
		return true
	}
	return false
}

// lowerFunction emits a function definition: header, entry block, argument
// allocas, body, and a default return when the body falls through.
func (c *Codegen) lowerFunction(fn *ast.Function) error {
	retInfo := fn.TypeInfo
	if retInfo.Type == ast.TypeInfer && !retInfo.IsArray() && retInfo.Next == nil {
		// A function whose return type was never resolved returns int 0.
		retInfo = ast.NewTypeInfo(ast.TypeInt)
	}
	retType, err := c.llvmType(retInfo)
	if err != nil {
		return err
	}

	paramTypes := make([]llvm.Type, len(fn.Params))
	for i, param := range fn.Params {
		if paramTypes[i], err = c.llvmType(param.TypeInfo); err != nil {
			return err
		}
	}

	funcType := llvm.FunctionType(retType, paramTypes, false)
	function := llvm.AddFunction(c.module, fn.Name, funcType)
	for i, param := range function.Params() {
		param.SetName(fn.Params[i].Name)
	}

	if c.scope.Insert(scope.SymbolFunction, fn.Name, &symbolInfo{typ: funcType, value: function}) == nil {
		return fmt.Errorf("symbol %q already defined", fn.Name)
	}

	c.logger.Debug("lowering function", "name", fn.Name, "params", len(fn.Params))

	entry := c.ctx.AddBasicBlock(function, "entry")
	c.builder.SetInsertPointAtEnd(entry)

	info := &scopeInfo{function: function, functionType: funcType}
	c.scope = scope.Push(c.scope, scope.ScopeFunction, info)
	defer func() { c.scope = c.scope.Pop() }()

	// Arguments live in allocas so the body can address them uniformly.
	for i, param := range function.Params() {
		alloca := c.builder.CreateAlloca(paramTypes[i], fn.Params[i].Name)
		c.builder.CreateStore(param, alloca)
		if c.scope.Insert(scope.SymbolArg, fn.Params[i].Name, &symbolInfo{typ: paramTypes[i], value: alloca}) == nil {
			return fmt.Errorf("symbol %q already defined", fn.Params[i].Name)
		}
	}

	terminated := false
	for _, stmt := range fn.Body.Statements {
		if terminated, err = c.lowerStatement(stmt); err != nil {
			return err
		}
		if terminated {
			break
		}
	}
	if !terminated {
		c.builder.CreateRet(llvm.ConstNull(retType))
	}
	return nil
}

// lowerIf wires an if/else chain: one check and one body block per branch,
// all converging on a shared exit block.
func (c *Codegen) lowerIf(n *ast.If) (bool, error) {
	info := c.enclosingFunctionInfo()
	function := info.function
	if function.IsNil() {
		return false, fmt.Errorf("if statement outside of a function")
	}

	exit := c.ctx.AddBasicBlock(function, "if_exit")
	check := c.ctx.AddBasicBlock(function, "if_check")
	c.builder.CreateBr(check)

	for i, branch := range n.Branches {
		c.builder.SetInsertPointAtEnd(check)

		next := exit
		if i < len(n.Branches)-1 {
			next = c.ctx.AddBasicBlock(function, "if_check")
		}
		body := c.ctx.AddBasicBlock(function, "if_body")

		if branch.Condition != nil {
			cond, err := c.lowerCondition(branch.Condition)
			if err != nil {
				return false, err
			}
			c.builder.CreateCondBr(cond, body, next)
		} else {
			c.builder.CreateBr(body)
		}

		c.builder.SetInsertPointAtEnd(body)
		branchInfo := &scopeInfo{function: function, functionType: info.functionType}
		terminated, err := c.lowerBlock(branch.Body, scope.ScopeIf, branchInfo)
		if err != nil {
			return false, err
		}
		if !terminated {
			c.builder.CreateBr(exit)
		}

		check = next
	}

	c.builder.SetInsertPointAtEnd(exit)
	return false, nil
}

// lowerWhile wires a loop: check, body and exit blocks, with the body
// scope carrying the break and continue targets.
func (c *Codegen) lowerWhile(n *ast.While) error {
	info := c.enclosingFunctionInfo()
	function := info.function
	if function.IsNil() {
		return fmt.Errorf("while statement outside of a function")
	}

	check := c.ctx.AddBasicBlock(function, "while_check")
	body := c.ctx.AddBasicBlock(function, "while_body")
	exit := c.ctx.AddBasicBlock(function, "while_exit")

	c.builder.CreateBr(check)

	c.builder.SetInsertPointAtEnd(check)
	cond, err := c.lowerCondition(n.Condition)
	if err != nil {
		return err
	}
	c.builder.CreateCondBr(cond, body, exit)

	c.builder.SetInsertPointAtEnd(body)
	loopInfo := &scopeInfo{
		function:      function,
		functionType:  info.functionType,
		breakBlock:    exit,
		continueBlock: check,
	}
	terminated, err := c.lowerBlock(n.Body, scope.ScopeWhile, loopInfo)
	if err != nil {
		return err
	}
	if !terminated {
		c.builder.CreateBr(check)
	}

	c.builder.SetInsertPointAtEnd(exit)
	return nil
}

// lowerReturn emits ret with the lowered expression, or a zero value when
// the return carries none.
func (c *Codegen) lowerReturn(n *ast.Return) error {
	info := c.enclosingFunctionInfo()
	if info.function.IsNil() {
		return fmt.Errorf("return outside of a function")
	}

	if n.Expression == nil {
		c.builder.CreateRet(llvm.ConstNull(info.functionType.ReturnType()))
		return nil
	}

	value, err := c.lowerExpression(n.Expression)
	if err != nil {
		return err
	}
	c.builder.CreateRet(value)
	return nil
}

// lowerInterrupt records a pending branch to the enclosing loop's break or
// continue target on the current scope; the block walker consumes it.
func (c *Codegen) lowerInterrupt(isBreak bool) error {
	loopInfo, ok := c.scope.FindEnclosingInfo(scope.ScopeWhile).(*scopeInfo)
	if !ok {
		if isBreak {
			return fmt.Errorf("break outside of a loop")
		}
		return fmt.Errorf("continue outside of a loop")
	}

	current := c.scope.Info.(*scopeInfo)
	if isBreak {
		current.interrupt = loopInfo.breakBlock
	} else {
		current.interrupt = loopInfo.continueBlock
	}
	return nil
}
