// Package codegen lowers the typed AST to LLVM IR through the LLVM-C
// bindings, verifies the module and emits a native object file. It mirrors
// the parser's lexical scopes with its own scope stack whose payloads carry
// LLVM handles instead of type information.
package codegen

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"tinygo.org/x/go-llvm"

	"github.com/tron-lang/tron/internal/scope"
	"github.com/tron-lang/tron/pkg/ast"
)

// scopeInfo is the codegen-side per-scope metadata: the enclosing LLVM
// function, the branch targets of the enclosing loop, and the pending
// interrupt target set by break/continue and consumed at block end.
type scopeInfo struct {
	function      llvm.Value
	functionType  llvm.Type
	breakBlock    llvm.BasicBlock
	continueBlock llvm.BasicBlock
	interrupt     llvm.BasicBlock
}

// symbolInfo is the codegen-side symbol payload: the LLVM type of the
// storage (or the function type) and the value holding it.
type symbolInfo struct {
	typ   llvm.Type
	value llvm.Value
}

// Codegen owns the LLVM context, module and builder for one compilation.
// A Codegen lowers exactly one AST and is then disposed.
type Codegen struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder
	scope   *scope.Scope
	logger  hclog.Logger
}

// New creates a Codegen with an empty module and the built-in external
// functions registered in the root scope.
func New(moduleName string, logger hclog.Logger) *Codegen {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Codegen{
		ctx:    llvm.NewContext(),
		logger: logger,
	}
	c.module = c.ctx.NewModule(moduleName)
	c.builder = c.ctx.NewBuilder()
	c.scope = scope.Push(nil, scope.ScopeRoot, &scopeInfo{})

	c.declareBuiltins()
	return c
}

// declareBuiltins registers the runtime-provided functions as external
// declarations.
func (c *Codegen) declareBuiltins() {
	i32 := c.ctx.Int32Type()
	printIntType := llvm.FunctionType(i32, []llvm.Type{i32}, false)
	printInt := llvm.AddFunction(c.module, "print_int", printIntType)
	c.scope.Insert(scope.SymbolFunction, "print_int", &symbolInfo{typ: printIntType, value: printInt})
}

// Dispose releases the LLVM resources in reverse acquisition order.
func (c *Codegen) Dispose() {
	c.builder.Dispose()
	c.module.Dispose()
	c.ctx.Dispose()
}

// IR returns the textual LLVM IR of the module.
func (c *Codegen) IR() string {
	return c.module.String()
}

// Lower walks the top-level statements and emits IR for each.
func (c *Codegen) Lower(prog *ast.Program) error {
	c.logger.Debug("lowering program", "statements", len(prog.Statements))
	for _, stmt := range prog.Statements {
		if _, err := c.lowerStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Verify runs the LLVM module verifier; any front-end accepted program
// must produce a clean module.
func (c *Codegen) Verify() error {
	if err := llvm.VerifyModule(c.module, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("module verification failed: %w", err)
	}
	return nil
}

// llvmType maps a resolved TypeInfo to an LLVM type. Only scalar int and
// float values can be lowered.
func (c *Codegen) llvmType(ti *ast.TypeInfo) (llvm.Type, error) {
	if ti == nil {
		return llvm.Type{}, fmt.Errorf("missing type information")
	}
	if ti.Next != nil {
		return llvm.Type{}, fmt.Errorf("multi-value returns are not supported")
	}
	if ti.IsArray() {
		return llvm.Type{}, fmt.Errorf("array types are not supported")
	}
	switch ti.Type {
	case ast.TypeInt:
		return c.ctx.Int32Type(), nil
	case ast.TypeFloat:
		return c.ctx.FloatType(), nil
	default:
		return llvm.Type{}, fmt.Errorf("unsupported type %s", ti)
	}
}

// enclosingFunctionInfo returns the metadata of the nearest function
// scope, or the root metadata at the top level.
func (c *Codegen) enclosingFunctionInfo() *scopeInfo {
	if info, ok := c.scope.FindEnclosingInfo(scope.ScopeFunction).(*scopeInfo); ok {
		return info
	}
	return c.scope.FindEnclosingInfo(scope.ScopeRoot).(*scopeInfo)
}

func isTerminator(v llvm.Value) bool {
	switch v.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Invoke, llvm.Unreachable:
		return true
	}
	return false
}
