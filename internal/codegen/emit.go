package codegen

import (
	"fmt"
	"io"
	"os"

	"tinygo.org/x/go-llvm"

	"github.com/tron-lang/tron/pkg/ast"
)

// Options configures object file emission.
type Options struct {
	// Triple selects the target; empty means the host default.
	Triple string
	// CPU and Features tune the target machine; empty means defaults.
	CPU      string
	Features string
	// EmitIR, when set, receives the textual IR of the verified module.
	EmitIR io.Writer
}

// Compile runs the full lowering pipeline: emit IR for the program, verify
// the module, then write a native object file to path. On any failure no
// object file is written.
func (c *Codegen) Compile(prog *ast.Program, path string, opts Options) error {
	if err := c.Lower(prog); err != nil {
		return err
	}
	if err := c.Verify(); err != nil {
		return err
	}
	if opts.EmitIR != nil {
		fmt.Fprintln(opts.EmitIR, c.IR())
	}
	return c.EmitObject(path, opts)
}

// EmitObject configures a target machine and writes the module as a native
// object file.
func (c *Codegen) EmitObject(path string, opts Options) error {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	triple := opts.Triple
	if triple == "" {
		triple = llvm.DefaultTargetTriple()
	}
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("cannot create target for %q: %w", triple, err)
	}

	c.logger.Debug("creating target machine", "triple", triple, "cpu", opts.CPU, "features", opts.Features)

	machine := target.CreateTargetMachine(triple, opts.CPU, opts.Features,
		llvm.CodeGenLevelDefault,
		llvm.RelocDefault,
		llvm.CodeModelDefault)
	defer machine.Dispose()

	data := machine.CreateTargetData()
	defer data.Dispose()
	c.module.SetDataLayout(data.String())
	c.module.SetTarget(triple)

	buf, err := machine.EmitToMemoryBuffer(c.module, llvm.ObjectFile)
	if err != nil {
		return fmt.Errorf("cannot emit object code: %w", err)
	}
	defer buf.Dispose()

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cannot write object file: %w", err)
	}

	c.logger.Debug("object file written", "path", path, "bytes", len(buf.Bytes()))
	return nil
}

// LowerAndVerify is the test-friendly front half of Compile: lower the
// program and run the verifier without touching a target machine.
func (c *Codegen) LowerAndVerify(prog *ast.Program) error {
	if err := c.Lower(prog); err != nil {
		return err
	}
	return c.Verify()
}
