package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/tron-lang/tron/internal/codegen"
	"github.com/tron-lang/tron/internal/lexer"
	"github.com/tron-lang/tron/pkg/parser"
	"github.com/tron-lang/tron/pkg/version"
)

// Version information (set during build via ldflags, or detected from
// build info)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	outputFile  string
	emitIR      bool
	triple      string
	cpu         string
	features    string
	logLevel    string
	prettyPrint bool
	withTrivia  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tron",
		Short: "tron: an ahead-of-time compiler for the tron language",
		Long: `Tron is a small ahead-of-time compiler. It parses a single source
file into a typed AST, lowers it to LLVM IR, verifies the module and
emits a native object file.`,
		Version:       version.Resolve(Version, GitCommit, BuildTime).String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	compileCmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file to a native object file",
		Long: `Compile a tron source file to a native object file. Lexical,
syntactic and semantic errors are printed to stderr with their source
position; on any error no output file is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompile,
	}
	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "out.o", "Output object file path")
	compileCmd.Flags().BoolVar(&emitIR, "emit-ir", false, "Print the LLVM IR of the module to stdout")
	compileCmd.Flags().StringVar(&triple, "triple", "", "Target triple (default: host)")
	compileCmd.Flags().StringVar(&cpu, "cpu", "", "Target CPU (default: generic)")
	compileCmd.Flags().StringVar(&features, "features", "", "Target feature string")

	parseCmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a source file and output the typed AST as JSON",
		Long: `Parse a tron source file and print the typed Abstract Syntax Tree
as JSON. If no file is specified or '-' is given, reads from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}
	parseCmd.Flags().BoolVarP(&prettyPrint, "pretty", "p", true, "Pretty print JSON output")

	tokensCmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Dump the token stream of a source file",
		Long: `Scan a tron source file and print one token per line with its kind,
lexeme and source position. If no file is specified or '-' is given,
reads from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTokens,
	}
	tokensCmd.Flags().BoolVar(&withTrivia, "trivia", false, "Include whitespace and comment tokens")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(tokensCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "tron",
		Level:  hclog.LevelFromString(logLevel),
		Output: os.Stderr,
	})
}

func runCompile(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	logger.Debug("parsing", "input", args[0])
	prog, err := parser.ParseReader(file)
	if err != nil {
		return builderError(err)
	}

	cg := codegen.New(args[0], logger)
	defer cg.Dispose()

	opts := codegen.Options{
		Triple:   triple,
		CPU:      cpu,
		Features: features,
	}
	if emitIR {
		opts.EmitIR = os.Stdout
	}

	logger.Debug("compiling", "output", outputFile)
	if err := cg.Compile(prog, outputFile, opts); err != nil {
		return err
	}
	return nil
}

// builderError restores the positional diagnostic prefix on the first
// error: "Lexer Error" for scanner failures, "Syntax Error" otherwise.
func builderError(err error) error {
	var perr *parser.ParserError
	if errors.As(err, &perr) && len(perr.Errors) > 0 {
		first := perr.Errors[0]
		prefix := "Syntax Error"
		if first.Lex {
			prefix = "Lexer Error"
		}
		return fmt.Errorf("%s <%d:%d> %s", prefix, first.Line, first.Column, first.Message)
	}
	return err
}

func runParse(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	prog, err := parser.Parse(input)
	if err != nil {
		return builderError(err)
	}

	var output []byte
	if prettyPrint {
		output, err = json.MarshalIndent(prog, "", "  ")
	} else {
		output, err = json.Marshal(prog)
	}
	if err != nil {
		return fmt.Errorf("JSON encoding error: %w", err)
	}

	fmt.Println(string(output))
	return nil
}

func runTokens(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	for _, tok := range lexer.New(input).Tokenize() {
		if lexer.IsTrivia(tok.Type) && !withTrivia {
			continue
		}
		if tok.Scalar != lexer.ScalarNone {
			fmt.Printf("%d:%d\t%s\t%q\t%s\n", tok.Line, tok.Column, tok.Type, tok.Value, tok.Scalar)
			continue
		}
		fmt.Printf("%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Type, tok.Value)
	}
	return nil
}

func readInput(args []string) (string, error) {
	var reader io.Reader

	if len(args) == 0 || args[0] == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("cannot open file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("cannot read input: %w", err)
	}
	return string(content), nil
}
