package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Michael-F-Bryan/protodef/internal/codegen"
	"github.com/Michael-F-Bryan/protodef/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string // output file path
	Profile string // TOML primitive profile path
}

// CompileData is the JSON payload of a successful compile.
type CompileData struct {
	Decls     []string `json:"decls"`
	Rendering string   `json:"rendering"`
	Output    string   `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <spec-file>",
		Short: "Compile a protocol spec to codec declarations",
		Long: `Compile a protocol spec (JSON or YAML) into its canonical codec
declarations.

The compiler parses the spec tree, resolves type references, detects
illegal cycles and lowers every resolvable type into a declaration with
paired encode/decode procedures. Identical input always produces
byte-identical output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "TOML primitive profile extending the built-in table")

	return cmd
}

func runCompile(opts *CompileOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	profile, err := LoadProfile(opts.Profile)
	if err != nil {
		return commandError(formatter, err)
	}
	doc, err := LoadSpec(specPath)
	if err != nil {
		return commandError(formatter, err)
	}

	unit, ds := compiler.Compile(doc, compiler.Options{
		Profile: profile,
		Logger:  opts.Logger(),
	})

	if ds.HasErrors() {
		_ = formatter.Failed(ds.All(), ds.ErrorCount())
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", ds.ErrorCount()))
	}

	rendering := codegen.Render(unit)
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, rendering, 0644); err != nil {
			msg := fmt.Sprintf("writing output file: %v", err)
			_ = formatter.Error(ErrCodeWriteFailed, msg)
			return NewExitError(ExitCommandError, msg)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(&CompileData{
			Decls:     declNames(unit),
			Rendering: string(rendering),
			Output:    opts.Output,
		}, ds.All())
	}

	// Warnings go to stderr so stdout carries only the compiled output.
	formatter.printDiagnostics(ds.All())
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ compiled %d declaration(s) to %s\n", len(unit.Decls), opts.Output)
		return nil
	}
	_, werr := formatter.Writer.Write(rendering)
	return werr
}

// commandError reports an input-level failure and maps it to exit code 2.
func commandError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message)
		return WrapExitError(ExitCommandError, loadErr.Message, err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error())
	return WrapExitError(ExitCommandError, err.Error(), err)
}

func declNames(unit *codegen.CompilationUnit) []string {
	names := make([]string, len(unit.Decls))
	for i, d := range unit.Decls {
		names[i] = d.Name
	}
	return names
}
