package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Michael-F-Bryan/protodef/internal/compiler"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Profile string
}

// CheckData is the JSON payload of a check run.
type CheckData struct {
	Types    int `json:"types"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <spec-file>",
		Short: "Validate a protocol spec without emitting output",
		Long: `Run the full compilation pipeline over a protocol spec and report
every diagnostic, without producing codec declarations.

Validation never stops at the first problem: independent types are checked
regardless of failures elsewhere, so one run reports everything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "TOML primitive profile extending the built-in table")

	return cmd
}

func runCheck(opts *CheckOptions, specPath string, cmd *cobra.Command) error {
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

	errorCount := ds.ErrorCount()
	warningCount := ds.Len() - errorCount

	if ds.HasErrors() {
		_ = formatter.Failed(ds.All(), errorCount)
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d error(s)", errorCount))
	}

	if formatter.Format == "json" {
		return formatter.Success(&CheckData{
			Types:    len(unit.Decls),
			Errors:   errorCount,
			Warnings: warningCount,
		}, ds.All())
	}

	formatter.printDiagnostics(ds.All())
	fmt.Fprintf(formatter.Writer, "✓ %d type(s), %d warning(s), no errors\n", len(unit.Decls), warningCount)
	return nil
}
