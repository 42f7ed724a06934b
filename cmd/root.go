// Package cmd provides the command-line interface of the interviewer API.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"interviewer/bootstrap"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// DefaultEnvFile is the dotenv file read when --env-file is not given
const DefaultEnvFile = ".env"

// ExitError ends a command with a specific process exit code. The command
// has already reported the failure by the time it is returned.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

type rootOptions struct {
	envFile string
	noColor bool
	environ func() []string

	// appOptions are passed to bootstrap.NewApp by serve
	appOptions []bootstrap.Option
}

// NewRootCmd creates the interviewer command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{environ: os.Environ})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "interviewer",
		Short: "Interviewer API server",
		Long: `Interviewer API server.

Configuration is read from the environment, optionally seeded from a dotenv file.
Values already present in the process environment take precedence over the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", DefaultEnvFile, "Dotenv file loaded before the process environment")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

// Execute runs the CLI with args and returns the process exit code
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, NewRootCmd(), args)
}

func execute(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return bootstrap.ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return bootstrap.ExitFailure
}

func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
