package cmd

import (
	"fmt"
	"sort"
	"strings"

	"interviewer/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	configCmd.AddCommand(newConfigCheckCmd(opts))
	return configCmd
}

type checkResult struct {
	Valid    bool                `json:"valid"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Settings []config.Setting    `json:"settings,omitempty"`
}

func newConfigCheckCmd(opts *rootOptions) *cobra.Command {
	var outputJSON bool

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the environment without starting the server",
		Long: `Validate the environment exactly as serve would and print the effective settings.
Credentials in connection URLs are masked. Exits 1 when the configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.LoadFile(opts.envFile, opts.environ())
			if err != nil {
				fieldErrors := map[string][]string{"_": {err.Error()}}
				if verr, ok := config.AsValidationError(err); ok {
					fieldErrors = verr.FieldErrors
				}

				if outputJSON {
					if err := printJSON(out, checkResult{Valid: false, Errors: fieldErrors}); err != nil {
						return err
					}
					return &ExitError{Code: 1}
				}

				errorColor.Fprintln(out, "✗ Invalid environment variables")
				for _, field := range sortedKeys(fieldErrors) {
					fmt.Fprintf(out, "  %s: %s\n", warningColor.Sprint(field), strings.Join(fieldErrors[field], ", "))
				}
				return &ExitError{Code: 1}
			}

			if outputJSON {
				return printJSON(out, checkResult{Valid: true, Settings: cfg.Settings()})
			}

			successColor.Fprintln(out, "✓ Configuration is valid")
			headerColor.Fprintln(out, "Settings:")
			for _, setting := range cfg.Settings() {
				value := setting.Value
				if !setting.Set {
					value = infoColor.Sprint("(not set)")
				}
				fmt.Fprintf(out, "  %-16s %s\n", setting.Name, value)
			}
			return nil
		},
	}

	checkCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	return checkCmd
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
