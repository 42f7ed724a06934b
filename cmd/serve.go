package cmd

import (
	"interviewer/bootstrap"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Validate configuration, connect storage and serve HTTP until terminated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

// runServe exits 1 on invalid configuration or a storage connection failure,
// otherwise with the code the supervisor returns
func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := bootstrap.InitConfig(opts.envFile, opts.environ(), cmd.ErrOrStderr())
	if err != nil {
		return &ExitError{Code: bootstrap.ExitFailure}
	}

	logger, sugar, err := bootstrap.InitLogger(cfg.Mode)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	appOpts := append([]bootstrap.Option{bootstrap.WithStderr(cmd.ErrOrStderr())}, opts.appOptions...)
	app, err := bootstrap.NewApp(cmd.Context(), cfg, sugar, appOpts...)
	if err != nil {
		sugar.Errorw("Startup failed", "error", err)
		return &ExitError{Code: bootstrap.ExitFailure}
	}

	if code := app.Run(cmd.Context()); code != bootstrap.ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}
