package bootstrap

import (
	"context"
	"io"
	"os"

	"interviewer/api"
	"interviewer/config"

	"go.uber.org/zap"
)

// App is the assembled service: validated configuration, connected storage,
// the request pipeline and the supervisor that serves it.
type App struct {
	Config *config.Config
	Sugar  *zap.SugaredLogger

	Storage    *StorageComponents
	APIServer  *api.API
	Supervisor *Supervisor
}

type appOptions struct {
	stderr     io.Writer
	api        []api.Option
	supervisor []SupervisorOption
}

// Option configures NewApp
type Option func(*appOptions)

// WithStderr redirects startup failure banners
func WithStderr(w io.Writer) Option {
	return func(o *appOptions) {
		o.stderr = w
	}
}

// WithAPIOptions passes options through to api.NewAPI
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *appOptions) {
		o.api = append(o.api, opts...)
	}
}

// WithSupervisorOptions passes options through to NewSupervisor
func WithSupervisorOptions(opts ...SupervisorOption) Option {
	return func(o *appOptions) {
		o.supervisor = append(o.supervisor, opts...)
	}
}

// NewApp connects storage and assembles the API. A storage connection
// failure aborts startup before any listener is bound.
func NewApp(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger, opts ...Option) (*App, error) {
	o := &appOptions{stderr: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	sugar.Infow("Starting interviewer API", "mode", string(cfg.Mode), "port", cfg.Port)
	sugar.Debugw("Effective configuration", "settings", config.MaskSensitiveSettings(cfg))

	components, err := InitStorage(ctx, cfg, sugar, o.stderr)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Sugar:     sugar,
		Storage:   components,
		APIServer: api.NewAPI(cfg, sugar, o.api...),
	}

	supervisorOpts := append([]SupervisorOption{WithClosers(components.Closers()...)}, o.supervisor...)
	app.Supervisor = NewSupervisor(cfg, app.APIServer.Handler(), sugar, supervisorOpts...)
	return app, nil
}

// Run serves until ctx is cancelled or a fatal error occurs and returns the
// process exit code
func (a *App) Run(ctx context.Context) int {
	return a.Supervisor.Run(ctx)
}
