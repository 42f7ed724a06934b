// Package bootstrap assembles the service and supervises its lifecycle.
//
// Usage:
//
//	cfg, err := bootstrap.InitConfig(".env", os.Environ(), os.Stderr)
//	if err != nil {
//	    os.Exit(1)
//	}
//	_, sugar, _ := bootstrap.InitLogger(cfg.Mode)
//
//	ctx, stop := bootstrap.SignalContext(context.Background())
//	defer stop()
//
//	app, err := bootstrap.NewApp(ctx, cfg, sugar)
//	if err != nil {
//	    os.Exit(1)
//	}
//	os.Exit(app.Run(ctx))
package bootstrap
