// ABOUTME: Entry point for the crmview CLI and TUI
// ABOUTME: Parses flags, loads config, then runs the selected command against a cached client
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/harperreed/crmview/cli"
	"github.com/harperreed/crmview/config"
	"github.com/harperreed/crmview/logger"
)

const version = "0.2.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c cli.CLI
	parser, err := cli.Parser(&c, version, kong.BindTo(ctx, (*context.Context)(nil)))
	if err != nil {
		log.Fatalf("Failed to build command line: %v", err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load(c.EnvFile)
	kctx.FatalIfErrorf(err)
	cfg.Debug = cfg.Debug || c.Debug

	// The TUI owns the terminal, so its logs go to a file.
	var logOut io.Writer = os.Stderr
	if kctx.Command() == "tui" {
		f, err := logger.OpenFile(config.AppName)
		kctx.FatalIfErrorf(err)
		defer func() { _ = f.Close() }()
		logOut = f
	}
	lg := logger.Setup(logOut, cfg.LogLevel, cfg.Debug)

	store, err := cli.OpenStore(cfg)
	if err != nil {
		lg.Fatal().Err(err).Str("path", cfg.StorePath()).Msg("failed to open cache store")
	}

	app, err := cli.NewApp(cfg, store, lg, cli.Options{
		JSON:    c.JSON,
		Refresh: c.Refresh,
		Version: version,
	})
	if err != nil {
		_ = store.Close()
		lg.Fatal().Err(err).Msg("failed to create client")
	}

	err = kctx.Run(app)
	if cerr := app.Close(); cerr != nil {
		lg.Warn().Err(cerr).Msg("failed to close cache")
	}
	kctx.FatalIfErrorf(err)
}
