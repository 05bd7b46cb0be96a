package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file; empty uses the built-in defaults")
	addr := flag.String("addr", "", "HTTP listen address, overrides server.addr")
	flag.Parse()

	app, err := injector.InitializeApp(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "director:", err)
		os.Exit(1)
	}
	if *addr != "" {
		app.Config.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("director starting",
		log.String("config", *configPath),
		log.Duration("tick", app.Runner.Interval()),
		log.Int("swarm", app.Config.Loop.Swarm),
	)
	if err := app.Run(ctx); err != nil {
		app.Logger.Error("director stopped", log.Error(err))
		os.Exit(1)
	}
	app.Logger.Info("director stopped")
}
