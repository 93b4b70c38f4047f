package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/ripple-app/ripple/internal/router"
	"github.com/ripple-app/ripple/internal/setup"
	"github.com/ripple-app/ripple/shared/config"
	"github.com/ripple-app/ripple/shared/logger"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(context.Background(), cfg)
	if err != nil {
		logger.Log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer deps.Tracker.Close()

	r := router.New(deps)

	addr := cfg.Public.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	logger.Log.Info("server started", "addr", addr, "store", cfg.Public.Store.Driver)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
