// Command mylar-server serves the stencil conversion API and the web
// frontend.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mylar3d/mylar/api"
	"github.com/mylar3d/mylar/pkg/history"
)

func main() {
	var configPath, listen string
	flag.StringVar(&configPath, "config", "", "path to TOML config file")
	flag.StringVar(&listen, "listen", "", "listen address (overrides config)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "mylar",
	})

	cfg, err := loadConfig(configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	if listen != "" {
		cfg.Listen = listen
	}

	var db *history.DB
	if cfg.HistoryDB != "" {
		db, err = history.Open(cfg.HistoryDB)
		if err != nil {
			logger.Fatal("open history db", "path", cfg.HistoryDB, "err", err)
		}
		defer db.Close()
	}

	srv := api.NewServer(logger, db, api.Config{
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		StaticDir:      cfg.StaticDir,
		Defaults:       cfg.Defaults.Params(),
		Potrace:        cfg.Potrace,
	})

	logger.Info("listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv.ServeMux()); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}
