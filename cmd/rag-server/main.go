package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag/internal/app"
	"rag/internal/config"
	"rag/internal/server"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		docsDir string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/rag/config.yaml if not provided)")
	flag.StringVar(&docsDir, "docs", "", "Directory of documents to (re)ingest before serving")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc, store, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	ctx := context.Background()
	if docsDir != "" {
		report, err := svc.IngestDir(ctx, docsDir)
		if err != nil {
			log.Fatal("ingest failed", zap.Error(err))
		}
		log.Info("ingested documents",
			zap.Int("documents", report.Documents),
			zap.Int("chunks", report.Chunks),
		)
	} else if err := store.Load(ctx); err != nil {
		log.Fatal("failed to load persisted store", zap.Error(err))
	}

	srv := server.New(svc, log)
	log.Info("serving", zap.String("addr", cfg.Server.Addr))
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
