package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag/internal/app"
	"rag/internal/config"
	"rag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		docsDir string
		plain   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/rag/config.yaml if not provided)")
	flag.StringVar(&docsDir, "docs", "", "Directory of documents to (re)ingest before starting")
	flag.BoolVar(&plain, "plain", false, "Read queries from stdin and print answers instead of the TUI")
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

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc, store, err := app.Build(cfg, log)
	if err != nil {
		// missing credentials and bad config abort before any query
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	summary := ""
	switch {
	case docsDir != "":
		report, err := svc.IngestDir(ctx, docsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
			os.Exit(1)
		}
		summary = fmt.Sprintf("Indexed %d documents (%d chunks). %s",
			report.Documents, report.Chunks, report.Summary)
	case len(flag.Args()) > 0:
		report, err := svc.IngestFiles(ctx, flag.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
			os.Exit(1)
		}
		summary = fmt.Sprintf("Indexed %d documents (%d chunks). %s",
			report.Documents, report.Chunks, report.Summary)
	default:
		// no documents given: restore a previously persisted index
		if err := store.Load(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load persisted store: %v\n", err)
			os.Exit(1)
		}
		summary = "Using previously ingested index."
	}

	timeout := time.Duration(cfg.Generator.TimeoutSecs+30) * time.Second
	if plain {
		if err := consoleLoop(svc, summary, timeout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	m := tui.New(svc, summary, timeout)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// consoleLoop reads one query per line from stdin and prints the answer.
// Service failures are printed and the loop continues; EOF or an exit
// command quits cleanly.
func consoleLoop(svc tui.AnswerPort, summary string, timeout time.Duration) error {
	fmt.Println(summary)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		answer, err := svc.Answer(ctx, query)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(answer.Text)
		for i, r := range answer.Sources {
			fmt.Printf("  [%d] %s (score %.3f)\n", i+1, r.Chunk.Source, r.Score)
		}
	}
}
