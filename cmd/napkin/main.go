package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/csheth/napkin/internal/generate"
	"github.com/csheth/napkin/internal/remote"
	"github.com/csheth/napkin/internal/tui"
)

func main() {
	defaultHistory := filepath.Join(".", "napkin-history.json")
	backend := flag.String("backend", "", "generation backend: ollama, openai, or dry (env NAPKIN_BACKEND, default ollama)")
	llmModel := flag.String("llm-model", "", "override the backend model (llava:latest for Ollama, gpt-4o-mini for OpenAI)")
	llmEndpoint := flag.String("llm-endpoint", "", "custom Ollama host or OpenAI base URL")
	historyPath := flag.String("history", defaultHistory, "path to the generation history JSON file (empty disables history)")
	outDir := flag.String("out-dir", "", "save each generated page as an HTML file in this directory")
	logFile := flag.String("log-file", "", "write structured logs to this file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, or error")
	phrases := flag.String("phrases", "", "comma-separated placeholder phrases")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	logger, closeLog, err := newLogger(*logFile, *logLevel)
	if err != nil {
		fmt.Println("failed to open log:", err)
		os.Exit(1)
	}
	defer closeLog()

	resolvedHistory := ""
	if strings.TrimSpace(*historyPath) != "" {
		resolvedHistory, err = filepath.Abs(*historyPath)
		if err != nil {
			fmt.Println("failed to resolve history path:", err)
			os.Exit(1)
		}
	}

	resolvedOut := ""
	if strings.TrimSpace(*outDir) != "" {
		resolvedOut, err = filepath.Abs(*outDir)
		if err != nil {
			fmt.Println("failed to resolve output directory:", err)
			os.Exit(1)
		}
	}

	config := tui.Config{
		HistoryPath: resolvedHistory,
		OutputDir:   resolvedOut,
		Phrases:     splitPhrases(*phrases),
		Logger:      logger,
	}
	if cache, err := remote.NewCache(nil); err != nil {
		logger.Warn("url drops disabled", "err", err)
	} else {
		config.Fetcher = cache
	}
	config.Generator, err = generate.NewFromEnv(generate.Config{
		Backend:  *backend,
		Model:    *llmModel,
		Endpoint: *llmEndpoint,
	})
	if err != nil {
		logger.Warn("generation disabled", "err", err)
		config.SetupError = err.Error()
	} else {
		logger.Info("backend ready", "name", config.Generator.Name())
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(config), opts...)

	if _, err := program.Run(); err != nil {
		logger.Error("program error", "err", err)
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}

func newLogger(path, level string) (*log.Logger, func(), error) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = io.Discard
	closer := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closer = func() { _ = f.Close() }
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           parsed,
		ReportTimestamp: true,
		Prefix:          "napkin",
	})
	return logger, closer, nil
}

func splitPhrases(raw string) []string {
	var phrases []string
	for _, part := range strings.Split(raw, ",") {
		if phrase := strings.TrimSpace(part); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}
