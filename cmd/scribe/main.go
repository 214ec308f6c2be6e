package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/getsentry/sentry-go"

	"github.com/jwulff/scribe/internal/app"
	"github.com/jwulff/scribe/internal/audio"
	"github.com/jwulff/scribe/internal/config"
	"github.com/jwulff/scribe/internal/db"
	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/llm"
	"github.com/jwulff/scribe/internal/recognizer"
	"github.com/jwulff/scribe/internal/report"
	"github.com/jwulff/scribe/internal/session"
	"github.com/jwulff/scribe/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDefaultEnv()
	cfg := config.LoadConfigFromEnv()

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := tea.LogToFile(cfg.LogFile, "scribe")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: getEnvironment(),
		})
		if err != nil {
			log.Printf("sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	store := storage.New(cfg.DataDir)
	if err := store.EnsureDirs(); err != nil {
		return err
	}

	journal, err := db.Open(db.DefaultDBPath(cfg.DataDir))
	if err != nil {
		return err
	}
	defer journal.Close()

	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}

	completer := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.ExtractTimeout,
	})
	pipeline := extract.NewPipeline(completer, extract.DefaultRegistry(), extract.Options{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.ExtractTimeout,
	})

	ctrl := session.New(session.Deps{
		Recognizer:  rec,
		Extractor:   pipeline,
		Renderer:    report.NewMarkdownWriter(store.Path(storage.ReportDir)),
		Files:       store,
		Journal:     journal,
		Preflight:   cfg.Preflight,
		StopTimeout: cfg.StopTimeout,
	})
	defer ctrl.Close()

	log.Printf("scribe starting: recognizer=%s data=%s", cfg.Recognizer, cfg.DataDir)

	p := tea.NewProgram(app.New(ctrl, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func newRecognizer(cfg config.Config) (recognizer.Recognizer, error) {
	switch cfg.Recognizer {
	case config.RecognizerDeepgram:
		return recognizer.NewDeepgram(recognizer.DeepgramConfig{
			APIKey:   cfg.DeepgramAPIKey,
			Model:    cfg.DeepgramModel,
			Language: cfg.Language,
			Source:   audio.CommandSource(cfg.CaptureCommand),
		}), nil
	case config.RecognizerDaemon:
		return recognizer.NewDaemon(recognizer.DaemonConfig{
			SocketPath: cfg.DaemonSocket,
			Locale:     cfg.Language,
		}), nil
	default:
		return nil, fmt.Errorf("unknown recognizer %q (want %s or %s)",
			cfg.Recognizer, config.RecognizerDeepgram, config.RecognizerDaemon)
	}
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
