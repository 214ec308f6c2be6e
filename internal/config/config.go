// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Recognition backends.
const (
	RecognizerDeepgram = "deepgram"
	RecognizerDaemon   = "daemon"
)

// DefaultCaptureCommand records 16 kHz mono signed 16-bit PCM to stdout.
const DefaultCaptureCommand = "ffmpeg -loglevel error -f pulse -i default -ac 1 -ar 16000 -f s16le -"

// Config holds runtime settings read from the environment.
type Config struct {
	DataDir string
	LogFile string

	// Speech recognition
	Recognizer     string
	Language       string
	DeepgramAPIKey string
	DeepgramModel  string
	CaptureCommand string
	DaemonSocket   string

	// Extraction service
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	MaxTokens      int
	Temperature    float32
	ExtractTimeout time.Duration

	// Session
	StopTimeout time.Duration

	SentryDSN string
}

// LoadConfigFromEnv reads Config, applying defaults for unset keys.
func LoadConfigFromEnv() Config {
	dataDir := getenv("SCRIBE_DATA_DIR", ".")

	return Config{
		DataDir: dataDir,
		LogFile: getenv("SCRIBE_LOG_FILE", filepath.Join(dataDir, "scribe.log")),

		Recognizer:     strings.ToLower(getenv("SCRIBE_RECOGNIZER", RecognizerDeepgram)),
		Language:       getenv("SCRIBE_LANGUAGE", "ru"),
		DeepgramAPIKey: getenv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:  getenv("DEEPGRAM_MODEL", "nova-2"),
		CaptureCommand: getenv("SCRIBE_CAPTURE_CMD", DefaultCaptureCommand),
		DaemonSocket:   getenv("SCRIBE_DAEMON_SOCKET", defaultSocketPath()),

		OpenAIAPIKey:   getenv("OPENAI_API_KEY", ""),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-2024-08-06"),
		OpenAIBaseURL:  getenv("OPENAI_BASE_URL", ""),
		MaxTokens:      getenvIntClamped("SCRIBE_MAX_TOKENS", 8000, 256, 16000),
		Temperature:    0.01,
		ExtractTimeout: getenvDuration("SCRIBE_EXTRACT_TIMEOUT", 120*time.Second),

		StopTimeout: getenvDuration("SCRIBE_STOP_TIMEOUT", 5*time.Second),

		SentryDSN: getenv("SENTRY_DSN", ""),
	}
}

// Preflight reports the credentials and environment a session needs before
// it may start. A nil error means recording can begin.
func (c Config) Preflight() error {
	var missing []string
	switch c.Recognizer {
	case RecognizerDeepgram:
		if c.DeepgramAPIKey == "" {
			missing = append(missing, "DEEPGRAM_API_KEY")
		}
	case RecognizerDaemon:
		if _, err := os.Stat(c.DaemonSocket); err != nil {
			return fmt.Errorf("recognition daemon socket %s not found", c.DaemonSocket)
		}
	default:
		return fmt.Errorf("unknown recognizer %q", c.Recognizer)
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("environment variable not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "scribe", "recognizer.sock")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, lo, hi int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return max(lo, min(v, hi))
}

func getenvDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
