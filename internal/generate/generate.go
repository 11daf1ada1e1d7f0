package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/csheth/napkin/internal/media"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
	BackendDry    = "dry"
)

const (
	defaultOllamaModel = "llava:latest"
	defaultOpenAIModel = "gpt-4o-mini"
	// Vision models accept large images, but base64 inflates them by a third.
	// 20MB keeps the request body comfortably under common proxy limits.
	maxImageBytes = 20 << 20
	// Roughly 30k tokens of extracted PDF text.
	maxDocumentChars = 120_000
)

const defaultHTTPTimeout = 3 * time.Minute

// ErrMissingAPIKey is returned when the OpenAI backend has no key.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Config describes how to build a generation client.
type Config struct {
	Backend    string
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Request is one submission from the prompt widget.
type Request struct {
	Prompt     string
	Attachment *media.File
}

// Client turns a prompt and optional attachment into generated content.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// NewFromEnv inspects CLI arguments & environment variables to build a client.
func NewFromEnv(cfg Config) (Client, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = strings.ToLower(os.Getenv("NAPKIN_BACKEND"))
	}
	if backend == "" {
		backend = BackendOllama
	}
	switch backend {
	case BackendOllama:
		return newOllamaFromEnv(cfg)
	case BackendOpenAI:
		return newOpenAIFromEnv(cfg)
	case BackendDry:
		return dryClient{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want ollama, openai, or dry)", backend)
	}
}

func newOllamaFromEnv(cfg Config) (*ollamaClient, error) {
	host := cfg.Endpoint
	if host == "" {
		if env := os.Getenv("OLLAMA_HOST"); env != "" {
			host = env
		} else {
			host = "http://localhost:11434"
		}
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("OLLAMA_MODEL"); env != "" {
			model = env
		} else {
			model = defaultOllamaModel
		}
	}
	return newOllamaClient(host, model, pickHTTPClient(cfg.HTTPClient))
}

func newOpenAIFromEnv(cfg Config) (*openAIClient, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("OPENAI_MODEL"); env != "" {
			model = env
		} else {
			model = defaultOpenAIModel
		}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OPENAI_BASE_URL")
	}
	return newOpenAIClient(key, model, endpoint, pickHTTPClient(cfg.HTTPClient)), nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Vision generations regularly exceed a minute; the caller's context still cancels.
	return &http.Client{Timeout: defaultHTTPTimeout}
}
