package openrouter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/joseph-ayodele/health-reports/constants"
)

// Config for the OpenRouter client. The credential is not part of it: every
// call takes the caller's key.
type Config struct {
	BaseURL string // default https://openrouter.ai/api/v1
	Referer string // sent as HTTP-Referer
	Title   string // sent as X-Title
	Timeout time.Duration

	OCRTemperature float32
	OCRMaxTokens   int

	AnalysisModel       string
	AnalysisTemperature float32
	MaxTextChars        int

	HTTPClient *http.Client // optional, mainly for tests
}

type Client struct {
	cfg    Config
	api    openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.OpenRouterBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.OCRTemperature <= 0 {
		cfg.OCRTemperature = constants.DefaultOCRTemperature
	}
	if cfg.OCRMaxTokens <= 0 {
		cfg.OCRMaxTokens = constants.DefaultOCRMaxTokens
	}
	if cfg.AnalysisModel == "" {
		cfg.AnalysisModel = constants.DefaultAnalysisModel
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 24000
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		// fallback ordering is the retry policy
		option.WithMaxRetries(0),
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}

	return &Client{
		cfg:    cfg,
		api:    openai.NewClient(opts...),
		logger: logger,
	}
}
