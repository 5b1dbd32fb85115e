package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/llm"
)

var errEmptyCompletion = errors.New("provider returned no text")

// Config tunes the orchestrator.
type Config struct {
	// DefaultModel is retried once when every ranked candidate came back empty.
	DefaultModel string
	// MaxCandidates bounds the providers consulted per image unit.
	MaxCandidates int
}

// Orchestrator turns extraction units into text, falling back across vision
// providers in rank order. It holds no per-run state.
type Orchestrator struct {
	vision llm.VisionExtractor
	cfg    Config
	logger *slog.Logger
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text string
	// Provider produced the first usable image text, or is "pdf-text" when
	// only the native text layer contributed.
	Provider string
	Attempts []Attempt
}

type extractOptions struct {
	observer Observer
}

type ExtractOption func(*extractOptions)

// WithObserver routes progress events for one Extract call to obs.
func WithObserver(obs Observer) ExtractOption {
	return func(o *extractOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func NewOrchestrator(vision llm.VisionExtractor, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = constants.DefaultOCRModel
	}
	if cfg.MaxCandidates <= 0 || cfg.MaxCandidates > constants.MaxProviderCandidates {
		cfg.MaxCandidates = constants.MaxProviderCandidates
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{vision: vision, cfg: cfg, logger: logger}
}

// Extract produces the ordered concatenation of all unit texts: text units
// first, then image units, each in document order. Image units are sent to
// providers one at a time until one returns non-empty text.
func (o *Orchestrator) Extract(ctx context.Context, units []entity.ExtractionUnit, providers []string, credential string, opts ...ExtractOption) (Result, error) {
	eo := extractOptions{observer: NopObserver{}}
	for _, opt := range opts {
		opt(&eo)
	}
	eo.observer = guardedObserver{inner: eo.observer, logger: o.logger}
	start := time.Now()

	var (
		textPieces  []string
		imagePieces []string
		images      []entity.ExtractionUnit
		res         Result
	)
	for _, u := range units {
		switch u.Kind {
		case entity.UnitText:
			if strings.TrimSpace(u.Content) != "" {
				textPieces = append(textPieces, u.Content)
			}
		case entity.UnitImage:
			images = append(images, u)
		}
	}

	for _, u := range images {
		text, provider, err := o.extractUnit(ctx, u, NewCandidates(providers, o.cfg.MaxCandidates), credential, eo.observer, &res.Attempts)
		if err != nil {
			return Result{}, err
		}
		if text == "" {
			o.logger.Warn("ocr.unit.exhausted", "unit", u.Index, "candidates", min(len(providers), o.cfg.MaxCandidates))
			continue
		}
		if res.Provider == "" {
			res.Provider = provider
		}
		imagePieces = append(imagePieces, text)
	}

	res.Text = strings.Join(append(textPieces, imagePieces...), "\n")
	if strings.TrimSpace(res.Text) == "" {
		retried, err := o.retryDefault(ctx, images, credential, eo.observer, &res)
		if err != nil {
			return Result{}, err
		}
		if strings.TrimSpace(retried) == "" {
			o.logger.Error("ocr.extract.no_text",
				"units", len(units),
				"attempts", len(res.Attempts),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Result{}, common.NewAppError(common.CodeNoTextExtracted,
				fmt.Sprintf("no provider extracted text after %d attempts", len(res.Attempts)), common.ErrNoTextExtracted)
		}
		res.Text = retried
	}

	if res.Provider == "" {
		res.Provider = constants.NativeTextProvider
	}
	o.logger.Info("ocr.extract.ok",
		"provider", res.Provider,
		"chars", len(res.Text),
		"attempts", len(res.Attempts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// retryDefault runs the default provider once over every image unit.
func (o *Orchestrator) retryDefault(ctx context.Context, images []entity.ExtractionUnit, credential string, obs Observer, res *Result) (string, error) {
	if len(images) == 0 {
		return "", nil
	}
	o.logger.Warn("ocr.extract.default_retry", "provider", o.cfg.DefaultModel, "images", len(images))

	var pieces []string
	for _, u := range images {
		text, provider, err := o.extractUnit(ctx, u, NewCandidates([]string{o.cfg.DefaultModel}, 1), credential, obs, &res.Attempts)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if res.Provider == "" {
			res.Provider = provider
		}
		pieces = append(pieces, text)
	}
	return strings.Join(pieces, "\n"), nil
}

// extractUnit tries candidates for one image unit. Provider failures are
// absorbed; only context cancellation is returned as an error.
func (o *Orchestrator) extractUnit(ctx context.Context, u entity.ExtractionUnit, cands *Candidates, credential string, obs Observer, attempts *[]Attempt) (string, string, error) {
	prompt := constants.ImagePrompt
	if u.WholeDocument {
		prompt = constants.WholeDocumentPrompt
	}

	for {
		provider, ok := cands.Next()
		if !ok {
			return "", "", nil
		}
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		obs.ProviderSelected(u.Index, provider)
		o.logger.Debug("ocr.unit.attempt", "unit", u.Index, "provider", provider)

		t0 := time.Now()
		text, err := o.vision.ExtractText(ctx, credential, llm.VisionRequest{
			Model:    provider,
			ImageURL: u.Content,
			Prompt:   prompt,
		})
		text = strings.TrimSpace(text)
		attempt := Attempt{UnitIndex: u.Index, Provider: provider, Text: text, Elapsed: time.Since(t0)}

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			attempt.Err = common.NewAppError(common.CodeProviderUnavailable, provider, errors.Join(common.ErrProviderUnavailable, err))
		case text == "":
			attempt.Err = errEmptyCompletion
		}
		*attempts = append(*attempts, attempt)

		if attempt.Err != nil {
			o.logger.Warn("ocr.unit.failed",
				"unit", u.Index,
				"provider", provider,
				"error", attempt.Err,
				"elapsed_ms", attempt.Elapsed.Milliseconds(),
			)
			obs.UnitFailed(u.Index, provider, attempt.Err)
			continue
		}

		o.logger.Info("ocr.unit.ok",
			"unit", u.Index,
			"provider", provider,
			"chars", len(text),
			"elapsed_ms", attempt.Elapsed.Milliseconds(),
		)
		obs.UnitSucceeded(u.Index, provider, len(text))
		return text, provider, nil
	}
}
