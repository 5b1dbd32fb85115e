package providers

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/llm"
)

var ErrEmptyFallback = errors.New("providers: fallback list is empty")

// Directory resolves the ranked vision-capable provider candidates for a run.
type Directory struct {
	registry llm.Registry
	fallback []string
	logger   *slog.Logger
}

// NewDirectory builds a Directory. A nil fallback means the built-in shortlist;
// an explicitly empty one is a configuration error.
func NewDirectory(registry llm.Registry, fallback []string, logger *slog.Logger) (*Directory, error) {
	if fallback == nil {
		fallback = constants.FallbackVisionModels
	}
	if len(fallback) == 0 {
		return nil, ErrEmptyFallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{registry: registry, fallback: slices.Clone(fallback), logger: logger}, nil
}

// ListVisionCapable returns image-capable model identifiers in registry order.
// It never fails: registry errors and empty results yield the fallback list.
func (d *Directory) ListVisionCapable(ctx context.Context, credential string) []string {
	start := time.Now()
	d.logger.Debug("providers.list.start")

	if d.registry == nil {
		return d.useFallback("no registry", nil)
	}

	models, err := d.registry.ListModels(ctx, credential)
	if err != nil {
		return d.useFallback("registry error", err)
	}

	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m.ID == "" || !m.AcceptsImages() {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m.ID)
	}
	if len(out) == 0 {
		return d.useFallback("no vision-capable models", nil)
	}

	d.logger.Info("providers.list.ok",
		"registry_models", len(models),
		"vision_models", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (d *Directory) useFallback(reason string, err error) []string {
	attrs := []any{"reason", reason, "fallback", len(d.fallback)}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	d.logger.Warn("providers.list.fallback", attrs...)
	return slices.Clone(d.fallback)
}
