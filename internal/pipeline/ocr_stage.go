package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
)

// ProviderLister yields the ranked vision-capable providers for a credential.
type ProviderLister interface {
	ListVisionCapable(ctx context.Context, credential string) []string
}

type OCRStage struct {
	Decomposer   *ocr.Decomposer
	Providers    ProviderLister
	Orchestrator *ocr.Orchestrator
	Logger       *slog.Logger
}

func NewOCRStage(dec *ocr.Decomposer, providers ProviderLister, orch *ocr.Orchestrator, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Decomposer: dec, Providers: providers, Orchestrator: orch, Logger: logger}
}

// Run decomposes doc and extracts its text. The document bytes are not
// referenced after decomposition.
func (s *OCRStage) Run(ctx context.Context, doc entity.Document, credential string, obs ocr.Observer) (ocr.Result, error) {
	start := time.Now()

	units, err := s.Decomposer.Decompose(ctx, doc)
	if err != nil {
		return ocr.Result{}, err
	}

	imageUnits := 0
	for _, u := range units {
		if u.Kind == entity.UnitImage {
			imageUnits++
		}
	}

	// the registry is only consulted when there is something to look at
	var providers []string
	if imageUnits > 0 {
		providers = s.Providers.ListVisionCapable(ctx, credential)
	}

	res, err := s.Orchestrator.Extract(ctx, units, providers, credential, ocr.WithObserver(obs))
	if err != nil {
		return ocr.Result{}, err
	}

	s.Logger.Debug("pipeline.ocr.stage",
		"document", doc.Name,
		"units", len(units),
		"image_units", imageUnits,
		"providers", len(providers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
