package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/llm/openrouter"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
	"github.com/joseph-ayodele/health-reports/internal/providers"
	"github.com/joseph-ayodele/health-reports/internal/report"
)

// Components bundles the processor with the provider-facing pieces the
// binaries also use directly (model listing, credential checks).
type Components struct {
	Processor *Processor
	Client    *openrouter.Client
	Directory *providers.Directory
}

// Build wires the OpenRouter client, provider directory, OCR and parse stages
// from configuration. sink may be nil.
func Build(cfg *common.Config, sink ReportSink, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := openrouter.NewClient(openrouter.Config{
		BaseURL:             cfg.Provider.BaseURL,
		Referer:             cfg.Provider.Referer,
		Title:               cfg.Provider.Title,
		Timeout:             cfg.Provider.Timeout,
		OCRTemperature:      cfg.Provider.OCRTemperature,
		OCRMaxTokens:        cfg.Provider.OCRMaxTokens,
		AnalysisModel:       cfg.Analysis.Model,
		AnalysisTemperature: cfg.Analysis.Temperature,
		MaxTextChars:        cfg.Analysis.MaxTextChars,
	}, logger)

	dir, err := providers.NewDirectory(client, nil, logger)
	if err != nil {
		return nil, err
	}

	ocrStage := NewOCRStage(
		ocr.NewDecomposer(ocr.NewPDFParser(logger), logger),
		dir,
		ocr.NewOrchestrator(client, ocr.Config{
			DefaultModel:  cfg.Provider.DefaultModel,
			MaxCandidates: cfg.Provider.MaxCandidates,
		}, logger),
		logger,
	)
	parseStage := NewParseStage(classify.NewClassifier(client, logger), report.NewAssembler(logger), logger)

	return &Components{
		Processor: NewProcessor(logger, ocrStage, parseStage, sink),
		Client:    client,
		Directory: dir,
	}, nil
}
