package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
	"github.com/joseph-ayodele/health-reports/internal/report"
)

type ParseStage struct {
	Classifier *classify.Classifier
	Assembler  *report.Assembler
	Logger     *slog.Logger
}

func NewParseStage(classifier *classify.Classifier, assembler *report.Assembler, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Classifier: classifier, Assembler: assembler, Logger: logger}
}

// Run classifies the extracted text and assembles the report. A
// classification failure comes back as *AnalysisError so callers can still
// show the text that was read.
func (s *ParseStage) Run(ctx context.Context, filename string, res ocr.Result, credential string) (*entity.Report, error) {
	c, err := s.Classifier.Classify(ctx, res.Text, credential)
	if err != nil {
		return nil, &AnalysisError{ExtractedText: res.Text, Provider: res.Provider, Err: err}
	}

	return s.Assembler.Assemble(res.Text, c, report.Meta{
		Filename:    filename,
		OCRProvider: res.Provider,
	}), nil
}
