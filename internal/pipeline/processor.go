package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
)

// ReportSink receives every successfully assembled report.
type ReportSink interface {
	Save(ctx context.Context, r *entity.Report) error
}

// RunConfig carries the per-run inputs that are not part of the document.
type RunConfig struct {
	Credential string
	Observer   ocr.Observer
}

// AnalysisError reports a classification failure after text was extracted.
// It unwraps to common.ErrAnalysisFailed.
type AnalysisError struct {
	ExtractedText string
	Provider      string
	Err           error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze extracted text (%d chars via %s): %v", len(e.ExtractedText), e.Provider, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Processor coordinates OCR (text extract) then classification and assembly.
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
	Sink   ReportSink // optional
}

func NewProcessor(logger *slog.Logger, ocrStage *OCRStage, parseStage *ParseStage, sink ReportSink) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocrStage, Parse: parseStage, Sink: sink}
}

// Process runs one document through the pipeline. When the sink fails the
// assembled report is returned together with the error.
func (p *Processor) Process(ctx context.Context, doc entity.Document, rc RunConfig) (*entity.Report, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	log := p.Logger.With("req_id", rid, "document", doc.Name)
	start := time.Now()

	if strings.TrimSpace(rc.Credential) == "" {
		err := common.NewAppError(common.CodeMissingCredential, "an OpenRouter API key is required", common.ErrMissingCredential)
		log.Error("pipeline.credential.missing")
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		log.Error("pipeline.document.rejected", "media_type", doc.MediaType, "bytes", len(doc.Data), "err", err)
		return nil, err
	}
	obs := rc.Observer
	if obs == nil {
		obs = ocr.NopObserver{}
	}

	// 1) OCR stage → decomposition + provider fallback
	res, err := p.OCR.Run(ctx, doc, rc.Credential, obs)
	if err != nil {
		log.Error("pipeline.ocr.failed", "err", err)
		return nil, err
	}
	log.Info("pipeline.ocr.ok",
		"provider", res.Provider,
		"chars", len(res.Text),
		"attempts", len(res.Attempts),
	)

	// 2) parse stage → classification + report assembly
	r, err := p.Parse.Run(ctx, doc.Name, res, rc.Credential)
	if err != nil {
		log.Error("pipeline.parse.failed", "err", err)
		return nil, err
	}
	log.Info("pipeline.parse.ok",
		"report_id", r.ID,
		"metrics", len(r.Metrics),
		"type", r.Type,
	)

	if p.Sink != nil {
		if err := p.Sink.Save(ctx, r); err != nil {
			log.Error("pipeline.sink.failed", "report_id", r.ID, "err", err)
			return r, fmt.Errorf("save report: %w", err)
		}
	}

	log.Info("pipeline.done",
		"report_id", r.ID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return r, nil
}
