package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/llm"
)

// Classification is the validated interpretation of one report's text.
type Classification struct {
	Measurements     []entity.Measurement
	Summary          string
	DetailedAnalysis string
	Recommendations  []string
	Categories       []string
	PatientInfo      *entity.PatientInfo
	Model            string
}

type Classifier struct {
	analyzer llm.Analyzer
	logger   *slog.Logger
}

func NewClassifier(analyzer llm.Analyzer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{analyzer: analyzer, logger: logger}
}

// Classify asks the analyzer to interpret text and enforces the result
// contract. It is all or nothing: any recovery, validation or decoding
// failure, or an analysis without measurements, yields ErrAnalysisFailed.
func (c *Classifier) Classify(ctx context.Context, text, credential string) (Classification, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return Classification{}, failed("no text to analyze", nil)
	}

	resp, err := c.analyzer.Analyze(ctx, credential, llm.AnalyzeRequest{
		Text:              text,
		AllowedCategories: constants.AsStringSlice(),
	})
	if err != nil {
		c.logger.Error("classify.analyze_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Classification{}, failed("analysis request failed", err)
	}

	raw, err := llm.ExtractJSONObject(resp.Content)
	if err != nil {
		c.logger.Error("classify.no_json", "model", resp.Model, "content_len", len(resp.Content))
		return Classification{}, failed("analysis response is not JSON", err)
	}

	clean, changed, err := llm.NormalizeAnalysisJSON(raw, c.logger)
	if err != nil {
		return Classification{}, failed("analysis response is malformed", err)
	}
	if len(changed) > 0 {
		c.logger.Debug("classify.sanitized", "fields", changed)
	}

	if err := llm.ValidateAnalysis(clean); err != nil {
		c.logger.Error("classify.schema_invalid", "model", resp.Model, "error", err)
		return Classification{}, failed("analysis does not match the measurement schema", err)
	}

	var fields llm.AnalysisFields
	if err := json.Unmarshal(clean, &fields); err != nil {
		return Classification{}, failed("decode analysis", err)
	}

	out := Classification{
		Measurements:     c.dedupe(fields.Metrics),
		Summary:          strings.TrimSpace(fields.Summary),
		DetailedAnalysis: strings.TrimSpace(fields.DetailedAnalysis),
		Recommendations:  fields.Recommendations,
		Categories:       fields.Categories,
		PatientInfo:      fields.PatientInfo,
		Model:            resp.Model,
	}
	if len(out.Measurements) == 0 {
		return Classification{}, failed("analysis contains no measurements", nil)
	}
	if out.PatientInfo != nil && out.PatientInfo.IsZero() {
		out.PatientInfo = nil
	}
	if len(out.Categories) == 0 {
		out.Categories = Categories(out.Measurements)
	}

	c.logger.Info("classify.ok",
		"model", out.Model,
		"measurements", len(out.Measurements),
		"categories", len(out.Categories),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// dedupe keeps the first measurement per name (case-insensitive) and maps
// known category labels onto their canonical spelling.
func (c *Classifier) dedupe(ms []entity.Measurement) []entity.Measurement {
	seen := make(map[string]struct{}, len(ms))
	out := make([]entity.Measurement, 0, len(ms))
	for _, m := range ms {
		m.Name = strings.TrimSpace(m.Name)
		key := strings.ToLower(m.Name)
		if _, dup := seen[key]; dup {
			c.logger.Warn("classify.duplicate_measurement", "name", m.Name)
			continue
		}
		seen[key] = struct{}{}
		if cat, ok := constants.Canonicalize(m.Category); ok {
			m.Category = string(cat)
		}
		out = append(out, m)
	}
	return out
}

func failed(msg string, cause error) error {
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return common.NewAppError(common.CodeAnalysisFailed, msg, common.ErrAnalysisFailed)
}
