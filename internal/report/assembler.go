package report

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// Meta is what the assembler knows about a run besides its classification.
type Meta struct {
	Filename    string
	OCRProvider string
}

type Assembler struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{now: time.Now, logger: logger}
}

// Assemble builds a fresh Report from one run. It never merges with earlier
// reports; the caller decides what the new report supersedes.
func (a *Assembler) Assemble(text string, c classify.Classification, meta Meta) *entity.Report {
	var info *entity.PatientInfo
	if c.PatientInfo != nil && !c.PatientInfo.IsZero() {
		cp := *c.PatientInfo
		info = &cp
	}

	patient := ""
	if info != nil {
		patient = strings.TrimSpace(info.Name)
	}
	if patient == "" {
		if guess := PatientNameFromFilename(meta.Filename); guess != "" {
			patient = guess
			if info == nil {
				info = &entity.PatientInfo{}
			}
			info.Name = guess
		}
	}

	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = meta.OCRProvider
	}
	if model == "" {
		model = "Unknown"
	}

	categories := slices.Clone(c.Categories)
	if len(categories) == 0 {
		categories = classify.Categories(c.Measurements)
	}

	r := &entity.Report{
		ID:               uuid.NewString(),
		Title:            Title(patient, meta.Filename),
		Date:             a.now().UTC(),
		Type:             DetectReportType(meta.Filename, text),
		Status:           constants.ReportStatusAnalyzed,
		Metrics:          slices.Clone(c.Measurements),
		Recommendations:  slices.Clone(c.Recommendations),
		RawText:          text,
		Summary:          c.Summary,
		DetailedAnalysis: c.DetailedAnalysis,
		Categories:       categories,
		PatientInfo:      info,
		ModelUsed:        model,
		OCRProvider:      meta.OCRProvider,
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}

	a.logger.Info("report.assembled",
		"report_id", r.ID,
		"type", r.Type,
		"metrics", len(r.Metrics),
		"patient_known", patient != "",
		"model", r.ModelUsed,
		"ocr_provider", r.OCRProvider,
	)
	return r
}
