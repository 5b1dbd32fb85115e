package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/export"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
	"github.com/joseph-ayodele/health-reports/internal/repository"
)

type fakeProcessor struct {
	sink       pipeline.ReportSink
	err        error
	docs       []entity.Document
	credential string
}

func (f *fakeProcessor) Process(ctx context.Context, doc entity.Document, rc pipeline.RunConfig) (*entity.Report, error) {
	f.docs = append(f.docs, doc)
	f.credential = rc.Credential
	if f.err != nil {
		return nil, f.err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	r := sampleReport(doc.Name)
	if f.sink != nil {
		if err := f.sink.Save(ctx, r); err != nil {
			return r, err
		}
	}
	return r, nil
}

type fakeProviders struct {
	models []string
	keys   []string
}

func (f *fakeProviders) ListVisionCapable(_ context.Context, credential string) []string {
	f.keys = append(f.keys, credential)
	return f.models
}

func sampleReport(filename string) *entity.Report {
	return &entity.Report{
		ID:     uuid.NewString(),
		Title:  "Lipid Report: " + filename,
		Date:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:   constants.ReportTypeLipid,
		Status: constants.ReportStatusAnalyzed,
		Metrics: []entity.Measurement{
			{Name: "HDL", Value: "55", Unit: "mg/dL", Category: "Lipids", Status: constants.StatusNormal},
			{Name: "LDL", Value: "190", Unit: "mg/dL", Category: "Lipids", Status: constants.StatusDanger},
			{Name: "Glucose", Value: "105", Unit: "mg/dL", Category: "Metabolic", Status: constants.StatusWarning},
		},
		Recommendations: []string{"Recheck lipids in 3 months"},
		Summary:         "LDL is high.",
		Categories:      []string{"Lipids", "Metabolic"},
		ModelUsed:       "openai/gpt-4o-mini",
		OCRProvider:     "vendor/vision-c",
	}
}

type fixture struct {
	svc       *ReportService
	proc      *fakeProcessor
	providers *fakeProviders
	reports   repository.ReportRepository
	db        *repository.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reports := repository.NewReportRepository(db, nil)
	proc := &fakeProcessor{sink: reports}
	providers := &fakeProviders{models: []string{"vendor/vision-a", "vendor/vision-b"}}
	svc := NewReportService(proc, reports, export.NewService(reports, nil), providers, "sk-configured", nil)
	return &fixture{svc: svc, proc: proc, providers: providers, reports: reports, db: db}
}

func (f *fixture) seed(t *testing.T) *entity.Report {
	t.Helper()
	r := sampleReport("seed.pdf")
	require.NoError(t, f.reports.Save(context.Background(), r))
	return r
}

// pngBytes returns data that sniffs as image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
}
