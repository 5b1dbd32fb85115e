package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
	"github.com/joseph-ayodele/health-reports/internal/repository"
)

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, doc entity.Document, rc pipeline.RunConfig) (*entity.Report, error)
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	ReportXLSX(ctx context.Context, id string) ([]byte, error)
}

// ReportService is the transport-independent API shared by the gRPC and
// HTTP front ends.
type ReportService struct {
	proc       DocumentProcessor
	reports    repository.ReportRepository
	exporter   Exporter
	providers  pipeline.ProviderLister
	credential string
	logger     *slog.Logger
}

func NewReportService(
	proc DocumentProcessor,
	reports repository.ReportRepository,
	exporter Exporter,
	providers pipeline.ProviderLister,
	credential string,
	logger *slog.Logger,
) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		proc:       proc,
		reports:    reports,
		exporter:   exporter,
		providers:  providers,
		credential: credential,
		logger:     logger,
	}
}

const maxFilenameLen = 255

// UploadRequest is one document submitted for analysis.
type UploadRequest struct {
	Filename   string
	MediaType  string // optional; resolved from the name or content when empty
	Data       []byte
	Credential string // optional; overrides the configured key
}

func (s *ReportService) key(override string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return s.credential
}

// Analyze runs the pipeline on an uploaded document.
func (s *ReportService) Analyze(ctx context.Context, req UploadRequest) (*entity.Report, error) {
	err := common.NewValidator().
		Field("filename", req.Filename, common.Required, common.MaxLength(maxFilenameLen)).
		Error()
	if err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", common.ErrInvalidInput)
	}

	doc := entity.NewDocument(req.Filename, req.Data)
	if mt := strings.TrimSpace(req.MediaType); mt != "" && constants.IsAllowedMediaType(mt) {
		doc.MediaType = mt
	}

	s.logger.Info("server.analyze.start", "filename", doc.Name, "media_type", doc.MediaType, "bytes", doc.Size)
	return s.proc.Process(ctx, doc, pipeline.RunConfig{
		Credential: s.key(req.Credential),
		Observer:   ocr.LogObserver{Logger: s.logger.With("filename", doc.Name)},
	})
}

func (s *ReportService) Latest(ctx context.Context) (*entity.Report, error) {
	return s.reports.Latest(ctx)
}

func (s *ReportService) Get(ctx context.Context, id string) (*entity.Report, error) {
	if err := common.NewValidator().Field("id", id, common.Required, common.UUID).Error(); err != nil {
		return nil, err
	}
	return s.reports.GetByID(ctx, id)
}

// Export renders the report (latest when id is empty) as an XLSX workbook.
func (s *ReportService) Export(ctx context.Context, id string) ([]byte, error) {
	b, err := s.exporter.ReportXLSX(ctx, strings.TrimSpace(id))
	if err != nil {
		s.logger.Error("export.xlsx.failed", "report_id", id, "err", err)
		return nil, err
	}
	return b, nil
}

func (s *ReportService) ListModels(ctx context.Context, credential string) []string {
	return s.providers.ListVisionCapable(ctx, s.key(credential))
}

func (s *ReportService) Clear(ctx context.Context) (int64, error) {
	return s.reports.Clear(ctx)
}
