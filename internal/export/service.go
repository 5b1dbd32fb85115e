package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

const (
	MeasurementsSheet = "Measurements"
	SummarySheet      = "Summary"
)

// ReportSource is the slice of the repository the exporter reads from.
type ReportSource interface {
	Latest(ctx context.Context) (*entity.Report, error)
	GetByID(ctx context.Context, id string) (*entity.Report, error)
}

// Service is a tiny façade over the report store that produces XLSX bytes for exports.
type Service struct {
	reports ReportSource
	logger  *slog.Logger
}

func NewService(reports ReportSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reports: reports, logger: logger}
}

// ReportXLSX returns an XLSX workbook (as bytes) for the report with the
// given id, or for the latest report when id is empty.
func (s *Service) ReportXLSX(ctx context.Context, id string) ([]byte, error) {
	var (
		r   *entity.Report
		err error
	)
	if id == "" {
		r, err = s.reports.Latest(ctx)
	} else {
		r, err = s.reports.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return s.Workbook(r)
}

// Workbook renders r as a two-sheet workbook.
func (s *Service) Workbook(r *entity.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for _, sheet := range []string{MeasurementsSheet, SummarySheet} {
		if index, _ := f.GetSheetIndex(sheet); index == -1 {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(MeasurementsSheet)
	f.SetActiveSheet(activeIndex)

	rows := writeMeasurements(f, r.Metrics)
	writeSummary(f, r)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"report_id", r.ID,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeMeasurements(f *excelize.File, ms []entity.Measurement) int {
	const sheet = MeasurementsSheet
	headers := []string{"Name", "Value", "Unit", "Range", "Status", "Category", "Description"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, m := range classify.SortForDisplay(ms) {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, m.Name)
		write(2, m.Value)
		write(3, m.Unit)
		write(4, m.Range)
		write(5, string(m.Status))
		write(6, classify.CategoryOf(m))
		write(7, truncate(m.Description, 140))
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // name
	_ = f.SetColWidth(sheet, "B", "C", 14) // value, unit
	_ = f.SetColWidth(sheet, "D", "D", 20) // range
	_ = f.SetColWidth(sheet, "E", "F", 14) // status, category
	_ = f.SetColWidth(sheet, "G", "G", 60) // description
	return row - 2
}

func writeSummary(f *excelize.File, r *entity.Report) {
	const sheet = SummarySheet
	counts := classify.CountRisks(r.Metrics)

	pairs := [][2]any{
		{"Title", r.Title},
		{"Type", r.Type},
		{"Date", r.Date.UTC().Format(time.RFC3339)},
		{"Model", r.ModelUsed},
		{"OCR provider", r.OCRProvider},
		{"Summary", r.Summary},
		{"Measurements", counts.Total},
		{"Danger", counts.Danger},
		{"Warning", counts.Warning},
		{"Normal", counts.Normal},
		{"Recommendations", strings.Join(r.Recommendations, "\n")},
	}
	for i, p := range pairs {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), p[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), p[1])
	}
	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "B", 80)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
