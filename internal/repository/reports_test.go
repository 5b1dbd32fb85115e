package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newReport(title string, at time.Time) *entity.Report {
	return &entity.Report{
		ID:     uuid.NewString(),
		Title:  title,
		Date:   at,
		Type:   constants.ReportTypeLipid,
		Status: constants.ReportStatusAnalyzed,
		Metrics: []entity.Measurement{
			{Name: "LDL", Value: "190", Unit: "mg/dL", Status: constants.StatusDanger},
		},
		Recommendations: []string{"Recheck in 3 months"},
		Categories:      []string{"Lipids"},
		PatientInfo:     &entity.PatientInfo{Name: "Jane Doe"},
		ModelUsed:       "openai/gpt-4o-mini",
	}
}

func TestReportRepositorySupersedes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewReportRepository(db, nil)

	first := newReport("first", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := newReport("second", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, second.Metrics, latest.Metrics)
	assert.Equal(t, "Jane Doe", latest.PatientInfo.Name)
	assert.True(t, second.Date.Equal(latest.Date))

	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "the earlier report is superseded")

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
}

func TestReportRepositoryEmptyAndClear(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewReportRepository(db, nil)

	_, err := repo.Latest(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.Save(ctx, newReport("only", time.Now())))
	n, err := repo.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReportRepositoryRejectsMissingID(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), nil)
	assert.ErrorIs(t, repo.Save(context.Background(), &entity.Report{}), common.ErrInvalidInput)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), time.Second))
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/db"))
	assert.False(t, IsPostgresDSN("file:health-reports.db"))
	assert.False(t, IsPostgresDSN(":memory:"))
}
