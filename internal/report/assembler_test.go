package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

func TestAssemble(t *testing.T) {
	a := NewAssembler(nil)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	a.now = func() time.Time { return fixed }

	c := classify.Classification{
		Measurements: []entity.Measurement{
			{Name: "LDL", Value: "190", Status: constants.StatusDanger, Category: "Lipids"},
		},
		Summary: "High LDL.",
	}

	r := a.Assemble("LDL 190 mg/dL", c, Meta{Filename: "Report_John_Doe.pdf", OCRProvider: "openai/gpt-4o"})
	require.NotNil(t, r)

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixed.UTC(), r.Date)
	assert.Equal(t, "John Doe's Health Report", r.Title)
	require.NotNil(t, r.PatientInfo)
	assert.Equal(t, "John Doe", r.PatientInfo.Name)
	assert.Equal(t, constants.ReportStatusAnalyzed, r.Status)
	assert.Equal(t, "openai/gpt-4o", r.ModelUsed)
	assert.Equal(t, "openai/gpt-4o", r.OCRProvider)
	assert.Equal(t, []string{"Lipids"}, r.Categories)
	assert.Equal(t, "LDL 190 mg/dL", r.RawText)
	assert.Equal(t, []string{}, r.Recommendations)
	assert.Equal(t, constants.ReportTypeBlood, r.Type)
}

func TestAssemblePrefersClassification(t *testing.T) {
	a := NewAssembler(nil)
	c := classify.Classification{
		Measurements: []entity.Measurement{{Name: "TSH", Value: "2.1", Status: constants.StatusNormal}},
		PatientInfo:  &entity.PatientInfo{Name: "Ada Lovelace", Age: "36"},
		Model:        "openai/gpt-4o-mini",
	}

	r := a.Assemble("thyroid panel", c, Meta{Filename: "Report_John_Doe.pdf", OCRProvider: "C"})
	assert.Equal(t, "Ada Lovelace's Health Report", r.Title)
	assert.Equal(t, "openai/gpt-4o-mini", r.ModelUsed)
	assert.Equal(t, "C", r.OCRProvider, "text provider is kept alongside the analysis model")
	assert.Equal(t, "Ada Lovelace", r.PatientInfo.Name)

	r.PatientInfo.Name = "changed"
	assert.Equal(t, "Ada Lovelace", c.PatientInfo.Name, "classification is not aliased")

	second := a.Assemble("thyroid panel", c, Meta{Filename: "x.pdf"})
	assert.NotEqual(t, r.ID, second.ID)
}

func TestAssembleUnknownModel(t *testing.T) {
	r := NewAssembler(nil).Assemble("", classify.Classification{}, Meta{Filename: "scan.png"})
	assert.Equal(t, "Unknown", r.ModelUsed)
	assert.Empty(t, r.OCRProvider)
	assert.Nil(t, r.PatientInfo)
	assert.Equal(t, "scan", r.Title)
}
