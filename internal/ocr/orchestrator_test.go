package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

func imageUnit(index int, whole bool) entity.ExtractionUnit {
	return entity.ExtractionUnit{
		Kind:          entity.UnitImage,
		Content:       entity.DataURL(constants.MediaTypePNG, []byte{byte(index)}),
		Index:         index,
		WholeDocument: whole,
	}
}

func TestExtractStopsAtFirstSuccess(t *testing.T) {
	vision := &fakeVision{
		fail:    map[string]bool{"A": true},
		answers: map[string]string{"B": "  ", "C": "Hemoglobin 13.5 g/dL (normal)", "D": "unused"},
	}
	obs := &recordingObserver{}
	o := NewOrchestrator(vision, Config{}, nil)

	res, err := o.Extract(context.Background(), []entity.ExtractionUnit{imageUnit(0, true)}, []string{"A", "B", "C", "D"}, "key", WithObserver(obs))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, vision.models())
	assert.Equal(t, "Hemoglobin 13.5 g/dL (normal)", res.Text)
	assert.Equal(t, "C", res.Provider)
	require.Len(t, res.Attempts, 3)
	assert.ErrorIs(t, res.Attempts[0].Err, common.ErrProviderUnavailable)
	assert.True(t, res.Attempts[2].Succeeded())
	assert.Equal(t, []string{"try:A", "fail:A", "try:B", "fail:B", "try:C", "ok:C"}, obs.events)
	assert.Equal(t, constants.WholeDocumentPrompt, vision.calls[0].Prompt)
}

func TestExtractCandidateBound(t *testing.T) {
	vision := &fakeVision{answers: map[string]string{"p7": "late text"}}
	o := NewOrchestrator(vision, Config{DefaultModel: "default"}, nil)
	providers := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}

	_, err := o.Extract(context.Background(), []entity.ExtractionUnit{imageUnit(0, true)}, providers, "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoTextExtracted)

	// five ranked candidates, then the single default retry
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "default"}, vision.models())
}

func TestExtractDefaultRetry(t *testing.T) {
	vision := &fakeVision{
		fail:    map[string]bool{"A": true, "B": true},
		answers: map[string]string{constants.DefaultOCRModel: "Glucose 90 mg/dL"},
	}
	o := NewOrchestrator(vision, Config{}, nil)

	res, err := o.Extract(context.Background(), []entity.ExtractionUnit{imageUnit(0, true)}, []string{"A", "B"}, "key")
	require.NoError(t, err)
	assert.Equal(t, "Glucose 90 mg/dL", res.Text)
	assert.Equal(t, constants.DefaultOCRModel, res.Provider)
	assert.Equal(t, []string{"A", "B", constants.DefaultOCRModel}, vision.models())
}

func TestExtractConcatenationOrder(t *testing.T) {
	vision := &fakeVision{answers: map[string]string{"A": "image text"}}
	o := NewOrchestrator(vision, Config{}, nil)

	units := []entity.ExtractionUnit{
		{Kind: entity.UnitText, Content: "layer text", Index: 0},
		imageUnit(1, false),
		imageUnit(2, false),
	}
	res, err := o.Extract(context.Background(), units, []string{"A"}, "key")
	require.NoError(t, err)

	assert.Equal(t, "layer text\nimage text\nimage text", res.Text)
	assert.Equal(t, "A", res.Provider)
	assert.Equal(t, constants.ImagePrompt, vision.calls[0].Prompt)
}

func TestExtractTextLayerOnly(t *testing.T) {
	vision := &fakeVision{fail: map[string]bool{"A": true}}
	o := NewOrchestrator(vision, Config{}, nil)

	units := []entity.ExtractionUnit{
		{Kind: entity.UnitText, Content: "Cholesterol 180", Index: 0},
		imageUnit(1, false),
	}
	res, err := o.Extract(context.Background(), units, []string{"A"}, "key")
	require.NoError(t, err)
	assert.Equal(t, "Cholesterol 180", res.Text)
	assert.Equal(t, constants.NativeTextProvider, res.Provider)
	assert.Equal(t, []string{"A"}, vision.models(), "no default retry when the text layer produced text")
}

func TestExtractEmptyPDFWithoutImages(t *testing.T) {
	vision := &fakeVision{}
	o := NewOrchestrator(vision, Config{}, nil)

	_, err := o.Extract(context.Background(), []entity.ExtractionUnit{{Kind: entity.UnitText, Content: " \n"}}, []string{"A"}, "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoTextExtracted)
	assert.Empty(t, vision.calls)
}

func TestExtractCancelled(t *testing.T) {
	vision := &fakeVision{answers: map[string]string{"A": "text"}}
	o := NewOrchestrator(vision, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Extract(ctx, []entity.ExtractionUnit{imageUnit(0, true)}, []string{"A"}, "key")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, vision.calls)
}

func TestExtractSurvivesPanickingObserver(t *testing.T) {
	vision := &fakeVision{
		fail:    map[string]bool{"A": true},
		answers: map[string]string{"B": "Glucose 92 mg/dL"},
	}
	obs := &panickingObserver{}
	o := NewOrchestrator(vision, Config{}, nil)

	var res Result
	require.NotPanics(t, func() {
		var err error
		res, err = o.Extract(context.Background(), []entity.ExtractionUnit{imageUnit(0, true)}, []string{"A", "B"}, "key", WithObserver(obs))
		require.NoError(t, err)
	})

	assert.Equal(t, []string{"A", "B"}, vision.models())
	assert.Equal(t, "Glucose 92 mg/dL", res.Text)
	assert.Equal(t, "B", res.Provider)
	assert.Equal(t, []string{"try:A", "try:B", "ok:B"}, obs.events)
}
