package llm

import (
	"context"
	"slices"
	"strings"

	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// ModelDescriptor is one entry of the provider registry's model listing.
type ModelDescriptor struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Architecture struct {
		Modality        string   `json:"modality,omitempty"`
		InputModalities []string `json:"input_modalities,omitempty"`
	} `json:"architecture"`
}

// AcceptsImages reports whether the model declares image input. The legacy
// "modality" string ("text+image->text") is honoured as well.
func (m ModelDescriptor) AcceptsImages() bool {
	if slices.Contains(m.Architecture.InputModalities, "image") {
		return true
	}
	in, _, _ := strings.Cut(m.Architecture.Modality, "->")
	return strings.Contains(in, "image")
}

// Registry lists the models a credential can reach.
type Registry interface {
	ListModels(ctx context.Context, credential string) ([]ModelDescriptor, error)
}

// VisionRequest asks one model to transcribe one image.
type VisionRequest struct {
	Model    string
	ImageURL string // data URL
	Prompt   string
}

// VisionExtractor performs a single vision completion. An empty string with a
// nil error means the model answered but found no text.
type VisionExtractor interface {
	ExtractText(ctx context.Context, credential string, req VisionRequest) (string, error)
}

type AnalyzeRequest struct {
	Text              string
	AllowedCategories []string
}

// AnalyzeResponse carries the raw completion; validation is up to the caller.
type AnalyzeResponse struct {
	Content string
	Model   string
}

// Analyzer turns extracted report text into a JSON analysis document.
type Analyzer interface {
	Analyze(ctx context.Context, credential string, req AnalyzeRequest) (AnalyzeResponse, error)
}

// AnalysisFields is the validated shape of an analysis document.
type AnalysisFields struct {
	Metrics          []entity.Measurement `json:"metrics"`
	Summary          string               `json:"summary"`
	DetailedAnalysis string               `json:"detailedAnalysis"`
	Recommendations  []string             `json:"recommendations"`
	Categories       []string             `json:"categories"`
	PatientInfo      *entity.PatientInfo  `json:"patientInfo,omitempty"`
}
