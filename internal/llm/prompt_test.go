package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAnalysisUserPromptTruncates(t *testing.T) {
	text := strings.Repeat("é", 50)

	full := BuildAnalysisUserPrompt(text, 100)
	assert.Contains(t, full, text)
	assert.NotContains(t, full, "truncated")

	cut := BuildAnalysisUserPrompt(text, 10)
	assert.Contains(t, cut, "(truncated)")
	assert.Contains(t, cut, strings.Repeat("é", 10))
	assert.NotContains(t, cut, strings.Repeat("é", 11))
}

func TestBuildAnalysisSystemPromptCategories(t *testing.T) {
	p := BuildAnalysisSystemPrompt([]string{"Blood", "Lipids"})
	assert.Contains(t, p, "Blood, Lipids")
	assert.Contains(t, p, "'status'")
}

func TestModelDescriptorAcceptsImages(t *testing.T) {
	var m ModelDescriptor
	assert.False(t, m.AcceptsImages())

	m.Architecture.InputModalities = []string{"text", "image"}
	assert.True(t, m.AcceptsImages())

	var legacy ModelDescriptor
	legacy.Architecture.Modality = "text+image->text"
	assert.True(t, legacy.AcceptsImages())

	legacy.Architecture.Modality = "text->image"
	assert.False(t, legacy.AcceptsImages())
}
