package constants

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// DefaultOCRModel is retried once after every ranked candidate came back empty.
	DefaultOCRModel = "anthropic/claude-3-opus:beta"

	DefaultAnalysisModel = "openai/gpt-4o-mini"

	// MaxProviderCandidates bounds how many providers are consulted per image unit.
	MaxProviderCandidates = 5

	// NativeTextProvider is recorded when only the PDF text layer produced text.
	NativeTextProvider = "pdf-text"

	ImagePrompt           = "Extract all text from this image:"
	WholeDocumentPrompt   = "Extract all text from this health report:"
	VerifyMessage         = "Hello! This is a test message."
	DefaultOCRMaxTokens   = 4000
	DefaultOCRTemperature = 0.1
)

// FallbackVisionModels is used when the registry is unreachable or yields nothing usable.
var FallbackVisionModels = []string{
	"anthropic/claude-3-opus:beta",
	"openai/gpt-4o",
	"anthropic/claude-3-sonnet:beta",
	"google/gemini-pro-vision",
	"anthropic/claude-3-haiku:beta",
}
