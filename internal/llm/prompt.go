package llm

import (
	"strings"
)

// BuildAnalysisSystemPrompt composes the system message for the analysis call.
func BuildAnalysisSystemPrompt(allowedCategories []string) string {
	var catLine string
	if len(allowedCategories) > 0 {
		catLine = "Give each metric a 'category' from: " + strings.Join(allowedCategories, ", ") + ". If none fits, omit it. "
	} else {
		catLine = "Give each metric a short 'category' label when one is obvious. "
	}

	parts := []string{
		"You are a medical laboratory report analyst. Return ONLY JSON that matches the provided JSON Schema.",
		"List every measured parameter under 'metrics' with its 'name', 'value', 'unit' and reference 'range' exactly as printed.",
		"Set 'status' to 'normal' when the value is within range, 'warning' when it is slightly outside, and 'danger' when it is far outside or flagged critical.",
		"'value' must be a single displayable value such as \"13.5\" or \"Negative\".",
		catLine,
		"Add a one-sentence 'description' of what each parameter measures.",
		"If earlier results for a parameter are printed, add them under 'history' as {date, value} pairs in date order.",
		"Write a short plain-language 'summary', a longer 'detailedAnalysis', and 3 to 6 actionable 'recommendations'.",
		"Fill 'patientInfo' only with details printed on the report (name, patientId, gender, dateOfBirth, age, collectionDate, facility, physician).",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildAnalysisUserPrompt packages the extracted text, truncated to maxChars runes.
func BuildAnalysisUserPrompt(text string, maxChars int) string {
	text = strings.TrimSpace(text)

	var b strings.Builder
	b.WriteString("Extracted report text")
	if r := []rune(text); maxChars > 0 && len(r) > maxChars {
		b.WriteString(" (truncated):\n")
		b.WriteString(string(r[:maxChars]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(":\n")
		b.WriteString(text)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}
