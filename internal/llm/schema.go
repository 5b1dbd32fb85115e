package llm

import (
	"github.com/joseph-ayodele/health-reports/constants"
)

// BuildAnalysisJSONSchema returns the JSON Schema every analysis document must
// satisfy once sanitised. Values are strings by then, so the schema is strict.
func BuildAnalysisJSONSchema() map[string]any {
	statuses := make([]string, 0, len(constants.Statuses))
	for _, s := range constants.Statuses {
		statuses = append(statuses, string(s))
	}

	history := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date":  map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			},
			"required": []string{"date", "value"},
		},
	}

	metric := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "minLength": 1},
			"value":       map[string]any{"type": "string", "minLength": 1},
			"unit":        map[string]any{"type": "string"},
			"category":    map[string]any{"type": "string"},
			"range":       map[string]any{"type": "string"},
			"status":      map[string]any{"type": "string", "enum": statuses},
			"description": map[string]any{"type": "string"},
			"history":     history,
		},
		"required": []string{"name", "value", "status"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"metrics":          map[string]any{"type": "array", "minItems": 1, "items": metric},
			"summary":          map[string]any{"type": "string"},
			"detailedAnalysis": map[string]any{"type": "string"},
			"recommendations":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"categories":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"patientInfo":      map[string]any{"type": "object"},
		},
		"required": []string{"metrics"},
	}
}
