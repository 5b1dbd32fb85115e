package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, raw string) map[string]any {
	t.Helper()
	out, _, err := NormalizeAnalysisJSON([]byte(raw), nil)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	return m
}

func firstMetric(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	metrics, ok := m["metrics"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, metrics)
	metric, ok := metrics[0].(map[string]any)
	require.True(t, ok)
	return metric
}

func TestNormalizeMetricValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "string", value: `" 13.5 "`, want: "13.5"},
		{name: "number", value: `13.5`, want: "13.5"},
		{name: "trailing zeros", value: `13.50`, want: "13.5"},
		{name: "integer", value: `200`, want: "200"},
		{name: "bool", value: `true`, want: "true"},
		{name: "object", value: `{"systolic":120,"diastolic":80}`, want: `{"diastolic":80,"systolic":120}`},
		{name: "array", value: `[1,2]`, want: `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := normalize(t, `{"metrics":[{"name":"X","value":`+tt.value+`,"status":"normal"}]}`)
			assert.Equal(t, tt.want, firstMetric(t, m)["value"])
		})
	}
}

func TestNormalizeStatusAndOptionals(t *testing.T) {
	m := normalize(t, `{
		"metrics":[{"name":"LDL","value":"190","status":" DANGER ","unit":null,"description":"",
			"history":[{"date":"2023-01-01","value":160},{"date":null,"value":1},"junk"]}],
		"summary":null,
		"recommendations":"See a doctor",
		"patientInfo":{"name":"Jane Doe","age":42,"shoeSize":9,"gender":null},
		"extra":"dropped"
	}`)

	metric := firstMetric(t, m)
	assert.Equal(t, "danger", metric["status"])
	assert.NotContains(t, metric, "unit")
	assert.NotContains(t, metric, "description")
	assert.Equal(t, []any{map[string]any{"date": "2023-01-01", "value": "160"}}, metric["history"])

	assert.NotContains(t, m, "summary")
	assert.NotContains(t, m, "extra")
	assert.Equal(t, []any{"See a doctor"}, m["recommendations"])
	assert.Equal(t, map[string]any{"name": "Jane Doe", "age": "42"}, m["patientInfo"])
}

func TestNormalizeKeepsMissingRequired(t *testing.T) {
	out, _, err := NormalizeAnalysisJSON([]byte(`{"metrics":[{"name":"X","value":null,"status":"normal"}]}`), nil)
	require.NoError(t, err)
	assert.Error(t, ValidateAnalysis(out), "a null value is dropped, not invented")
}

func TestNormalizeRejectsNonObject(t *testing.T) {
	_, _, err := NormalizeAnalysisJSON([]byte(`[1,2,3]`), nil)
	assert.Error(t, err)
}
