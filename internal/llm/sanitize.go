package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

var (
	stringFields      = []string{"name", "unit", "category", "range", "description"}
	patientInfoFields = map[string]struct{}{
		"name": {}, "patientId": {}, "gender": {}, "dateOfBirth": {}, "age": {},
		"collectionDate": {}, "facility": {}, "physician": {},
	}
	topLevelFields = map[string]struct{}{
		"metrics": {}, "summary": {}, "detailedAnalysis": {}, "recommendations": {},
		"categories": {}, "patientInfo": {},
	}
)

// NormalizeAnalysisJSON reshapes a provider analysis document so it can be
// validated strictly:
//   - metric values (and history values) become display strings; objects and
//     arrays are serialized as compact JSON
//   - statuses are trimmed and lower-cased
//   - null or empty optionals are dropped, as are unknown top-level keys
//
// Required fields are never invented; a metric missing one still fails validation.
func NormalizeAnalysisJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changed := make([]string, 0, 8)

	for k := range maps.Clone(m) {
		if _, ok := topLevelFields[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	for _, k := range []string{"summary", "detailedAnalysis"} {
		if v, ok := m[k]; ok {
			if s, ok := DisplayValue(v); ok {
				m[k] = s
			} else {
				delete(m, k)
				changed = append(changed, k+"(null)")
			}
		}
	}

	for _, k := range []string{"recommendations", "categories"} {
		if v, ok := m[k]; ok {
			list, ok := stringList(v)
			if !ok {
				delete(m, k)
				changed = append(changed, k+"(type)")
				continue
			}
			m[k] = list
		}
	}

	if v, ok := m["patientInfo"]; ok {
		info, ok := v.(map[string]any)
		if !ok {
			delete(m, "patientInfo")
			changed = append(changed, "patientInfo(type)")
		} else {
			for k, fv := range info {
				if _, known := patientInfoFields[k]; !known {
					delete(info, k)
					continue
				}
				if s, ok := DisplayValue(fv); ok && s != "" {
					info[k] = s
				} else {
					delete(info, k)
				}
			}
		}
	}

	if metrics, ok := m["metrics"].([]any); ok {
		for i, item := range metrics {
			metric, ok := item.(map[string]any)
			if !ok {
				continue
			}
			changed = append(changed, normalizeMetric(i, metric)...)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.analysis.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}

func normalizeMetric(i int, metric map[string]any) []string {
	var changed []string
	tag := func(field, why string) {
		changed = append(changed, fmt.Sprintf("metrics[%d].%s(%s)", i, field, why))
	}

	if v, ok := metric["value"]; ok {
		switch v.(type) {
		case map[string]any, []any:
			tag("value", "composite")
		}
		if s, ok := DisplayValue(v); ok {
			metric["value"] = s
		} else {
			delete(metric, "value")
			tag("value", "null")
		}
	}

	if v, ok := metric["status"].(string); ok {
		metric["status"] = strings.ToLower(strings.TrimSpace(v))
	}

	for _, k := range stringFields {
		v, ok := metric[k]
		if !ok {
			continue
		}
		s, ok := DisplayValue(v)
		if !ok || (s == "" && k != "name") {
			delete(metric, k)
			continue
		}
		metric[k] = s
	}

	if v, ok := metric["history"]; ok {
		points, ok := v.([]any)
		if !ok {
			delete(metric, "history")
			tag("history", "type")
			return changed
		}
		kept := make([]any, 0, len(points))
		for _, p := range points {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			date, okDate := DisplayValue(pm["date"])
			value, okValue := DisplayValue(pm["value"])
			if !okDate || !okValue || date == "" || value == "" {
				continue
			}
			kept = append(kept, map[string]any{"date": date, "value": value})
		}
		if len(kept) != len(points) {
			tag("history", "dropped")
		}
		if len(kept) == 0 {
			delete(metric, "history")
		} else {
			metric["history"] = kept
		}
	}
	return changed
}

// DisplayValue renders a decoded JSON value as a display string. Numbers take
// their shortest form ("13.50" becomes "13.5"); objects and arrays are
// serialized as compact JSON. It reports false for null.
func DisplayValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}, true
		}
		return []string{}, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := DisplayValue(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}
