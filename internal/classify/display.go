package classify

import (
	"slices"
	"strings"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// SortForDisplay returns a copy of ms ordered danger, warning, normal.
// The sort is stable, so equal statuses keep their extraction order.
func SortForDisplay(ms []entity.Measurement) []entity.Measurement {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b entity.Measurement) int {
		return a.Status.Rank() - b.Status.Rank()
	})
	return out
}

// CategoryOf returns the measurement's category, or "Other" when blank.
func CategoryOf(m entity.Measurement) string {
	if c := strings.TrimSpace(m.Category); c != "" {
		return c
	}
	return string(constants.Other)
}

// Categories lists the distinct categories of ms in first-seen order.
func Categories(ms []entity.Measurement) []string {
	seen := make(map[string]struct{}, len(ms))
	var out []string
	for _, m := range ms {
		c := CategoryOf(m)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Filter selects measurements in category (empty or "all" matches every
// category) whose name or description contains query, case-insensitively.
func Filter(ms []entity.Measurement, category, query string) []entity.Measurement {
	category = strings.TrimSpace(category)
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]entity.Measurement, 0, len(ms))
	for _, m := range ms {
		if category != "" && !strings.EqualFold(category, "all") && !strings.EqualFold(CategoryOf(m), category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Description), query) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AtRisk returns the warning and danger measurements in their original order.
func AtRisk(ms []entity.Measurement) []entity.Measurement {
	out := make([]entity.Measurement, 0)
	for _, m := range ms {
		if m.Status == constants.StatusDanger || m.Status == constants.StatusWarning {
			out = append(out, m)
		}
	}
	return out
}

type RiskCounts struct {
	Total   int `json:"total"`
	Danger  int `json:"danger"`
	Warning int `json:"warning"`
	Normal  int `json:"normal"`
}

func CountRisks(ms []entity.Measurement) RiskCounts {
	rc := RiskCounts{Total: len(ms)}
	for _, m := range ms {
		switch m.Status {
		case constants.StatusDanger:
			rc.Danger++
		case constants.StatusWarning:
			rc.Warning++
		case constants.StatusNormal:
			rc.Normal++
		}
	}
	return rc
}
