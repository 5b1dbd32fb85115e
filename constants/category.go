package constants

import (
	"strings"
)

type Category string

const (
	Blood        Category = "Blood"
	Lipids       Category = "Lipids"
	Liver        Category = "Liver"
	Kidney       Category = "Kidney"
	Thyroid      Category = "Thyroid"
	Metabolic    Category = "Metabolic"
	Electrolytes Category = "Electrolytes"
	Vitamins     Category = "Vitamins"
	Hormones     Category = "Hormones"
	Urine        Category = "Urine"
	Other        Category = "Other"
)

var allCategories = []Category{
	Blood,
	Lipids,
	Liver,
	Kidney,
	Thyroid,
	Metabolic,
	Electrolytes,
	Vitamins,
	Hormones,
	Urine,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a provider-supplied category label onto the known set.
// Unknown labels report false and the caller keeps its own value.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"hematology":           Blood,
		"complete blood count": Blood,
		"cbc":                  Blood,
		"lipid":                Lipids,
		"lipid panel":          Lipids,
		"lipid profile":        Lipids,
		"cholesterol":          Lipids,
		"hepatic":              Liver,
		"liver function":       Liver,
		"renal":                Kidney,
		"kidney function":      Kidney,
		"glucose":              Metabolic,
		"diabetes":             Metabolic,
		"electrolyte":          Electrolytes,
		"vitamin":              Vitamins,
		"hormone":              Hormones,
		"urinalysis":           Urine,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
