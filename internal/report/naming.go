package report

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/health-reports/constants"
)

var (
	titledNameRe   = regexp.MustCompile(`(?i)(?:^|[\s_\-.])(?:Mr|Mrs|Ms|Miss|Dr)[\s_\-.]+([A-Za-z][A-Za-z\s_\-]*)`)
	leadingWordRe  = regexp.MustCompile(`(?i)^(?:Report|Lab|Test|Result|Health)[\s_\-]+`)
	separatorRe    = regexp.MustCompile(`[\s_\-.]+`)
	allDigitsRe    = regexp.MustCompile(`^\d+$`)
	reportVocabSet = map[string]struct{}{
		"report": {}, "reports": {}, "lab": {}, "labs": {}, "test": {}, "tests": {},
		"result": {}, "results": {}, "health": {}, "panel": {}, "blood": {}, "lipid": {},
		"lipids": {}, "cbc": {}, "cholesterol": {}, "metabolic": {}, "liver": {},
		"kidney": {}, "renal": {}, "thyroid": {}, "glucose": {}, "sugar": {}, "scan": {},
		"count": {}, "complete": {}, "profile": {}, "final": {}, "copy": {},
	}
)

// PatientNameFromFilename guesses a patient name from an upload filename,
// e.g. "Report_John_Doe.pdf" or "Mrs-Jane-Smith.png". It returns "" when
// fewer than two plausible name tokens remain.
func PatientNameFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		return ""
	}

	if m := titledNameRe.FindStringSubmatch(base); m != nil {
		if name := strings.TrimSpace(separatorRe.ReplaceAllString(m[1], " ")); name != "" {
			return name
		}
	}

	rest := leadingWordRe.ReplaceAllString(base, "")
	var parts []string
	for _, p := range separatorRe.Split(rest, -1) {
		if len(p) <= 1 || allDigitsRe.MatchString(p) {
			continue
		}
		if _, vocab := reportVocabSet[strings.ToLower(p)]; vocab {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, " ")
}

type typeRule struct {
	reportType string
	anywhere   []string // filename or body
	bodyOnly   []string
}

// typeRules are scanned in order; the first hit wins.
var typeRules = []typeRule{
	{reportType: constants.ReportTypeBlood, anywhere: []string{"blood"}},
	{reportType: constants.ReportTypeCholesterol, anywhere: []string{"cholesterol"}},
	{reportType: constants.ReportTypeCBC, anywhere: []string{"cbc", "complete blood count"}},
	{reportType: constants.ReportTypeMetabolic, anywhere: []string{"metabolic"}, bodyOnly: []string{"panel"}},
	{reportType: constants.ReportTypeLiver, anywhere: []string{"liver", "hepatic"}},
	{reportType: constants.ReportTypeKidney, anywhere: []string{"kidney", "renal"}},
	{reportType: constants.ReportTypeThyroid, anywhere: []string{"thyroid"}},
	{reportType: constants.ReportTypeLipid, anywhere: []string{"lipid"}},
	{reportType: constants.ReportTypeGlucose, anywhere: []string{"glucose", "sugar"}},
}

// DetectReportType tags a report by keyword. Unmatched reports are "blood".
func DetectReportType(filename, text string) string {
	name := strings.ToLower(filename)
	body := strings.ToLower(text)

	for _, r := range typeRules {
		for _, kw := range r.anywhere {
			if strings.Contains(name, kw) || strings.Contains(body, kw) {
				return r.reportType
			}
		}
		for _, kw := range r.bodyOnly {
			if strings.Contains(body, kw) {
				return r.reportType
			}
		}
	}
	return constants.DefaultReportType
}

// Title names a report after the patient, else after the file.
func Title(patientName, filename string) string {
	if n := strings.TrimSpace(patientName); n != "" {
		return n + "'s Health Report"
	}
	if base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)); base != "" && base != "." {
		return base
	}
	return "Health Report"
}
