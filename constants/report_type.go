package constants

// Report types, tagged by keyword scan over filename and extracted text.
const (
	ReportTypeBlood       = "blood"
	ReportTypeCholesterol = "cholesterol"
	ReportTypeCBC         = "cbc"
	ReportTypeMetabolic   = "metabolic"
	ReportTypeLiver       = "liver"
	ReportTypeKidney      = "kidney"
	ReportTypeThyroid     = "thyroid"
	ReportTypeLipid       = "lipid"
	ReportTypeGlucose     = "glucose"

	DefaultReportType = ReportTypeBlood
)
