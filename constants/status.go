package constants

// MeasurementStatus is the risk status assigned to a single measurement.
type MeasurementStatus string

const (
	StatusNormal  MeasurementStatus = "normal"
	StatusWarning MeasurementStatus = "warning"
	StatusDanger  MeasurementStatus = "danger"
)

// Statuses in display order, most severe first.
var Statuses = []MeasurementStatus{StatusDanger, StatusWarning, StatusNormal}

// Rank orders statuses for display: danger 0, warning 1, normal 2.
// Anything unrecognised sorts after normal.
func (s MeasurementStatus) Rank() int {
	switch s {
	case StatusDanger:
		return 0
	case StatusWarning:
		return 1
	case StatusNormal:
		return 2
	}
	return 3
}

func (s MeasurementStatus) Valid() bool {
	return s.Rank() < 3
}

// ReportStatusAnalyzed is stamped on every assembled report.
const ReportStatusAnalyzed = "Analyzed"
