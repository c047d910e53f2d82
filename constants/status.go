package constants

// ReportStatus is the canonical status for rows in report_history.
type ReportStatus string

// Stable values (store these exact strings in DB).
const (
	ReportStatusOK     ReportStatus = "OK"     // artifact produced
	ReportStatusFailed ReportStatus = "FAILED" // projection or encoding failed
)
