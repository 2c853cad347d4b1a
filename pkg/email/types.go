package email

// HeaderReportID tags outgoing mail with the report it is about.
const HeaderReportID = "X-Playcare-Report"

// Message is one outgoing mail. At least one body must be set.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// ReportID, when set, is sent as the HeaderReportID header.
	ReportID string
}
