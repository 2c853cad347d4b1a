package email

import (
	"fmt"
	"html"
)

// ReportReadyData fills the "report document ready" mail.
type ReportReadyData struct {
	ReportID      string
	TherapistName string
	Email         string
	PatientName   string
	ReportTitle   string
	FileName      string
	Pages         int
	DownloadURL   string
	AppName       string
	PrimaryColor  string
}

// BuildReportReadyEmail tells a therapist that an exported report can be downloaded.
func BuildReportReadyEmail(data ReportReadyData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "PlayCare"
	}
	color := data.PrimaryColor
	if color == "" {
		color = "#0f766e"
	}
	name := data.TherapistName
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Report for %s is ready", data.PatientName)

	textBody := fmt.Sprintf(`Hi %s,

The report "%s" for %s has been exported (%d pages).

Download it here:
%s

The link expires after a short time. You can always request a new one from the dashboard.

The %s Team`,
		name, data.ReportTitle, data.PatientName, data.Pages, data.DownloadURL, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: %s;">Hi %s,</h2>
    <p>The report <strong>%s</strong> for %s has been exported (%d pages).</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download %s</a>
    </p>
    <p style="color: #6b7280; font-size: 14px;">The link expires after a short time. You can always request a new one from the dashboard.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">The %s Team</p>
</body>
</html>`,
		color, html.EscapeString(name), html.EscapeString(data.ReportTitle), html.EscapeString(data.PatientName),
		data.Pages, html.EscapeString(data.DownloadURL), color, html.EscapeString(data.FileName), appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		ReportID: data.ReportID,
	}
}
