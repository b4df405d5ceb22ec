package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectCycleReportFmt = "Revenue cycle #%d: %d deals, %s"
)

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type outreachEmailData struct {
	baseEmailData
	LeadName string
	Message  string
}

type cycleReportEmailData struct {
	baseEmailData
	CycleReport
	Started         string
	DurationSeconds string
	RevenueLabel    string
	TotalLabel      string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderOutreach(leadName, subject, message string) (string, error) {
	return renderEmailTemplate("outreach.html", outreachEmailData{
		baseEmailData: baseEmailData{Title: subject, Heading: subject},
		LeadName:      leadName,
		Message:       message,
	})
}

func renderCycleReport(report CycleReport) (subject, content string, err error) {
	subject = fmt.Sprintf(subjectCycleReportFmt, report.CycleNumber, report.DealsClosed, formatAmount(report.RevenueThisCycle))
	content, err = renderEmailTemplate("cycle_report.html", cycleReportEmailData{
		baseEmailData: baseEmailData{
			Title:      fmt.Sprintf("Cycle #%d", report.CycleNumber),
			Heading:    fmt.Sprintf("Revenue cycle #%d sealed", report.CycleNumber),
			Subheading: "Triggered by " + report.Trigger,
		},
		CycleReport:     report,
		Started:         report.StartedAt.UTC().Format(time.RFC3339),
		DurationSeconds: fmt.Sprintf("%.1f", report.EndedAt.Sub(report.StartedAt).Seconds()),
		RevenueLabel:    formatAmount(report.RevenueThisCycle),
		TotalLabel:      formatAmount(report.TotalRevenue),
	})
	return subject, content, err
}

// formatAmount renders whole currency units with thousands separators.
func formatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}
