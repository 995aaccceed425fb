package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFGenerator generates PDF reports
type PDFGenerator struct{}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Color definitions
var (
	colorPrimary = []int{37, 99, 235}   // Blue
	colorDanger  = []int{239, 68, 68}   // Red
	colorWarning = []int{245, 158, 11}  // Amber
	colorSuccess = []int{34, 197, 94}   // Green
	colorMuted   = []int{107, 114, 128} // Gray
	colorDark    = []int{31, 41, 55}    // Dark gray
	colorLight   = []int{243, 244, 246} // Light gray
	colorWhite   = []int{255, 255, 255}
)

// Generate creates a PDF report from the report data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	g.addCoverPage(pdf, data)
	g.addSummary(pdf, data)

	if len(data.TopAttackers) > 0 {
		g.addTopAttackers(pdf, data, tr)
	}
	if len(data.TopCommands) > 0 {
		g.addRankedTable(pdf, "Dangerous Commands", []string{"#", "Command", "Count"}, data.TopCommands, tr)
	}
	if data.PasswordPatterns != nil {
		g.addCredentialSection(pdf, data, tr)
	}
	if len(data.DailySessions) > 0 {
		g.addRankedTable(pdf, "Daily Sessions", []string{"#", "Date", "Sessions"}, data.DailySessions, tr)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addCoverPage(pdf *fpdf.Fpdf, data *ReportData) {
	pdf.AddPage()

	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, 210, 100, "F")

	pdf.SetTextColor(colorWhite[0], colorWhite[1], colorWhite[2])
	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetY(35)
	pdf.CellFormat(0, 12, "HONEYDASH", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 8, "SSH Honeypot Activity Report", "", 1, "C", false, 0, "")

	pdf.SetY(70)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, data.Period, "", 1, "C", false, 0, "")

	pdf.SetY(120)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("January 2, 2006 at 15:04 UTC")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Report ID: %s", data.ID), "", 1, "C", false, 0, "")

	pdf.SetY(270)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 4, "Captured attacker data may contain hostile strings", "", 1, "C", false, 0, "")
}

func (g *PDFGenerator) addSummary(pdf *fpdf.Fpdf, data *ReportData) {
	pdf.AddPage()
	g.addSectionHeader(pdf, "Summary")

	startY := pdf.GetY() + 5
	cardWidth := 85.0
	cardHeight := 25.0

	g.drawMetricCard(pdf, 15, startY, cardWidth, cardHeight, "Total Sessions", g.formatNumber(data.Statistics.TotalSessions), colorPrimary)
	g.drawMetricCard(pdf, 105, startY, cardWidth, cardHeight, "Unique Source IPs", g.formatNumber(data.Statistics.UniqueIPs), colorWarning)
	g.drawMetricCard(pdf, 15, startY+30, cardWidth, cardHeight, "Commands Executed", g.formatNumber(data.Statistics.TotalCommands), colorSuccess)
	g.drawMetricCard(pdf, 105, startY+30, cardWidth, cardHeight, "Dangerous Command Kinds", g.formatNumber(data.DangerousKinds), colorDanger)

	pdf.SetY(startY + 70)
	g.addSubHeader(pdf, "Login Outcomes")

	outcomes := []struct {
		Label string
		Value int
		Color []int
	}{
		{"Successful", data.Logins.Success, colorDanger},
		{"Failed", data.Logins.Failed, colorSuccess},
		{"Unknown", data.Logins.Unknown, colorMuted},
	}

	total := data.Logins.Success + data.Logins.Failed + data.Logins.Unknown
	barY := pdf.GetY() + 3
	for _, o := range outcomes {
		g.drawHorizontalBar(pdf, 15, barY, 120, 8, o.Label, o.Value, total, o.Color)
		barY += 12
	}
	pdf.SetY(barY + 5)

	if len(data.CountryBreakdown) > 0 {
		g.addSubHeader(pdf, "Sessions by Country")
		maxCount := data.CountryBreakdown[0].Count
		barY = pdf.GetY() + 3
		for _, c := range data.CountryBreakdown {
			g.drawHorizontalBar(pdf, 15, barY, 120, 8, c.Name, c.Count, maxCount, colorPrimary)
			barY += 12
		}
		pdf.SetY(barY)
	}
}

func (g *PDFGenerator) addTopAttackers(pdf *fpdf.Fpdf, data *ReportData, tr func(string) string) {
	pdf.AddPage()
	g.addSectionHeader(pdf, "Top Attacking IPs")

	widths := []float64{10, 60, 30, 80}
	g.drawTableHeader(pdf, []string{"#", "IP Address", "Sessions", "Country"}, widths)
	for i, a := range data.TopAttackers {
		g.drawTableRow(pdf, []string{
			fmt.Sprintf("%d", i+1),
			a.IP,
			g.formatNumber(a.Sessions),
			tr(g.truncateString(a.Country, 40)),
		}, widths, i%2 == 1)
	}
}

func (g *PDFGenerator) addRankedTable(pdf *fpdf.Fpdf, title string, headers []string, rows []NameCount, tr func(string) string) {
	pdf.Ln(8)
	if pdf.GetY() > 200 {
		pdf.AddPage()
	}
	g.addSectionHeader(pdf, title)

	widths := []float64{10, 140, 30}
	g.drawTableHeader(pdf, headers, widths)
	for i, r := range rows {
		g.drawTableRow(pdf, []string{
			fmt.Sprintf("%d", i+1),
			tr(g.truncateString(r.Name, 80)),
			g.formatNumber(r.Count),
		}, widths, i%2 == 1)
	}
}

func (g *PDFGenerator) addCredentialSection(pdf *fpdf.Fpdf, data *ReportData, tr func(string) string) {
	pdf.AddPage()
	g.addSectionHeader(pdf, "Credentials")

	g.addSubHeader(pdf, "Password Patterns")
	p := data.PasswordPatterns
	patterns := []struct {
		Label string
		Value int
	}{
		{"Numeric only", p.NumericOnly},
		{"Letters only", p.AlphaOnly},
		{"Alphanumeric", p.Alphanumeric},
		{"Special characters", p.SpecialChars},
		{"Empty", p.Empty},
		{"Common weak", p.CommonWeak},
	}
	maxCount := 0
	for _, pt := range patterns {
		if pt.Value > maxCount {
			maxCount = pt.Value
		}
	}
	barY := pdf.GetY() + 3
	for _, pt := range patterns {
		g.drawHorizontalBar(pdf, 15, barY, 120, 8, pt.Label, pt.Value, maxCount, colorWarning)
		barY += 12
	}
	pdf.SetY(barY + 5)

	if len(data.TopPasswords) > 0 {
		g.addSubHeader(pdf, "Most Tried Passwords")
		widths := []float64{10, 140, 30}
		g.drawTableHeader(pdf, []string{"#", "Password", "Attempts"}, widths)
		for i, pw := range data.TopPasswords {
			g.drawTableRow(pdf, []string{
				fmt.Sprintf("%d", i+1),
				tr(g.truncateString(pw.Password, 60)),
				g.formatNumber(pw.Count),
			}, widths, i%2 == 1)
		}
		pdf.Ln(5)
	}

	if len(data.TopUsernames) > 0 {
		g.addSubHeader(pdf, "Most Tried Usernames")
		widths := []float64{10, 140, 30}
		g.drawTableHeader(pdf, []string{"#", "Username", "Sessions"}, widths)
		for i, u := range data.TopUsernames {
			g.drawTableRow(pdf, []string{
				fmt.Sprintf("%d", i+1),
				tr(g.truncateString(u.Name, 60)),
				g.formatNumber(u.Count),
			}, widths, i%2 == 1)
		}
	}
}

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(5)
}

func (g *PDFGenerator) addSubHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (g *PDFGenerator) drawMetricCard(pdf *fpdf.Fpdf, x, y, w, h float64, label string, value string, color []int) {
	pdf.SetFillColor(colorLight[0], colorLight[1], colorLight[2])
	pdf.RoundedRect(x, y, w, h, 2, "1234", "F")

	// Color accent
	pdf.SetFillColor(color[0], color[1], color[2])
	pdf.Rect(x, y, 3, h, "F")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.SetXY(x+6, y+3)
	pdf.CellFormat(w-8, 4, label, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetXY(x+6, y+10)
	pdf.CellFormat(w-8, 8, value, "", 0, "L", false, 0, "")
}

func (g *PDFGenerator) drawHorizontalBar(pdf *fpdf.Fpdf, x, y, maxWidth, height float64, label string, value, maxValue int, color []int) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetXY(x, y)
	pdf.CellFormat(50, height, label, "", 0, "L", false, 0, "")

	barX := x + 52
	barWidth := maxWidth - 80
	pdf.SetFillColor(colorLight[0], colorLight[1], colorLight[2])
	pdf.Rect(barX, y+1, barWidth, height-2, "F")

	if maxValue > 0 && value > 0 {
		fillWidth := float64(value) / float64(maxValue) * barWidth
		pdf.SetFillColor(color[0], color[1], color[2])
		pdf.Rect(barX, y+1, fillWidth, height-2, "F")
	}

	pdf.SetXY(barX+barWidth+3, y)
	pdf.CellFormat(25, height, g.formatNumber(value), "", 0, "R", false, 0, "")
}

func (g *PDFGenerator) drawTableHeader(pdf *fpdf.Fpdf, headers []string, widths []float64) {
	pdf.SetFillColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetTextColor(colorWhite[0], colorWhite[1], colorWhite[2])
	pdf.SetFont("Helvetica", "B", 9)

	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *PDFGenerator) drawTableRow(pdf *fpdf.Fpdf, values []string, widths []float64, alternate bool) {
	if alternate {
		pdf.SetFillColor(colorLight[0], colorLight[1], colorLight[2])
	} else {
		pdf.SetFillColor(colorWhite[0], colorWhite[1], colorWhite[2])
	}
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetFont("Helvetica", "", 8)

	for i, value := range values {
		pdf.CellFormat(widths[i], 6, value, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *PDFGenerator) formatNumber(n int) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

func (g *PDFGenerator) truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
