package reports

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// XMLGenerator generates XML reports
type XMLGenerator struct{}

// NewXMLGenerator creates a new XML generator
func NewXMLGenerator() *XMLGenerator {
	return &XMLGenerator{}
}

// XMLReport represents the root XML structure
type XMLReport struct {
	XMLName     xml.Name      `xml:"HoneypotReport"`
	Version     string        `xml:"version,attr"`
	ID          string        `xml:"id,attr"`
	GeneratedAt string        `xml:"generatedAt,attr"`
	Metadata    XMLMetadata   `xml:"Metadata"`
	Summary     XMLSummary    `xml:"Summary"`
	Attackers   []XMLAttacker `xml:"Attackers>Attacker"`
	Countries   []XMLCount    `xml:"Countries>Country"`
	Commands    []XMLCount    `xml:"DangerousCommands>Command"`
	Usernames   []XMLCount    `xml:"Usernames>Username"`
	Passwords   *XMLPasswords `xml:"Passwords,omitempty"`
	Daily       []XMLCount    `xml:"DailySessions>Day"`
}

// XMLMetadata contains report metadata
type XMLMetadata struct {
	Period    string `xml:"Period"`
	StartDate string `xml:"StartDate"`
	EndDate   string `xml:"EndDate"`
}

// XMLSummary contains the headline counters
type XMLSummary struct {
	TotalSessions    int `xml:"TotalSessions"`
	UniqueIPs        int `xml:"UniqueIPs"`
	TotalCommands    int `xml:"TotalCommands"`
	DangerousKinds   int `xml:"DangerousCommandKinds"`
	SuccessfulLogins int `xml:"SuccessfulLogins"`
	FailedLogins     int `xml:"FailedLogins"`
	UnknownLogins    int `xml:"UnknownLogins"`
}

// XMLAttacker represents a ranked source IP
type XMLAttacker struct {
	IP       string `xml:"ip,attr"`
	Country  string `xml:"country,attr"`
	Sessions int    `xml:"sessions,attr"`
}

// XMLCount is a generic name/count pair
type XMLCount struct {
	Name  string `xml:"name,attr"`
	Count int    `xml:"count,attr"`
}

// XMLPasswords holds the password breakdown
type XMLPasswords struct {
	Patterns []XMLCount `xml:"Patterns>Pattern"`
	Top      []XMLCount `xml:"Top>Password"`
}

// Generate creates an XML report from the report data
func (g *XMLGenerator) Generate(data *ReportData) ([]byte, error) {
	report := XMLReport{
		Version:     "1.0",
		ID:          data.ID,
		GeneratedAt: data.GeneratedAt.Format(time.RFC3339),
		Metadata: XMLMetadata{
			Period:    data.Period,
			StartDate: data.StartDate.Format("2006-01-02"),
			EndDate:   data.EndDate.Format("2006-01-02"),
		},
		Summary: XMLSummary{
			TotalSessions:    data.Statistics.TotalSessions,
			UniqueIPs:        data.Statistics.UniqueIPs,
			TotalCommands:    data.Statistics.TotalCommands,
			DangerousKinds:   data.DangerousKinds,
			SuccessfulLogins: data.Logins.Success,
			FailedLogins:     data.Logins.Failed,
			UnknownLogins:    data.Logins.Unknown,
		},
		Countries: toXMLCounts(data.CountryBreakdown),
		Commands:  toXMLCounts(data.TopCommands),
		Usernames: toXMLCounts(data.TopUsernames),
		Daily:     toXMLCounts(data.DailySessions),
	}

	for _, a := range data.TopAttackers {
		report.Attackers = append(report.Attackers, XMLAttacker{
			IP:       a.IP,
			Country:  a.Country,
			Sessions: a.Sessions,
		})
	}

	if p := data.PasswordPatterns; p != nil {
		passwords := &XMLPasswords{
			Patterns: []XMLCount{
				{Name: "numeric_only", Count: p.NumericOnly},
				{Name: "alpha_only", Count: p.AlphaOnly},
				{Name: "alphanumeric", Count: p.Alphanumeric},
				{Name: "special_chars", Count: p.SpecialChars},
				{Name: "empty", Count: p.Empty},
				{Name: "common_weak", Count: p.CommonWeak},
			},
		}
		for _, pw := range data.TopPasswords {
			passwords.Top = append(passwords.Top, XMLCount{Name: sanitizeXML(pw.Password), Count: pw.Count})
		}
		report.Passwords = passwords
	}

	output, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return append([]byte(xml.Header), output...), nil
}

func toXMLCounts(in []NameCount) []XMLCount {
	out := make([]XMLCount, 0, len(in))
	for _, c := range in {
		out = append(out, XMLCount{Name: sanitizeXML(c.Name), Count: c.Count})
	}
	return out
}

// sanitizeXML replaces characters XML 1.0 cannot carry, which attackers
// routinely type into honeypot shells
func sanitizeXML(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == 0x9 || r == 0xA || r == 0xD ||
			(r >= 0x20 && r <= 0xD7FF) ||
			(r >= 0xE000 && r <= 0xFFFD) ||
			(r >= 0x10000 && r <= 0x10FFFF) {
			out = append(out, r)
			continue
		}
		out = append(out, []rune(strconv.QuoteRune(r))...)
	}
	return string(out)
}
