package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const (
	FormatPDF = "pdf"
	FormatXML = "xml"

	topListSize = 10
)

// Analyzer produces the dataset a report summarizes
type Analyzer interface {
	Analyze(ctx context.Context, startDate, endDate string) (*entity.Dataset, error)
}

// ReportConfig selects the range and output format of a report
type ReportConfig struct {
	StartDate string `json:"start_date"` // YYYYMMDD
	EndDate   string `json:"end_date"`   // YYYYMMDD
	Format    string `json:"format"`     // "pdf", "xml"
}

// NameCount is one row of a ranked list
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Attacker is a ranked source IP with its resolved country
type Attacker struct {
	IP       string `json:"ip"`
	Sessions int    `json:"sessions"`
	Country  string `json:"country"`
}

// LoginStats counts sessions per login outcome
type LoginStats struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Unknown int `json:"unknown"`
}

// ReportData holds all data needed for a report
type ReportData struct {
	// Metadata
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      string    `json:"period"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`

	Statistics       entity.Statistics        `json:"statistics"`
	DangerousKinds   int                      `json:"dangerous_kinds"`
	Logins           LoginStats               `json:"logins"`
	TopAttackers     []Attacker               `json:"top_attackers"`
	TopCommands      []NameCount              `json:"top_commands"`
	TopUsernames     []NameCount              `json:"top_usernames"`
	DailySessions    []NameCount              `json:"daily_sessions"`
	PasswordPatterns *entity.PasswordPatterns `json:"password_patterns,omitempty"`
	TopPasswords     []entity.PasswordCount   `json:"top_passwords,omitempty"`
	CountryBreakdown []NameCount              `json:"country_breakdown"`
}

// Service handles report generation
type Service struct {
	analyzer     Analyzer
	pdfGenerator *PDFGenerator
	xmlGenerator *XMLGenerator
	logger       *slog.Logger
}

// NewService creates a new reports service
func NewService(analyzer Analyzer, logger *slog.Logger) *Service {
	return &Service{
		analyzer:     analyzer,
		pdfGenerator: NewPDFGenerator(),
		xmlGenerator: NewXMLGenerator(),
		logger:       logger,
	}
}

// GenerateReport renders the report for the configured range and returns
// the document with its file name
func (s *Service) GenerateReport(ctx context.Context, config ReportConfig) ([]byte, string, error) {
	if config.Format == "" {
		config.Format = FormatPDF
	}
	if config.Format != FormatPDF && config.Format != FormatXML {
		return nil, "", fmt.Errorf("unsupported format: %s", config.Format)
	}

	s.logger.Info("Generating report",
		"format", config.Format,
		"start", config.StartDate,
		"end", config.EndDate,
	)

	ds, err := s.analyzer.Analyze(ctx, config.StartDate, config.EndDate)
	if err != nil {
		return nil, "", err
	}

	start, _ := time.Parse("20060102", config.StartDate)
	end, _ := time.Parse("20060102", config.EndDate)
	reportData := BuildReportData(ds, start, end, time.Now().UTC())

	var data []byte
	filename := fmt.Sprintf("honeydash-report-%s-%s.%s", config.StartDate, config.EndDate, config.Format)

	switch config.Format {
	case FormatPDF:
		data, err = s.pdfGenerator.Generate(reportData)
	case FormatXML:
		data, err = s.xmlGenerator.Generate(reportData)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate %s: %w", config.Format, err)
	}

	s.logger.Info("Report generated successfully",
		"id", reportData.ID,
		"format", config.Format,
		"size", len(data),
		"filename", filename,
	)

	return data, filename, nil
}

// BuildReportData condenses a dataset into report sections
func BuildReportData(ds *entity.Dataset, start, end, now time.Time) *ReportData {
	data := &ReportData{
		ID:             uuid.NewString(),
		GeneratedAt:    now,
		Period:         formatPeriod(start, end),
		StartDate:      start,
		EndDate:        end,
		Statistics:     ds.Statistics,
		DangerousKinds: len(ds.DangerousCommands),
		TopCommands:    topN(ds.DangerousCommands, topListSize),
		TopUsernames:   topN(ds.TopUsernames, topListSize),
	}

	tally := ds.LoginTally()
	data.Logins = LoginStats{
		Success: tally[entity.LoginSuccess],
		Failed:  tally[entity.LoginFailed],
		Unknown: tally[entity.LoginUnknown],
	}

	for _, ip := range topN(ds.TopIPs, topListSize) {
		country := "Unknown"
		if geo, ok := ds.GeoData[ip.Name]; ok && geo != nil && geo.Country != "" {
			country = geo.Country
		}
		data.TopAttackers = append(data.TopAttackers, Attacker{IP: ip.Name, Sessions: ip.Count, Country: country})
	}

	countries := make(map[string]int)
	for ip, count := range ds.TopIPs {
		if geo, ok := ds.GeoData[ip]; ok && geo != nil && geo.Country != "" {
			countries[geo.Country] += count
		}
	}
	data.CountryBreakdown = topN(countries, topListSize)

	days := make([]string, 0, len(ds.DailySessions))
	for day := range ds.DailySessions {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		data.DailySessions = append(data.DailySessions, NameCount{Name: day, Count: ds.DailySessions[day]})
	}

	if ds.PasswordAnalysis != nil {
		patterns := ds.PasswordAnalysis.PatternDistribution
		data.PasswordPatterns = &patterns
		data.TopPasswords = ds.PasswordAnalysis.TopPasswords
		if len(data.TopPasswords) > topListSize {
			data.TopPasswords = data.TopPasswords[:topListSize]
		}
	}

	return data
}

// topN ranks a count map by count descending, then name ascending
func topN(counts map[string]int, n int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// formatPeriod formats the date range for display
func formatPeriod(startDate, endDate time.Time) string {
	if startDate.Format("2006-01-02") == endDate.Format("2006-01-02") {
		return startDate.Format("January 2, 2006")
	}
	return fmt.Sprintf("%s - %s", startDate.Format("Jan 2, 2006"), endDate.Format("Jan 2, 2006"))
}
