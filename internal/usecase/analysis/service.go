package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const dayLayout = "20060102"

var (
	ErrInvalidDate     = errors.New("invalid date format, use YYYYMMDD")
	ErrInvalidRange    = errors.New("invalid date range")
	ErrNoData          = errors.New("no data available")
	ErrSessionNotFound = errors.New("session not found")
)

// ReportSource provides the daily analysis reports the service aggregates
type ReportSource interface {
	// Report returns the report of one day, or an error wrapping
	// entity.ErrReportNotFound when the day has none.
	Report(ctx context.Context, day time.Time) (*entity.DailyReport, error)
	// AvailableDates lists the YYYYMMDD days that have a report, ascending.
	AvailableDates(ctx context.Context) ([]string, error)
	// Default returns the standalone analysis document served when no
	// range is requested.
	Default(ctx context.Context) (json.RawMessage, error)
}

// GeoLocator resolves attacker IPs to locations. IPs that cannot be
// resolved are left out of the result.
type GeoLocator interface {
	LookupBatch(ctx context.Context, ips []string) map[string]*entity.GeoLocation
}

// Options tunes the analysis service
type Options struct {
	// MaxRangeDays caps the number of days a single request may span. Zero disables the cap.
	MaxRangeDays int
}

// Service merges daily honeypot reports into a dashboard dataset
type Service struct {
	source  ReportSource
	geo     GeoLocator
	options Options
	logger  *slog.Logger
}

// NewService creates a new analysis service. geo may be nil to skip geolocation.
func NewService(source ReportSource, geo GeoLocator, options Options, logger *slog.Logger) *Service {
	return &Service{
		source:  source,
		geo:     geo,
		options: options,
		logger:  logger,
	}
}

// ParseRange parses and checks a YYYYMMDD date range
func (s *Service) ParseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dayLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	end, err := time.Parse(dayLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date is after end date", ErrInvalidRange)
	}
	if s.options.MaxRangeDays > 0 {
		days := int(end.Sub(start).Hours()/24) + 1
		if days > s.options.MaxRangeDays {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %d days requested, at most %d allowed",
				ErrInvalidRange, days, s.options.MaxRangeDays)
		}
	}
	return start, end, nil
}

// Analyze builds the dataset for every day in [startDate, endDate]
func (s *Service) Analyze(ctx context.Context, startDate, endDate string) (*entity.Dataset, error) {
	start, end, err := s.ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Analyzing date range", "start", startDate, "end", endDate)

	acc := newAccumulator()
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dateKey := day.Format("2006-01-02")
		acc.dailySessions[dateKey] = 0

		report, err := s.source.Report(ctx, day)
		if err != nil {
			if !errors.Is(err, entity.ErrReportNotFound) {
				s.logger.Warn("Skipping unreadable report", "date", day.Format(dayLayout), "error", err)
			}
			continue
		}
		acc.addReport(dateKey, report)
	}

	ds := acc.dataset()
	ds.PasswordAnalysis = analyzePasswords(ds.Sessions)
	ds.AttackTiming = analyzeTiming(ds.Sessions, s.logger)

	if s.geo != nil && len(acc.ipOrder) > 0 {
		ds.GeoData = s.geo.LookupBatch(ctx, acc.ipOrder)
	}

	s.logger.Info("Analysis complete",
		"start", startDate,
		"end", endDate,
		"sessions", len(ds.Sessions),
		"unique_ips", ds.Statistics.UniqueIPs,
	)

	return ds, nil
}

// AvailableDates lists the days that have reports
func (s *Service) AvailableDates(ctx context.Context) ([]string, error) {
	dates, err := s.source.AvailableDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available dates: %w", err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// DefaultAnalysis returns the standalone analysis document
func (s *Service) DefaultAnalysis(ctx context.Context) (json.RawMessage, error) {
	doc, err := s.source.Default(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrReportNotFound) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("failed to load default analysis: %w", err)
	}
	return doc, nil
}

// FindSession looks a session up by id. With an empty range every available
// day is searched.
func (s *Service) FindSession(ctx context.Context, id, startDate, endDate string) (*entity.Session, error) {
	var days []time.Time
	if startDate == "" || endDate == "" {
		dates, err := s.AvailableDates(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			if t, err := time.Parse(dayLayout, d); err == nil {
				days = append(days, t)
			}
		}
	} else {
		start, end, err := s.ParseRange(startDate, endDate)
		if err != nil {
			return nil, err
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			days = append(days, day)
		}
	}

	for _, day := range days {
		report, err := s.source.Report(ctx, day)
		if err != nil {
			continue
		}
		for _, detail := range report.SessionDetails {
			if detail.ID == id {
				session := detail.ToSession()
				return &session, nil
			}
		}
	}
	return nil, ErrSessionNotFound
}

// accumulator collects the running totals over a date range
type accumulator struct {
	sessions          []entity.Session
	totalSessions     int
	ipCounts          map[string]int
	ipOrder           []string
	dangerousCommands map[string]int
	usernames         map[string]int
	dailySessions     map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		sessions:          []entity.Session{},
		ipCounts:          make(map[string]int),
		dangerousCommands: make(map[string]int),
		usernames:         make(map[string]int),
		dailySessions:     make(map[string]int),
	}
}

func (a *accumulator) addReport(dateKey string, report *entity.DailyReport) {
	a.totalSessions += report.Statistics.TotalSessions
	a.dailySessions[dateKey] = report.Statistics.TotalSessions

	for _, entry := range report.TopIPs {
		if _, seen := a.ipCounts[entry.IP]; !seen {
			a.ipOrder = append(a.ipOrder, entry.IP)
		}
		a.ipCounts[entry.IP] += entry.Count
	}

	for _, entry := range report.DangerousCommands {
		if entry.Command == nil || entry.Count == nil {
			continue
		}
		a.dangerousCommands[*entry.Command] += *entry.Count
	}

	for _, detail := range report.SessionDetails {
		session := detail.ToSession()
		a.sessions = append(a.sessions, session)
		if session.Username != "" {
			a.usernames[session.Username]++
		}
	}
}

func (a *accumulator) dataset() *entity.Dataset {
	failed := make(map[string]int)
	successful := make(map[string]int)
	totalCommands := 0

	for _, s := range a.sessions {
		totalCommands += len(s.Commands)

		username := s.Username
		if username == "" {
			username = "unknown"
		}
		switch s.LoginStatus {
		case entity.LoginFailed:
			failed[username]++
		case entity.LoginSuccess:
			successful[username]++
		}
	}

	return &entity.Dataset{
		Sessions: a.sessions,
		Statistics: entity.Statistics{
			TotalSessions: a.totalSessions,
			UniqueIPs:     len(a.ipCounts),
			TotalCommands: totalCommands,
		},
		TopIPs:            a.ipCounts,
		TopUsernames:      a.usernames,
		DangerousCommands: a.dangerousCommands,
		DailySessions:     a.dailySessions,
		FailedLogins:      failed,
		SuccessfulLogins:  successful,
	}
}
