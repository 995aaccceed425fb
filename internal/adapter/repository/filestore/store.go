package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const (
	reportPrefix    = "analysis_"
	reportSuffix    = ".json"
	defaultDocument = "analysis.json"
	dayLayout       = "20060102"
)

// ReportFileName returns the file name of the report for day
func ReportFileName(day time.Time) string {
	return reportPrefix + day.Format(dayLayout) + reportSuffix
}

// ParseReportFileName extracts the YYYYMMDD date from a report file name.
// It reports false for names that are not daily reports or carry an invalid date.
func ParseReportFileName(name string) (string, bool) {
	name = filepath.Base(name)
	if !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportSuffix) {
		return "", false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, reportPrefix), reportSuffix)
	if _, err := time.Parse(dayLayout, date); err != nil {
		return "", false
	}
	return date, true
}

// DefaultDocumentName is the file served when no range is requested
func DefaultDocumentName() string {
	return defaultDocument
}

// DecodeReport parses a daily report document
func DecodeReport(data []byte) (*entity.DailyReport, error) {
	var report entity.DailyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// Store reads daily analysis reports from a local directory
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at dir
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Report loads the report for day
func (s *Store) Report(ctx context.Context, day time.Time) (*entity.DailyReport, error) {
	path := filepath.Join(s.dir, ReportFileName(day))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, entity.ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	report, err := DecodeReport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// AvailableDates lists report dates found in the directory, ascending
func (s *Store) AvailableDates(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, reportPrefix+"*"+reportSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	dates := make([]string, 0, len(matches))
	for _, m := range matches {
		date, ok := ParseReportFileName(m)
		if !ok {
			s.logger.Debug("Ignoring file with invalid report name", "file", m)
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Default returns the raw standalone analysis document
func (s *Store) Default(ctx context.Context) (json.RawMessage, error) {
	path := filepath.Join(s.dir, defaultDocument)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, entity.ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: invalid JSON document", path)
	}
	return json.RawMessage(data), nil
}

// WriteReport stores report as the document for day, creating the directory if needed
func (s *Store) WriteReport(ctx context.Context, day time.Time, report *entity.DailyReport) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(s.dir, ReportFileName(day))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
