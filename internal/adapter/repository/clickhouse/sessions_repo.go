package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const sessionsTableDDL = `
	CREATE TABLE IF NOT EXISTS honeypot_sessions (
		day                Date,
		seq                UInt32,
		session_id         String,
		timestamp          String,
		ip_address         String,
		username           String,
		password           String,
		login_status       LowCardinality(String),
		commands           Array(String),
		dangerous_commands Array(String),
		download_urls      Array(String),
		download_files     Array(String),
		inserted_at        DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (day, seq, session_id)
`

// SessionRow is one row of honeypot_sessions
type SessionRow struct {
	Seq               uint32
	SessionID         string
	Timestamp         string
	IPAddress         string
	Username          string
	Password          string
	LoginStatus       string
	Commands          []string
	DangerousCommands []string
	DownloadURLs      []string
	DownloadFiles     []string
}

// SessionsRepository serves daily reports from the honeypot_sessions table
type SessionsRepository struct {
	conn *Connection
}

// NewSessionsRepository creates a new sessions repository
func NewSessionsRepository(conn *Connection) *SessionsRepository {
	return &SessionsRepository{conn: conn}
}

// Report builds the report for day from its session rows
func (r *SessionsRepository) Report(ctx context.Context, day time.Time) (*entity.DailyReport, error) {
	query := `
		SELECT
			seq, session_id, timestamp, ip_address, username, password, login_status,
			commands, dangerous_commands, download_urls, download_files
		FROM honeypot_sessions FINAL
		WHERE day = ?
		ORDER BY seq, session_id
	`

	rows, err := r.conn.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("query honeypot sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(
			&row.Seq,
			&row.SessionID,
			&row.Timestamp,
			&row.IPAddress,
			&row.Username,
			&row.Password,
			&row.LoginStatus,
			&row.Commands,
			&row.DangerousCommands,
			&row.DownloadURLs,
			&row.DownloadFiles,
		); err != nil {
			return nil, fmt.Errorf("scan honeypot session: %w", err)
		}
		sessions = append(sessions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate honeypot sessions: %w", err)
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("%s: %w", day.Format("20060102"), entity.ErrReportNotFound)
	}
	return BuildReport(day, sessions), nil
}

// AvailableDates lists days with at least one session, ascending
func (r *SessionsRepository) AvailableDates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT toString(toYYYYMMDD(day)) AS d
		FROM honeypot_sessions
		ORDER BY d
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query available dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan available date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Default is not backed by the table
func (r *SessionsRepository) Default(ctx context.Context) (json.RawMessage, error) {
	return nil, fmt.Errorf("clickhouse source has no default document: %w", entity.ErrReportNotFound)
}

// WriteReport stores every session of report under day
func (r *SessionsRepository) WriteReport(ctx context.Context, day time.Time, report *entity.DailyReport) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO honeypot_sessions (
			day, seq, session_id, timestamp, ip_address, username, password, login_status,
			commands, dangerous_commands, download_urls, download_files
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare session batch: %w", err)
	}

	for i, row := range RowsFromReport(report) {
		if err := batch.Append(
			day,
			uint32(i),
			row.SessionID,
			row.Timestamp,
			row.IPAddress,
			row.Username,
			row.Password,
			row.LoginStatus,
			row.Commands,
			row.DangerousCommands,
			row.DownloadURLs,
			row.DownloadFiles,
		); err != nil {
			return fmt.Errorf("append session %s: %w", row.SessionID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send session batch: %w", err)
	}
	return nil
}

// RowsFromReport flattens a report into table rows in document order
func RowsFromReport(report *entity.DailyReport) []SessionRow {
	rows := make([]SessionRow, 0, len(report.SessionDetails))
	for i, d := range report.SessionDetails {
		row := SessionRow{
			Seq:               uint32(i),
			SessionID:         d.ID,
			Timestamp:         d.Timestamp,
			IPAddress:         d.IP,
			Username:          d.Login.Username,
			Password:          d.Login.Password,
			LoginStatus:       d.Login.Status,
			Commands:          nonNil(d.Commands),
			DangerousCommands: nonNil(d.DangerousCommands),
			DownloadURLs:      []string{},
			DownloadFiles:     []string{},
		}
		for _, dl := range d.Downloads {
			row.DownloadURLs = append(row.DownloadURLs, dl.URL)
			row.DownloadFiles = append(row.DownloadFiles, dl.Filename)
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildReport derives the daily report counters from session rows
func BuildReport(day time.Time, rows []SessionRow) *entity.DailyReport {
	report := &entity.DailyReport{
		Metadata: entity.ReportMetadata{
			ReportDate: day.Format("2006-01-02"),
			AnalysisPeriod: entity.AnalysisPeriod{
				Start: day.Format("2006-01-02") + "T00:00:00",
				End:   day.Format("2006-01-02") + "T23:59:59",
			},
		},
		TopIPs:            []entity.IPCount{},
		DangerousCommands: []entity.CommandCount{},
	}

	ipCounts := make(map[string]int)
	var ipOrder []string
	cmdCounts := make(map[string]int)
	var cmdOrder []string

	for _, row := range rows {
		if _, seen := ipCounts[row.IPAddress]; !seen {
			ipOrder = append(ipOrder, row.IPAddress)
		}
		ipCounts[row.IPAddress]++

		for _, cmd := range row.DangerousCommands {
			if _, seen := cmdCounts[cmd]; !seen {
				cmdOrder = append(cmdOrder, cmd)
			}
			cmdCounts[cmd]++
		}

		detail := entity.SessionDetail{
			ID:        row.SessionID,
			IP:        row.IPAddress,
			Timestamp: row.Timestamp,
			Login: entity.SessionLogin{
				Username: row.Username,
				Password: row.Password,
				Status:   row.LoginStatus,
			},
			Commands:          nonNil(row.Commands),
			DangerousCommands: nonNil(row.DangerousCommands),
			Downloads:         []entity.Download{},
		}
		for i, url := range row.DownloadURLs {
			dl := entity.Download{URL: url}
			if i < len(row.DownloadFiles) {
				dl.Filename = row.DownloadFiles[i]
			}
			detail.Downloads = append(detail.Downloads, dl)
		}
		report.SessionDetails = append(report.SessionDetails, detail)
	}

	sort.SliceStable(ipOrder, func(i, j int) bool { return ipCounts[ipOrder[i]] > ipCounts[ipOrder[j]] })
	for _, ip := range ipOrder {
		report.TopIPs = append(report.TopIPs, entity.IPCount{IP: ip, Count: ipCounts[ip]})
	}

	sort.SliceStable(cmdOrder, func(i, j int) bool { return cmdCounts[cmdOrder[i]] > cmdCounts[cmdOrder[j]] })
	for _, cmd := range cmdOrder {
		cmd, count := cmd, cmdCounts[cmd]
		report.DangerousCommands = append(report.DangerousCommands, entity.CommandCount{Command: &cmd, Count: &count})
	}

	report.Statistics = entity.ReportStatistics{
		TotalSessions: len(rows),
		UniqueIPs:     len(ipCounts),
	}
	return report
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
