package mockdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riesling1623/honeydash/internal/entity"
)

type memorySink struct {
	reports map[string]*entity.DailyReport
	fail    bool
}

func (m *memorySink) WriteReport(ctx context.Context, day time.Time, report *entity.DailyReport) error {
	if m.fail {
		return errors.New("disk full")
	}
	if m.reports == nil {
		m.reports = make(map[string]*entity.DailyReport)
	}
	m.reports[day.Format("20060102")] = report
	return nil
}

func newTestGenerator(seed uint64) *Generator {
	return NewGenerator(seed, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSessionCount(t *testing.T) {
	g := newTestGenerator(1)
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		weekday := g.SessionCount(monday)
		assert.GreaterOrEqual(t, weekday, 3)
		assert.LessOrEqual(t, weekday, 35)

		weekend := g.SessionCount(saturday)
		assert.GreaterOrEqual(t, weekend, 1)
		assert.LessOrEqual(t, weekend, 22)
	}
}

func TestReport_Consistency(t *testing.T) {
	g := newTestGenerator(42)
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	for _, n := range []int{1, 2, 17, 40} {
		report := g.Report(day, n)

		assert.Equal(t, n, report.Statistics.TotalSessions)
		require.Len(t, report.SessionDetails, n)

		ipTotal := 0
		for i, entry := range report.TopIPs {
			ipTotal += entry.Count
			if i > 0 {
				assert.GreaterOrEqual(t, report.TopIPs[i-1].Count, entry.Count)
			}
		}
		assert.Equal(t, n, ipTotal)
		assert.Equal(t, len(report.TopIPs), report.Statistics.UniqueIPs)

		dangerous := 0
		for _, d := range report.SessionDetails {
			dangerous += len(d.DangerousCommands)
			assert.Len(t, d.ID, 32)
			ts, err := entity.ParseTimestamp(d.Timestamp)
			require.NoError(t, err)
			assert.Equal(t, "2024-02-29", ts.Format("2006-01-02"))
			assert.NotEqual(t, entity.LoginUnknown, entity.ParseLoginStatus(d.Login.Status))
		}
		counted := 0
		for _, c := range report.DangerousCommands {
			counted += *c.Count
		}
		assert.Equal(t, dangerous, counted)
	}
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator(7)
	sink := &memorySink{}
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	total, err := g.Generate(context.Background(), start, end, sink)
	require.NoError(t, err)

	assert.Len(t, sink.reports, 4)
	sum := 0
	for _, r := range sink.reports {
		sum += r.Statistics.TotalSessions
	}
	assert.Equal(t, total, sum)
}

func TestGenerate_Errors(t *testing.T) {
	g := newTestGenerator(7)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := g.Generate(context.Background(), day.AddDate(0, 0, 1), day, &memorySink{})
	assert.Error(t, err)

	_, err = g.Generate(context.Background(), day, day, &memorySink{fail: true})
	assert.ErrorContains(t, err, "disk full")
}
