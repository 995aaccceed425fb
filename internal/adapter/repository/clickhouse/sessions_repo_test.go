package clickhouse

import (
	"testing"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	rows := []SessionRow{
		{SessionID: "a", IPAddress: "198.51.100.1", Username: "root", LoginStatus: "failed",
			DangerousCommands: []string{"chmod 777 x"}},
		{SessionID: "b", IPAddress: "203.0.113.9", Username: "admin", LoginStatus: "success",
			Commands: []string{"wget http://x/y"}, DangerousCommands: []string{"wget http://x/y", "chmod 777 x"},
			DownloadURLs: []string{"http://x/y", "http://x/z"}, DownloadFiles: []string{"y"}},
		{SessionID: "c", IPAddress: "203.0.113.9"},
	}

	report := BuildReport(day, rows)

	assert.Equal(t, "2024-03-09", report.Metadata.ReportDate)
	assert.Equal(t, entity.ReportStatistics{TotalSessions: 3, UniqueIPs: 2}, report.Statistics)
	assert.Equal(t, []entity.IPCount{
		{IP: "203.0.113.9", Count: 2},
		{IP: "198.51.100.1", Count: 1},
	}, report.TopIPs)

	require.Len(t, report.DangerousCommands, 2)
	assert.Equal(t, "chmod 777 x", *report.DangerousCommands[0].Command)
	assert.Equal(t, 2, *report.DangerousCommands[0].Count)

	require.Len(t, report.SessionDetails, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{
		report.SessionDetails[0].ID, report.SessionDetails[1].ID, report.SessionDetails[2].ID,
	})
	assert.Equal(t, []entity.Download{
		{URL: "http://x/y", Filename: "y"},
		{URL: "http://x/z"},
	}, report.SessionDetails[1].Downloads)
	assert.Equal(t, []string{}, report.SessionDetails[2].Commands)
}

func TestRowsFromReport(t *testing.T) {
	report := &entity.DailyReport{
		SessionDetails: entity.SessionDetailsList{
			{ID: "z", IP: "10.0.0.1", Login: entity.SessionLogin{Username: "pi", Status: "failure"},
				Downloads: []entity.Download{{URL: "http://h/a.sh", Filename: "a.sh"}}},
			{ID: "y", IP: "10.0.0.2"},
		},
	}

	rows := RowsFromReport(report)

	require.Len(t, rows, 2)
	assert.Equal(t, uint32(0), rows[0].Seq)
	assert.Equal(t, "z", rows[0].SessionID)
	assert.Equal(t, "failure", rows[0].LoginStatus)
	assert.Equal(t, []string{"http://h/a.sh"}, rows[0].DownloadURLs)
	assert.Equal(t, []string{"a.sh"}, rows[0].DownloadFiles)
	assert.Equal(t, uint32(1), rows[1].Seq)
	assert.Equal(t, []string{}, rows[1].Commands)

	rebuilt := BuildReport(time.Now(), rows)
	assert.Equal(t, "z", rebuilt.SessionDetails[0].ID)
	assert.Equal(t, report.SessionDetails[0].Downloads, rebuilt.SessionDetails[0].Downloads)
}
