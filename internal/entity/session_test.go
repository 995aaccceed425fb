package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"utc suffix", "2024-03-01T10:15:30.123456Z", "2024-03-01 10:15:30"},
		{"offset", "2024-03-01T10:15:30+02:00", "2024-03-01 10:15:30"},
		{"no offset", "2024-03-01T10:15:30", "2024-03-01 10:15:30"},
		{"space separator", "2024-03-01 10:15:30", "2024-03-01 10:15:30"},
		{"malformed kept raw", "not-a-date", "not-a-date"},
		{"empty", "", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.ts))
		})
	}
}

func TestParseTimestamp_NoOffsetIsUTC(t *testing.T) {
	got, err := ParseTimestamp("2024-03-01T10:15:30")

	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 10, got.Hour())
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("not-a-date")
	assert.Error(t, err)
}

func TestParseLoginStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want LoginStatus
	}{
		{"success", LoginSuccess},
		{"SUCCESS", LoginSuccess},
		{"failed", LoginFailed},
		{"failure", LoginFailed},
		{" Failure ", LoginFailed},
		{"unknown", LoginUnknown},
		{"", LoginUnknown},
		{"timeout", LoginUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLoginStatus(tt.raw))
		})
	}
}

func TestLoginStatus_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want LoginStatus
	}{
		{"alias", `"failure"`, LoginFailed},
		{"success", `"success"`, LoginSuccess},
		{"number", `1`, LoginUnknown},
		{"object", `{"ok":true}`, LoginUnknown},
		{"null", `null`, LoginUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			err := json.Unmarshal([]byte(`{"session_id":"a1","login_status":`+tt.raw+`}`), &s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.LoginStatus)
		})
	}
}
