package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// LoginStatus is the outcome of the login attempt that opened a session
type LoginStatus string

const (
	LoginSuccess LoginStatus = "success"
	LoginFailed  LoginStatus = "failed"
	LoginUnknown LoginStatus = "unknown"
)

// ParseLoginStatus maps a raw honeypot status onto the three known outcomes.
// "failure" is accepted as an alias of failed, anything unrecognised is unknown.
func ParseLoginStatus(raw string) LoginStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return LoginSuccess
	case "failed", "failure":
		return LoginFailed
	default:
		return LoginUnknown
	}
}

// UnmarshalJSON normalizes whatever status the producer wrote. Values that
// are not strings decode as unknown.
func (s *LoginStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = LoginUnknown
		return nil
	}
	*s = ParseLoginStatus(raw)
	return nil
}

// Download is a file the attacker fetched during a session
type Download struct {
	URL      string `json:"url" ch:"url"`
	Filename string `json:"filename,omitempty" ch:"filename"`
}

// Session is one recorded interactive connection to the honeypot
type Session struct {
	SessionID         string      `json:"session_id" ch:"session_id"`
	IPAddress         string      `json:"ip_address" ch:"ip_address"`
	Timestamp         string      `json:"timestamp" ch:"timestamp"`
	Username          string      `json:"username" ch:"username"`
	Password          string      `json:"password" ch:"password"`
	LoginStatus       LoginStatus `json:"login_status" ch:"login_status"`
	Commands          []string    `json:"commands" ch:"commands"`
	DangerousCommands []string    `json:"dangerous_commands" ch:"dangerous_commands"`
	Downloads         []Download  `json:"downloads" ch:"downloads"`
}

// ParseTimestamp parses an ISO-8601 session timestamp. Offsets and a trailing Z
// are both accepted; a missing offset is read as UTC.
func ParseTimestamp(ts string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormatTimestamp renders a session timestamp for display. Values that do
// not parse are returned unchanged; an empty value renders as N/A.
func FormatTimestamp(ts string) string {
	if ts == "" {
		return "N/A"
	}
	t, err := ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
