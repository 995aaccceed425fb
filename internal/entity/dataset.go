package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Statistics holds the headline counters of a dataset
type Statistics struct {
	TotalSessions int `json:"total_sessions"`
	UniqueIPs     int `json:"unique_ips"`
	TotalCommands int `json:"total_commands"`
}

// PasswordPatterns counts attempted passwords by shape. The first four
// buckets are exclusive; CommonWeak is counted independently of them.
type PasswordPatterns struct {
	NumericOnly  int `json:"numeric_only"`
	AlphaOnly    int `json:"alpha_only"`
	Alphanumeric int `json:"alphanumeric"`
	SpecialChars int `json:"special_chars"`
	Empty        int `json:"empty"`
	CommonWeak   int `json:"common_weak"`
}

// PasswordAnalysis breaks down the passwords attackers tried
type PasswordAnalysis struct {
	LengthDistribution  map[int]int      `json:"length_distribution"`
	PatternDistribution PasswordPatterns `json:"pattern_distribution"`
	TopPasswords        PasswordCounts   `json:"top_passwords"`
}

// PasswordCount is one entry of the most used passwords list
type PasswordCount struct {
	Password string `json:"password"`
	Count    int    `json:"count"`
}

// PasswordCounts is encoded as a JSON object of password to count, most used first
type PasswordCounts []PasswordCount

// UnmarshalJSON decodes the object keeping document order
func (l *PasswordCounts) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("top_passwords: expected object, got %v", tok)
	}

	out := PasswordCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		password, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("top_passwords: expected key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("top_passwords[%s]: %w", password, err)
		}
		out = append(out, PasswordCount{Password: password, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = out
	return nil
}

// MarshalJSON writes the list as an ordered JSON object
func (l PasswordCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Password)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", p.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AttackTiming buckets sessions by time of day and day of week.
// DailyDistribution is keyed 0 (Monday) through 6 (Sunday).
type AttackTiming struct {
	HourlyDistribution map[int]int            `json:"hourly_distribution"`
	DailyDistribution  map[int]int            `json:"daily_distribution"`
	TimelineHeatmap    map[int]map[string]int `json:"timeline_heatmap"`
}

// Dataset is the full analysis result for a date range. Everything except
// Sessions is pre-aggregated by the analysis service and opaque to the dashboard.
type Dataset struct {
	Sessions          []Session               `json:"sessions"`
	Statistics        Statistics              `json:"statistics"`
	TopIPs            map[string]int          `json:"top_ips"`
	TopUsernames      map[string]int          `json:"top_usernames"`
	DangerousCommands map[string]int          `json:"dangerous_commands"`
	DailySessions     map[string]int          `json:"daily_sessions"`
	FailedLogins      map[string]int          `json:"failed_logins"`
	SuccessfulLogins  map[string]int          `json:"successful_logins"`
	GeoData           map[string]*GeoLocation `json:"geo_data,omitempty"`
	PasswordAnalysis  *PasswordAnalysis       `json:"password_analysis,omitempty"`
	AttackTiming      *AttackTiming           `json:"attack_timing,omitempty"`

	// Error is set by the server instead of the fields above when the
	// request could not be answered.
	Error string `json:"error,omitempty"`
}

// LoginTally counts sessions per normalized login outcome
func (d *Dataset) LoginTally() map[LoginStatus]int {
	tally := map[LoginStatus]int{
		LoginSuccess: 0,
		LoginFailed:  0,
		LoginUnknown: 0,
	}
	for _, s := range d.Sessions {
		status := s.LoginStatus
		if status == "" {
			status = LoginUnknown
		}
		tally[status]++
	}
	return tally
}

// GeoLocation describes where an attacking IP is located
type GeoLocation struct {
	Country     string   `json:"country" yaml:"country" ch:"country"`
	CountryCode string   `json:"country_code" yaml:"country_code" ch:"country_code"`
	City        string   `json:"city" yaml:"city" ch:"city"`
	Region      string   `json:"region" yaml:"region" ch:"region"`
	Latitude    *float64 `json:"latitude" yaml:"latitude" ch:"latitude"`
	Longitude   *float64 `json:"longitude" yaml:"longitude" ch:"longitude"`
	ISP         string   `json:"isp" yaml:"isp" ch:"isp"`
	Timezone    string   `json:"timezone" yaml:"timezone" ch:"timezone"`
}
