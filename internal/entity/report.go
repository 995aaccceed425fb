package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DailyReport is the per-day analysis document written by the honeypot analyzer
type DailyReport struct {
	Metadata          ReportMetadata     `json:"metadata"`
	Statistics        ReportStatistics   `json:"statistics"`
	TopIPs            []IPCount          `json:"top_ips"`
	DangerousCommands []CommandCount     `json:"dangerous_commands"`
	SessionDetails    SessionDetailsList `json:"session_details"`
}

// ReportMetadata describes when and for which period a report was produced
type ReportMetadata struct {
	ReportDate     string         `json:"report_date"`
	AnalysisPeriod AnalysisPeriod `json:"analysis_period"`
}

// AnalysisPeriod bounds the sessions a report covers
type AnalysisPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReportStatistics holds the per-day counters
type ReportStatistics struct {
	TotalSessions int `json:"total_sessions"`
	UniqueIPs     int `json:"unique_ips"`
}

// IPCount is one entry of a report's top IP list
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// CommandCount is one entry of a report's dangerous command list.
// Pointers let the aggregator skip entries that omit a field.
type CommandCount struct {
	Command *string `json:"command"`
	Count   *int    `json:"count"`
}

// SessionLogin is the credential block of a session detail
type SessionLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

// SessionDetail is a session as stored in a daily report
type SessionDetail struct {
	ID                string       `json:"-"`
	IP                string       `json:"ip"`
	Timestamp         string       `json:"timestamp"`
	Login             SessionLogin `json:"login"`
	Commands          []string     `json:"commands"`
	DangerousCommands []string     `json:"dangerous_commands"`
	Downloads         []Download   `json:"downloads"`
}

// ToSession flattens a report detail into the dashboard session shape
func (d SessionDetail) ToSession() Session {
	s := Session{
		SessionID:         d.ID,
		IPAddress:         d.IP,
		Timestamp:         d.Timestamp,
		Username:          d.Login.Username,
		Password:          d.Login.Password,
		LoginStatus:       ParseLoginStatus(d.Login.Status),
		Commands:          d.Commands,
		DangerousCommands: d.DangerousCommands,
		Downloads:         d.Downloads,
	}
	if s.Commands == nil {
		s.Commands = []string{}
	}
	if s.DangerousCommands == nil {
		s.DangerousCommands = []string{}
	}
	if s.Downloads == nil {
		s.Downloads = []Download{}
	}
	return s
}

// SessionDetailsList is the session_details object of a report, kept in
// document order. It is encoded as a JSON object keyed by session id.
type SessionDetailsList []SessionDetail

// UnmarshalJSON decodes the object while preserving key order
func (l *SessionDetailsList) UnmarshalJSON(data []byte) error {
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
		return fmt.Errorf("session_details: expected object, got %v", tok)
	}

	var out SessionDetailsList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("session_details: expected key, got %v", keyTok)
		}

		var detail SessionDetail
		if err := dec.Decode(&detail); err != nil {
			return fmt.Errorf("session_details[%s]: %w", key, err)
		}
		detail.ID = key
		out = append(out, detail)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = out
	return nil
}

// MarshalJSON writes the list back as an ordered JSON object
func (l SessionDetailsList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
