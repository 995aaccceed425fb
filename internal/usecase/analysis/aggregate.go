package analysis

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const topPasswordsLimit = 20

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

var weakPasswords = map[string]struct{}{
	"admin": {}, "root": {}, "password": {}, "123456": {}, "12345": {}, "qwerty": {},
	"test": {}, "guest": {}, "1234": {}, "administrator": {}, "user": {}, "login": {},
	"123": {}, "pass": {}, "default": {}, "toor": {}, "oracle": {}, "postgres": {},
	"mysql": {}, "ubuntu": {}, "centos": {}, "redhat": {}, "debian": {},
}

// IsWeakPassword reports whether p is on the common weak password list
func IsWeakPassword(p string) bool {
	_, ok := weakPasswords[strings.ToLower(p)]
	return ok
}

func analyzePasswords(sessions []entity.Session) *entity.PasswordAnalysis {
	pa := &entity.PasswordAnalysis{
		LengthDistribution: make(map[int]int),
		TopPasswords:       entity.PasswordCounts{},
	}

	counts := make(map[string]int)
	var order []string

	for _, s := range sessions {
		p := s.Password
		if p == "" {
			pa.PatternDistribution.Empty++
			continue
		}

		pa.LengthDistribution[utf8.RuneCountInString(p)]++
		if _, seen := counts[p]; !seen {
			order = append(order, p)
		}
		counts[p]++

		switch {
		case allRunes(p, unicode.IsDigit):
			pa.PatternDistribution.NumericOnly++
		case allRunes(p, unicode.IsLetter):
			pa.PatternDistribution.AlphaOnly++
		case allRunes(p, isAlnum):
			pa.PatternDistribution.Alphanumeric++
		case strings.ContainsAny(p, specialChars):
			pa.PatternDistribution.SpecialChars++
		}

		if IsWeakPassword(p) {
			pa.PatternDistribution.CommonWeak++
		}
	}

	// Stable sort keeps first-seen order among equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topPasswordsLimit {
		order = order[:topPasswordsLimit]
	}
	for _, p := range order {
		pa.TopPasswords = append(pa.TopPasswords, entity.PasswordCount{Password: p, Count: counts[p]})
	}

	return pa
}

func analyzeTiming(sessions []entity.Session, logger *slog.Logger) *entity.AttackTiming {
	at := &entity.AttackTiming{
		HourlyDistribution: make(map[int]int),
		DailyDistribution:  make(map[int]int),
		TimelineHeatmap:    make(map[int]map[string]int),
	}

	for _, s := range sessions {
		if s.Timestamp == "" {
			continue
		}
		t, err := entity.ParseTimestamp(s.Timestamp)
		if err != nil {
			logger.Debug("Skipping unparseable session timestamp", "session_id", s.SessionID, "timestamp", s.Timestamp)
			continue
		}

		hour := t.Hour()
		at.HourlyDistribution[hour]++
		at.DailyDistribution[weekdayIndex(t.Weekday())]++

		row, ok := at.TimelineHeatmap[hour]
		if !ok {
			row = make(map[string]int)
			at.TimelineHeatmap[hour] = row
		}
		row[t.Format("2006-01-02")]++
	}

	return at
}

// weekdayIndex numbers days from Monday = 0 to Sunday = 6
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
