package sessionview

import (
	"strings"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const (
	// AllIPs disables the IP filter
	AllIPs = "all"

	// DefaultPageSize is the number of table rows shown per page
	DefaultPageSize = 10
)

// Filter returns the sessions matching both criteria, in their original order.
// A session matches when ipFilter is AllIPs or equals its IP, and when search
// is empty or is a case-insensitive substring of its id, username or any command.
// The input slice is never modified.
func Filter(sessions []entity.Session, ipFilter, search string) []entity.Session {
	needle := strings.ToLower(search)

	filtered := make([]entity.Session, 0, len(sessions))
	for _, s := range sessions {
		if ipFilter != AllIPs && s.IPAddress != ipFilter {
			continue
		}
		if needle != "" && !matchesSearch(s, needle) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func matchesSearch(s entity.Session, needle string) bool {
	if strings.Contains(strings.ToLower(s.SessionID), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Username), needle) {
		return true
	}
	for _, cmd := range s.Commands {
		if strings.Contains(strings.ToLower(cmd), needle) {
			return true
		}
	}
	return false
}

// Paginate returns the rows of the 1-based page: sessions[(page-1)*size : page*size],
// clipped to the slice bounds. The result shares the backing array of sessions.
func Paginate(sessions []entity.Session, page, size int) []entity.Session {
	if page < 1 || size < 1 {
		return []entity.Session{}
	}
	start := (page - 1) * size
	if start >= len(sessions) {
		return []entity.Session{}
	}
	end := start + size
	if end > len(sessions) {
		end = len(sessions)
	}
	return sessions[start:end:end]
}

// TotalPages returns ceil(count/size). An empty list still has one page,
// so the pager always reads "Page 1 of 1" at minimum.
func TotalPages(count, size int) int {
	if size < 1 || count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// ClampPage keeps page within [1, TotalPages(count, size)]
func ClampPage(page, count, size int) int {
	last := TotalPages(count, size)
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// UniqueIPs lists the distinct non-empty source IPs in order of first appearance
func UniqueIPs(sessions []entity.Session) []string {
	seen := make(map[string]struct{}, len(sessions))
	var ips []string
	for _, s := range sessions {
		if s.IPAddress == "" {
			continue
		}
		if _, ok := seen[s.IPAddress]; ok {
			continue
		}
		seen[s.IPAddress] = struct{}{}
		ips = append(ips, s.IPAddress)
	}
	return ips
}
