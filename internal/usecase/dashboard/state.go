package dashboard

import (
	"fmt"

	"github.com/Riesling1623/honeydash/internal/domain/sessionview"
	"github.com/Riesling1623/honeydash/internal/entity"
)

// DetailKind selects which list of a session the details view shows
type DetailKind string

const (
	DetailCommands          DetailKind = "commands"
	DetailDangerousCommands DetailKind = "dangerous_commands"
	DetailDownloads         DetailKind = "downloads"
)

// Summary holds the header counters of the dashboard
type Summary struct {
	TotalSessions     int `json:"total_sessions"`
	UniqueIPs         int `json:"unique_ips"`
	DangerousCommands int `json:"dangerous_commands"`
	TotalCommands     int `json:"total_commands"`
}

// Details is the content of the details view for one session
type Details struct {
	Title string
	Items []string
}

// State is the view state of the dashboard: the last loaded dataset, the
// filter criteria and the current page. The filtered list is derived and is
// recomputed whenever the dataset or the criteria change; both reset the
// page to 1.
//
// State is not safe for concurrent use. The render layer mutates it only
// from its serial event loop.
type State struct {
	dataset  *entity.Dataset
	ipFilter string
	search   string
	filtered []entity.Session
	page     int
	pageSize int
}

// NewState creates an empty state with the default page size
func NewState() *State {
	return NewStateWithPageSize(sessionview.DefaultPageSize)
}

// NewStateWithPageSize creates an empty state with a fixed page size
func NewStateWithPageSize(pageSize int) *State {
	if pageSize < 1 {
		pageSize = sessionview.DefaultPageSize
	}
	return &State{
		ipFilter: sessionview.AllIPs,
		filtered: []entity.Session{},
		page:     1,
		pageSize: pageSize,
	}
}

// Load replaces the dataset wholesale and resets filters and page
func (s *State) Load(ds *entity.Dataset) {
	s.dataset = ds
	s.ipFilter = sessionview.AllIPs
	s.search = ""
	s.refilter()
}

// SetIPFilter changes the IP criterion. Empty selects all IPs.
func (s *State) SetIPFilter(ip string) {
	s.SetFilter(ip, s.search)
}

// SetSearch changes the free-text criterion
func (s *State) SetSearch(text string) {
	s.SetFilter(s.ipFilter, text)
}

// SetFilter changes both criteria at once
func (s *State) SetFilter(ip, text string) {
	if ip == "" {
		ip = sessionview.AllIPs
	}
	s.ipFilter = ip
	s.search = text
	s.refilter()
}

func (s *State) refilter() {
	s.filtered = sessionview.Filter(s.sessions(), s.ipFilter, s.search)
	s.page = 1
}

func (s *State) sessions() []entity.Session {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.Sessions
}

// NextPage advances one page unless already on the last one
func (s *State) NextPage() bool {
	if s.page >= s.TotalPages() {
		return false
	}
	s.page++
	return true
}

// PrevPage goes back one page unless already on the first one
func (s *State) PrevPage() bool {
	if s.page <= 1 {
		return false
	}
	s.page--
	return true
}

// Dataset returns the last loaded dataset, or nil
func (s *State) Dataset() *entity.Dataset { return s.dataset }

// Filtered returns the sessions matching the current criteria
func (s *State) Filtered() []entity.Session { return s.filtered }

// Page returns the current 1-based page
func (s *State) Page() int { return s.page }

// PageSize returns the fixed page size
func (s *State) PageSize() int { return s.pageSize }

// IPFilter returns the selected IP or sessionview.AllIPs
func (s *State) IPFilter() string { return s.ipFilter }

// Search returns the free-text criterion
func (s *State) Search() string { return s.search }

// TotalPages returns the number of pages of the filtered list, at least 1
func (s *State) TotalPages() int {
	return sessionview.TotalPages(len(s.filtered), s.pageSize)
}

// PageRows returns the sessions shown on the current page
func (s *State) PageRows() []entity.Session {
	return sessionview.Paginate(s.filtered, s.page, s.pageSize)
}

// PageLabel renders the pager text
func (s *State) PageLabel() string {
	return fmt.Sprintf("Page %d of %d", s.page, s.TotalPages())
}

// IPOptions lists the IP filter choices: AllIPs followed by every source IP
// of the dataset in order of first appearance.
func (s *State) IPOptions() []string {
	return append([]string{sessionview.AllIPs}, sessionview.UniqueIPs(s.sessions())...)
}

// NextIPOption returns the option after the current IP filter, wrapping around
func (s *State) NextIPOption() string {
	options := s.IPOptions()
	for i, opt := range options {
		if opt == s.ipFilter {
			return options[(i+1)%len(options)]
		}
	}
	return sessionview.AllIPs
}

// Summary computes the header counters of the loaded dataset
func (s *State) Summary() Summary {
	if s.dataset == nil {
		return Summary{}
	}
	return Summary{
		TotalSessions:     s.dataset.Statistics.TotalSessions,
		UniqueIPs:         s.dataset.Statistics.UniqueIPs,
		DangerousCommands: len(s.dataset.DangerousCommands),
		TotalCommands:     s.dataset.Statistics.TotalCommands,
	}
}

// SessionByID finds a session of the loaded dataset
func (s *State) SessionByID(id string) (entity.Session, bool) {
	for _, sess := range s.sessions() {
		if sess.SessionID == id {
			return sess, true
		}
	}
	return entity.Session{}, false
}

// Details builds the details view of one list of a session
func (s *State) Details(id string, kind DetailKind) (Details, bool) {
	sess, ok := s.SessionByID(id)
	if !ok {
		return Details{}, false
	}

	switch kind {
	case DetailCommands:
		return Details{
			Title: fmt.Sprintf("Commands for Session %s", id),
			Items: append([]string{}, sess.Commands...),
		}, true
	case DetailDangerousCommands:
		return Details{
			Title: fmt.Sprintf("Dangerous Commands for Session %s", id),
			Items: append([]string{}, sess.DangerousCommands...),
		}, true
	case DetailDownloads:
		items := make([]string, 0, len(sess.Downloads))
		for _, d := range sess.Downloads {
			items = append(items, FormatDownload(d))
		}
		return Details{
			Title: fmt.Sprintf("Downloads for Session %s", id),
			Items: items,
		}, true
	default:
		return Details{Title: "Unknown", Items: []string{}}, true
	}
}

// FormatDownload renders a download descriptor for display
func FormatDownload(d entity.Download) string {
	if d.Filename != "" {
		return fmt.Sprintf("URL: %s (File: %s)", d.URL, d.Filename)
	}
	return fmt.Sprintf("URL: %s", d.URL)
}
