package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/Riesling1623/honeydash/internal/usecase/dashboard"
)

const heatmapDays = 14

var sessionHeaders = []string{
	"Session ID", "IP Address", "Username", "Password", "Status",
	"Commands", "Dangerous", "Downloads", "Timestamp",
}

func sessionRow(s entity.Session) []string {
	status := string(s.LoginStatus)
	if status == "" {
		status = string(entity.LoginUnknown)
	}
	return []string{
		truncate(s.SessionID, 12),
		s.IPAddress,
		s.Username,
		truncate(s.Password, 15),
		status,
		strconv.Itoa(len(s.Commands)),
		strconv.Itoa(len(s.DangerousCommands)),
		strconv.Itoa(len(s.Downloads)),
		entity.FormatTimestamp(s.Timestamp),
	}
}

// RenderSessionPage renders the current page of the state as a plain table
// followed by the pager label
func RenderSessionPage(state *dashboard.State) string {
	rows := state.PageRows()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(sessionHeaders...)
	for _, s := range rows {
		t.Row(sessionRow(s)...)
	}

	var b strings.Builder
	if len(rows) == 0 {
		b.WriteString("No sessions match the current filters\n")
	} else {
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s (%d sessions, ip: %s", state.PageLabel(), len(state.Filtered()), state.IPFilter())
	if state.Search() != "" {
		fmt.Fprintf(&b, ", search: %q", state.Search())
	}
	b.WriteString(")\n")
	return b.String()
}

func renderSummary(sum dashboard.Summary) string {
	card := func(label string, value int) string {
		return cardStyle.Render(cardValueStyle.Render(strconv.Itoa(value)) + "\n" + cardLabelStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Sessions", sum.TotalSessions),
		card("Unique IPs", sum.UniqueIPs),
		card("Dangerous Commands", sum.DangerousCommands),
		card("Total Commands", sum.TotalCommands),
	)
}

// renderOverview lays out every chart of the dataset, in two columns when
// the terminal is wide enough
func renderOverview(ds *entity.Dataset, width int) string {
	if ds == nil {
		return mutedStyle.Render("No data loaded. Press ctrl+r to load.")
	}

	columns := 1
	if width >= 110 {
		columns = 2
	}
	chartWidth := max(width/columns-4, 30)

	charts := []string{
		renderBars("Top Attacking IPs", topBars(ds.TopIPs, 10), chartWidth, barStyle),
		renderBars("Dangerous Commands", topBars(ds.DangerousCommands, 10), chartWidth, dangerBarStyle),
		renderBars("Daily Sessions", dailyBars(ds.DailySessions), chartWidth, barStyle),
		renderBars("Login Outcomes", loginBars(ds), chartWidth, barStyle),
		renderBars("Failed Logins by Username", topBars(ds.FailedLogins, 10), chartWidth, dangerBarStyle),
	}
	if countries := countryBars(ds, 10); countries != nil {
		charts = append(charts, renderBars("Attack Origins by Country", countries, chartWidth, barStyle))
	}
	if pa := ds.PasswordAnalysis; pa != nil {
		lengths := intKeyBars(pa.LengthDistribution, func(n int) string { return fmt.Sprintf("%d chars", n) })
		if len(lengths) > 15 {
			lengths = lengths[:15]
		}
		top := make([]bar, 0, len(pa.TopPasswords))
		for _, p := range pa.TopPasswords {
			top = append(top, bar{p.Password, p.Count})
		}
		if len(top) > 10 {
			top = top[:10]
		}
		charts = append(charts,
			renderBars("Password Lengths", lengths, chartWidth, barStyle),
			renderBars("Password Patterns", patternBars(pa.PatternDistribution), chartWidth, barStyle),
			renderBars("Top Passwords", top, chartWidth, dangerBarStyle),
		)
	}
	if at := ds.AttackTiming; at != nil {
		charts = append(charts,
			renderBars("Attacks by Hour", hourlyBars(at.HourlyDistribution), chartWidth, barStyle),
			renderBars("Attacks by Weekday", weekdayBars(at.DailyDistribution), chartWidth, barStyle),
			renderHeatmap("Activity Heatmap (hour x date)", at.TimelineHeatmap, heatmapDays, barStyle),
		)
	}

	panes := make([]string, len(charts))
	for i, c := range charts {
		panes[i] = paneStyle.Width(chartWidth + 2).Render(c)
	}

	if columns == 1 {
		return lipgloss.JoinVertical(lipgloss.Left, panes...)
	}
	var rows []string
	for i := 0; i < len(panes); i += 2 {
		if i+1 < len(panes) {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, panes[i], panes[i+1]))
		} else {
			rows = append(rows, panes[i])
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
