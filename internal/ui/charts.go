package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const maxLabelWidth = 20

type bar struct {
	label string
	value int
}

// topBars returns the n largest counts, ties ordered by label
func topBars(counts map[string]int, n int) []bar {
	bars := make([]bar, 0, len(counts))
	for label, value := range counts {
		bars = append(bars, bar{label, value})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].value != bars[j].value {
			return bars[i].value > bars[j].value
		}
		return bars[i].label < bars[j].label
	})
	if n > 0 && len(bars) > n {
		bars = bars[:n]
	}
	return bars
}

// dailyBars orders YYYY-MM-DD keys chronologically
func dailyBars(counts map[string]int) []bar {
	bars := make([]bar, 0, len(counts))
	for day, value := range counts {
		bars = append(bars, bar{day, value})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].label < bars[j].label })
	return bars
}

func intKeyBars(counts map[int]int, format func(int) string) []bar {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	bars := make([]bar, 0, len(keys))
	for _, k := range keys {
		bars = append(bars, bar{format(k), counts[k]})
	}
	return bars
}

func hourlyBars(counts map[int]int) []bar {
	bars := make([]bar, 24)
	for h := range bars {
		bars[h] = bar{fmt.Sprintf("%02d:00", h), counts[h]}
	}
	return bars
}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// weekdayBars expects keys 0 (Monday) through 6 (Sunday)
func weekdayBars(counts map[int]int) []bar {
	bars := make([]bar, len(weekdayLabels))
	for d, label := range weekdayLabels {
		bars[d] = bar{label, counts[d]}
	}
	return bars
}

func loginBars(ds *entity.Dataset) []bar {
	tally := ds.LoginTally()
	return []bar{
		{"success", tally[entity.LoginSuccess]},
		{"failed", tally[entity.LoginFailed]},
		{"unknown", tally[entity.LoginUnknown]},
	}
}

func patternBars(p entity.PasswordPatterns) []bar {
	return []bar{
		{"Numeric only", p.NumericOnly},
		{"Alpha only", p.AlphaOnly},
		{"Alphanumeric", p.Alphanumeric},
		{"Special chars", p.SpecialChars},
		{"Empty", p.Empty},
		{"Common weak", p.CommonWeak},
	}
}

// countryBars sums the attack counts of each located IP per country
func countryBars(ds *entity.Dataset, n int) []bar {
	if len(ds.GeoData) == 0 {
		return nil
	}
	perCountry := make(map[string]int)
	for ip, count := range ds.TopIPs {
		geo, ok := ds.GeoData[ip]
		if !ok || geo == nil {
			continue
		}
		country := geo.Country
		if country == "" {
			country = "Unknown"
		}
		perCountry[country] += count
	}
	return topBars(perCountry, n)
}

// renderBars draws a horizontal bar chart scaled to the largest value
func renderBars(title string, bars []bar, width int, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")

	if len(bars) == 0 {
		b.WriteString(mutedStyle.Render("No data"))
		return b.String()
	}

	labelWidth, maxValue, valueWidth := 0, 0, 1
	for _, br := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(br.label))
		maxValue = max(maxValue, br.value)
		valueWidth = max(valueWidth, len(strconv.Itoa(br.value)))
	}
	labelWidth = min(labelWidth, maxLabelWidth+3)

	barWidth := max(width-labelWidth-valueWidth-3, 5)
	for i, br := range bars {
		length := 0
		if maxValue > 0 {
			length = br.value * barWidth / maxValue
		}
		if br.value > 0 && length == 0 {
			length = 1
		}
		fmt.Fprintf(&b, "%-*s %s %*d",
			labelWidth, truncate(br.label, maxLabelWidth),
			style.Render(strings.Repeat("█", length)+strings.Repeat(" ", barWidth-length)),
			valueWidth, br.value)
		if i < len(bars)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

var heatShades = []rune{'·', '░', '▒', '▓', '█'}

// renderHeatmap draws one row per date and one cell per hour, shaded by
// count relative to the busiest cell. Only the last maxDays dates are shown.
func renderHeatmap(title string, heat map[int]map[string]int, maxDays int, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")

	perDate := make(map[string][24]int)
	maxValue := 0
	for hour, row := range heat {
		if hour < 0 || hour > 23 {
			continue
		}
		for date, count := range row {
			cells := perDate[date]
			cells[hour] += count
			perDate[date] = cells
			maxValue = max(maxValue, cells[hour])
		}
	}
	if len(perDate) == 0 {
		b.WriteString(mutedStyle.Render("No data"))
		return b.String()
	}

	dates := make([]string, 0, len(perDate))
	for date := range perDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if maxDays > 0 && len(dates) > maxDays {
		dates = dates[len(dates)-maxDays:]
	}

	labelWidth := 0
	for _, date := range dates {
		labelWidth = max(labelWidth, len(date))
	}

	b.WriteString(strings.Repeat(" ", labelWidth+1))
	for h := 0; h < 24; h += 6 {
		fmt.Fprintf(&b, "%-6s", fmt.Sprintf("%02d", h))
	}

	for _, date := range dates {
		cells := perDate[date]
		row := make([]rune, 24)
		for h, count := range cells {
			level := 0
			if count > 0 && maxValue > 0 {
				level = (count*(len(heatShades)-1) + maxValue - 1) / maxValue
			}
			row[h] = heatShades[level]
		}
		fmt.Fprintf(&b, "\n%-*s %s", labelWidth, date, style.Render(string(row)))
	}
	return b.String()
}

// truncate keeps the first n runes of s and appends "..." when it cut anything
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
