package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Reload   key.Binding
	Tab      key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Search   key.Binding
	IPFilter key.Binding
	Dates    key.Binding
	Export   key.Binding
	Details  key.Binding
	Close    key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.Tab, k.Search, k.IPFilter, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevPage, k.NextPage, k.Details, k.Close},
		{k.Search, k.IPFilter, k.Dates},
		{k.Reload, k.Export, k.Tab, k.Quit},
	}
}

var keys = keyMap{
	Reload: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reload"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch view"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next page"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	IPFilter: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "next ip"),
	),
	Dates: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "date range"),
	),
	Export: key.NewBinding(
		key.WithKeys("e", "ctrl+e"),
		key.WithHelp("e", "export"),
	),
	Details: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
