package tui

import tea "github.com/charmbracelet/bubbletea"

// Page is one full-screen view of the client (login, register, home,
// profile).
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
	Params any
}

// Receiver is optionally implemented by pages that accept parameters on
// navigation, delivered before their Init runs.
type Receiver interface {
	OnNav(params any)
}
