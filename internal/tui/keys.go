package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the client's key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding

	// Deck
	Skip    key.Binding
	Undo    key.Binding
	Eat     key.Binding
	Details key.Binding

	// Navigation between pages
	Profile key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Register  key.Binding

	// Profile page
	Edit     key.Binding
	Password key.Binding
	Logout   key.Binding

	// Rating modal
	Left  key.Binding
	Right key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s", "right"),
			key.WithHelp("s/→", "skip"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "left"),
			key.WithHelp("u/←", "undo"),
		),
		Eat: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "eat"),
		),
		Details: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "details"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profile"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Register: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "register"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit profile"),
		),
		Password: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "change password"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "log out"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "fewer stars"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "more stars"),
		),
	}
}
