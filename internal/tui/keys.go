package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings while a transfer is in progress.
type KeyMap struct {
	Cancel key.Binding
	Detach key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "cancel job"),
		),
		Detach: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "stop waiting"),
		),
	}
}

// HelpText returns a formatted help string for the progress view.
func (k KeyMap) HelpText() string {
	return k.Cancel.Help().Key + " " + k.Cancel.Help().Desc + " • " + k.Detach.Help().Key + " " + k.Detach.Help().Desc
}
