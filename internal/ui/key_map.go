package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the player.
type keyMap struct {
	seek key.Binding
	play key.Binding
	help key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		seek: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to segment"),
		),
		play: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.seek, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.seek, k.play},
		{k.help, k.quit},
	}
}
