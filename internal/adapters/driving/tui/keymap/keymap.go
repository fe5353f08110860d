// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Ask submits the question in the input field.
	Ask key.Binding

	// Switch toggles between the ask and ledger panes.
	Switch key.Binding

	// Back returns to the ask pane.
	Back key.Binding

	// Reconcile ingests knowledge-base files missing from the ledger.
	Reconcile key.Binding

	// Refresh reloads the ledger and index status.
	Refresh key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Ask: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
		Switch: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Reconcile: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reconcile"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// AskHelp returns the bindings shown under the ask pane.
func (k *KeyMap) AskHelp() []key.Binding {
	return []key.Binding{k.Ask, k.PageUp, k.PageDown, k.Switch, k.Quit}
}

// LedgerHelp returns the bindings shown under the ledger pane.
func (k *KeyMap) LedgerHelp() []key.Binding {
	return []key.Binding{k.Reconcile, k.Refresh, k.Up, k.Down, k.Back, k.Quit}
}
