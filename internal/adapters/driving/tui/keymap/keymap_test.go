package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"ctrl+c"}},
		{"ask", km.Ask, []string{"enter"}},
		{"switch", km.Switch, []string{"tab"}},
		{"back", km.Back, []string{"esc"}},
		{"reconcile", km.Reconcile, []string{"r", "ctrl+r"}},
		{"refresh", km.Refresh, []string{"ctrl+l"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"page up", km.PageUp, []string{"pgup"}},
		{"page down", km.PageDown, []string{"pgdown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestDefaultKeyMap_Matches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, km.Ask))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.Switch))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}, km.Reconcile))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, km.Quit))
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.AskHelp(), km.Ask)
	assert.NotContains(t, km.AskHelp(), km.Reconcile, "r must stay typeable in the question field")
	assert.Contains(t, km.LedgerHelp(), km.Reconcile)
	assert.Contains(t, km.LedgerHelp(), km.Back)
}
