package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings handled outside the list; the list brings its own navigation and filter keys.
type keyMap struct {
	pick  key.Binding
	yes   key.Binding
	no    key.Binding
	again key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		pick:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "shuffle")),
		yes:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		again: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "pick another")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// footer returns the bindings listed under view v. The shuffle view takes no input.
func (k keyMap) footer(v ViewState) []key.Binding {
	switch v {
	case PlaylistListView:
		return []key.Binding{k.pick, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no, k.quit}
	case ResultView:
		return []key.Binding{k.again, k.quit}
	default:
		return nil
	}
}
