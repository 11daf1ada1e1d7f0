package promptbox

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit      key.Binding
	Activate    key.Binding
	NextFocus   key.Binding
	OpenPicker  key.Binding
	ClosePicker key.Binding
	Dismiss     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "generate"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "press generate"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "field/button"),
		),
		OpenPicker: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "attach image or PDF"),
		),
		ClosePicker: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close picker"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc", " "),
			key.WithHelp("enter", "dismiss"),
		),
	}
}
