package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/flow/internal/commands"
	"github.com/sandeepkv93/flow/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	plain = append(plain, "", "commands:")
	for _, t := range commands.Types {
		plain = append(plain, "  "+commands.Usage(t))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.List, Action: "switch to List"},
		{Key: m.Keys.Board, Action: "switch to Board"},
		{Key: m.Keys.Calendar, Action: "switch to Calendar"},
		{Key: m.Keys.Focus, Action: "start/pause focus timer"},
		{Key: "F", Action: "reset focus timer"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	if m.Detail.TaskID != "" {
		return []KeyBinding{
			{Key: "e", Action: "edit notes (ctrl+s saves)"},
			{Key: "j/k", Action: "move step cursor"},
			{Key: "space", Action: "toggle step"},
			{Key: "s/m", Action: "toggle / cycle status"},
			{Key: "d/b/u", Action: "decompose / brainstorm / unstuck"},
			{Key: "esc", Action: "close detail"},
		}
	}
	common := []KeyBinding{
		{Key: "a", Action: "quick add"},
		{Key: "enter", Action: "open detail"},
		{Key: "space", Action: "toggle done"},
		{Key: "m", Action: "cycle status"},
		{Key: "x", Action: "delete (asks first)"},
		{Key: "d/b/u", Action: "decompose / brainstorm / unstuck"},
	}
	switch m.CurrentView {
	case ViewBoard:
		return append(common,
			KeyBinding{Key: "h/l", Action: "previous/next column"},
			KeyBinding{Key: "j/k", Action: "move selection"},
			KeyBinding{Key: "</>", Action: "move task to previous/next column"},
		)
	case ViewCalendar:
		return append(common,
			KeyBinding{Key: "h/l", Action: "previous/next period"},
			KeyBinding{Key: "w/D/v", Action: "week / day / toggle"},
			KeyBinding{Key: "t", Action: "jump to today"},
			KeyBinding{Key: "j/k", Action: "move selection"},
			KeyBinding{Key: "H/L", Action: "move by one slot"},
			KeyBinding{Key: "[/]", Action: "move by one day"},
			KeyBinding{Key: "J/K", Action: "lengthen/shorten"},
			KeyBinding{Key: "A", Action: "toggle all-day"},
		)
	default:
		return append(common, KeyBinding{Key: "j/k", Action: "move selection"})
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
