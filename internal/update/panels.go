package update

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/projection"
	"github.com/sandeepkv93/flow/internal/views"
)

const maxNotifications = 40

func (m Model) renderListView() string {
	return views.RenderListPanel(views.ListPanelData{
		QuickAddView:   m.quickAddInput.View(),
		QuickAddActive: m.QuickAdd.Active,
		Rows:           taskRows(projection.List(m.tasks()), m.assistant.Tracker()),
		SelectedID:     m.SelectedTaskID,
	})
}

func (m Model) renderBoardView() string {
	cols := projection.Board(m.tasks())
	data := views.BoardPanelData{SelectedID: m.SelectedTaskID}
	for i, col := range cols {
		title := string(col.Status)
		if i == m.Board.Column {
			title = "> " + title
		}
		data.Columns = append(data.Columns, views.BoardColumnData{
			Title: title,
			Rows:  taskRows(col.Tasks, m.assistant.Tracker()),
		})
	}
	out := views.RenderBoardPanel(data)
	if m.QuickAdd.Active {
		out = m.quickAddInput.View() + "\n" + out
	}
	return out
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

// syncBubbleData refreshes the widgets whose content derives from the store.
func (m *Model) syncBubbleData() {
	m.syncAgendaTable()
	m.syncNotesViewport()
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		if err := m.notifier.Send(n); err != nil {
			m.logger.Debug("desktop notification failed", zap.Error(err))
		}
	}
}
