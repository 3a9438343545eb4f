package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/focus"
	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/projection"
	"github.com/sandeepkv93/flow/internal/store"
)

type View string

const (
	ViewList     View = "List"
	ViewBoard    View = "Board"
	ViewCalendar View = "Calendar"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	List     string
	Board    string
	Calendar string
	Focus    string
	Help     string
	Quit     string
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Board          BoardState
	Calendar       CalendarState
	Detail         DetailState
	Confirm        ConfirmState
	QuickAdd       QuickAddState
	Palette        CommandPaletteState
	HelpVisible    bool
	Focus          focus.Timer
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	Loaded         bool
	focusGen       int

	store     *store.Store
	loader    store.Loader
	saveErrs  <-chan error
	assistant *assistant.Service
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location
	cfg       RuntimeConfig

	// Bubble components used for rich TUI controls
	agendaTable   table.Model
	quickAddInput textinput.Model
	commandInput  textinput.Model
	notesArea     textarea.Model
	focusProgress progress.Model
	aiSpinner     spinner.Model
	helpModel     help.Model
	notesViewport viewport.Model
}

type BoardState struct {
	Column int
}

type CalendarState struct {
	Mode   projection.Mode
	Anchor time.Time
	Window projection.Window
}

// DetailState is the open task pane. TaskID is empty when closed.
type DetailState struct {
	TaskID    string
	Editing   bool
	SubCursor int
}

type ConfirmState struct {
	Active bool
	TaskID string
	Title  string
}

type QuickAddState struct {
	Active bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// LoadedMsg reports the outcome of the one-time store hydration.
type LoadedMsg struct {
	Err error
}

type SaveFailedMsg struct {
	Err error
}

// FocusTickMsg is tagged with the run that scheduled it so that ticks from a
// paused run are ignored after a restart.
type FocusTickMsg struct {
	Gen int
}

// AssistantResultMsg carries a finished assistant request back to the UI
// goroutine. Exactly one of Steps, Text or Err is meaningful.
type AssistantResultMsg struct {
	TaskID string
	Kind   assistant.Kind
	Steps  []string
	Text   string
	Err    error
}

// Deps are the collaborators owned by the entry point.
type Deps struct {
	Store      *store.Store
	Loader     store.Loader
	SaveErrors <-chan error
	Assistant  *assistant.Service
	Notifier   DesktopNotifier
	Logger     *zap.Logger
	Clock      func() time.Time
	Location   *time.Location
}

func NewModel(deps Deps, cfg RuntimeConfig) Model {
	if deps.Store == nil {
		deps.Store = store.New(nil)
	}
	if deps.Assistant == nil {
		deps.Assistant = assistant.NewService(nil, 0, deps.Logger)
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopDesktopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if cfg.Window.Validate() != nil {
		cfg.Window = projection.DefaultWindow
	}
	if cfg.CalendarMode == "" {
		cfg.CalendarMode = projection.ModeWeek
	}
	if cfg.NotesWidth <= 0 {
		cfg.NotesWidth = DefaultRuntimeConfig().NotesWidth
	}

	m := Model{
		CurrentView: ViewList,
		Calendar: CalendarState{
			Mode:   cfg.CalendarMode,
			Anchor: deps.Clock().In(deps.Location),
			Window: cfg.Window,
		},
		Focus:          focus.New(cfg.FocusSession),
		DesktopEnabled: cfg.DesktopNotifications,
		notifier:       deps.Notifier,
		Keys: GlobalKeyMap{
			List:     "1",
			Board:    "2",
			Calendar: "3",
			Focus:    "f",
			Help:     "?",
			Quit:     "q",
		},
		store:     deps.Store,
		loader:    deps.Loader,
		saveErrs:  deps.SaveErrors,
		assistant: deps.Assistant,
		logger:    deps.Logger,
		now:       deps.Clock,
		loc:       deps.Location,
		cfg:       cfg,
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Day", Width: 10},
		{Title: "Time", Width: 11},
		{Title: "Status", Width: 11},
		{Title: "Title", Width: 28},
	}
	m.agendaTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(6))

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.Placeholder = "What needs doing?"
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56

	m.notesArea = textarea.New()
	m.notesArea.SetWidth(m.cfg.NotesWidth)
	m.notesArea.SetHeight(8)
	m.notesArea.ShowLineNumbers = false
	m.notesArea.Placeholder = "Task notes (markdown)"

	m.focusProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage())

	m.aiSpinner = spinner.New()
	m.aiSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.notesViewport = viewport.New(m.cfg.NotesWidth, 10)
}

// tasks is the single read path from the store for rendering and selection.
func (m Model) tasks() []model.Task {
	return m.store.Tasks()
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.SelectedTaskID == "" {
		return model.Task{}, false
	}
	return m.store.Task(m.SelectedTaskID)
}
