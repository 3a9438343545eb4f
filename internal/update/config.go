package update

import (
	"time"

	"github.com/sandeepkv93/flow/internal/config"
	"github.com/sandeepkv93/flow/internal/focus"
	"github.com/sandeepkv93/flow/internal/projection"
)

type RuntimeConfig struct {
	DesktopNotifications bool
	FocusSession         time.Duration
	CalendarMode         projection.Mode
	Window               projection.Window
	NotesWidth           int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DesktopNotifications: false,
		FocusSession:         focus.DefaultSession,
		CalendarMode:         projection.ModeWeek,
		Window:               projection.DefaultWindow,
		NotesWidth:           48,
	}
}

// RuntimeConfigFrom narrows the loaded settings to what the app loop uses.
func RuntimeConfigFrom(cfg config.Config) (RuntimeConfig, error) {
	out := DefaultRuntimeConfig()
	out.DesktopNotifications = cfg.Notifications.Desktop
	if session := cfg.FocusSession(); session > 0 {
		out.FocusSession = session
	}
	mode, err := projection.ParseMode(cfg.Calendar.DefaultView)
	if err != nil {
		return RuntimeConfig{}, err
	}
	out.CalendarMode = mode
	window, err := cfg.Calendar.Window()
	if err != nil {
		return RuntimeConfig{}, err
	}
	out.Window = window
	return out, nil
}
