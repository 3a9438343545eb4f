package update

import (
	"testing"
	"time"

	"github.com/sandeepkv93/flow/internal/config"
	"github.com/sandeepkv93/flow/internal/projection"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.FocusSession != 25*time.Minute {
		t.Fatalf("unexpected focus default: %+v", cfg)
	}
	if cfg.CalendarMode != projection.ModeWeek || cfg.Window != projection.DefaultWindow {
		t.Fatalf("unexpected calendar defaults: %+v", cfg)
	}
	if cfg.DesktopNotifications {
		t.Fatal("expected desktop notifications off by default")
	}
}

func TestRuntimeConfigFromLoadedConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Focus.SessionMinutes = 50
	cfg.Calendar.DefaultView = "day"
	cfg.Calendar.DayStart = "08:00"
	cfg.Calendar.DayEnd = "18:00"
	cfg.Calendar.StepMinutes = 60
	cfg.Notifications.Desktop = true

	rc, err := RuntimeConfigFrom(cfg)
	if err != nil {
		t.Fatalf("runtime config: %v", err)
	}
	if !rc.DesktopNotifications || rc.FocusSession != 50*time.Minute {
		t.Fatalf("unexpected runtime config: %+v", rc)
	}
	if rc.CalendarMode != projection.ModeDay {
		t.Fatalf("expected day mode, got %q", rc.CalendarMode)
	}
	want := projection.Window{Start: 8 * time.Hour, End: 18 * time.Hour, Step: time.Hour}
	if rc.Window != want {
		t.Fatalf("unexpected window: %+v", rc.Window)
	}
}

func TestRuntimeConfigRejectsBadWindow(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Calendar.DayStart = "19:00"
	cfg.Calendar.DayEnd = "07:00"
	if _, err := RuntimeConfigFrom(cfg); err == nil {
		t.Fatal("expected error for inverted window")
	}
}
