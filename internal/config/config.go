// Package config loads runtime settings for flow.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepkv93/flow/internal/projection"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	appDirName      = "flow"
	dataFileName    = "flow-db.json"
	sqliteFileName  = "flow.db"
	logFileName     = "flow.log"
	DriverJSON      = "json"
	DriverSQLite    = "sqlite"
	defaultProvider = "gemini"
)

type Config struct {
	Storage       StorageConfig      `koanf:"storage"`
	Assistant     AssistantConfig    `koanf:"assistant"`
	Focus         FocusConfig        `koanf:"focus"`
	Calendar      CalendarConfig     `koanf:"calendar"`
	Notifications NotificationConfig `koanf:"notifications"`
	Log           LogConfig          `koanf:"log"`
}

type StorageConfig struct {
	Driver     string `koanf:"driver"`
	Path       string `koanf:"path"`
	SaveBuffer int    `koanf:"save_buffer"`
}

type AssistantConfig struct {
	Provider  string        `koanf:"provider"`
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

type FocusConfig struct {
	SessionMinutes int `koanf:"session_minutes"`
}

type CalendarConfig struct {
	DefaultView string `koanf:"default_view"`
	DayStart    string `koanf:"day_start"`
	DayEnd      string `koanf:"day_end"`
	StepMinutes int    `koanf:"step_minutes"`
}

type NotificationConfig struct {
	Desktop bool `koanf:"desktop"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	Path  string `koanf:"path"`
}

// DataDir is the application-private directory holding the data file and log.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// DefaultConfigPath is <user config dir>/flow/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the built-in settings rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		Storage: StorageConfig{
			Driver:     DriverJSON,
			Path:       filepath.Join(dataDir, dataFileName),
			SaveBuffer: 16,
		},
		Assistant: AssistantConfig{
			Provider:  defaultProvider,
			Timeout:   60 * time.Second,
			RateLimit: 0.25,
			Burst:     3,
		},
		Focus:         FocusConfig{SessionMinutes: 25},
		Calendar:      CalendarConfig{DefaultView: "week", DayStart: "06:00", DayEnd: "23:59", StepMinutes: 30},
		Notifications: NotificationConfig{Desktop: true},
		Log:           LogConfig{Level: "info", Path: filepath.Join(dataDir, logFileName)},
	}
}

func applyDefaults(cfg *Config, dataDir string) {
	def := Default(dataDir)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = def.Storage.Path
		if cfg.Storage.Driver == DriverSQLite {
			cfg.Storage.Path = filepath.Join(dataDir, sqliteFileName)
		}
	}
	if cfg.Storage.SaveBuffer <= 0 {
		cfg.Storage.SaveBuffer = def.Storage.SaveBuffer
	}
	if cfg.Assistant.Provider == "" {
		cfg.Assistant.Provider = def.Assistant.Provider
	}
	cfg.Assistant.Provider = strings.ToLower(cfg.Assistant.Provider)
	if cfg.Assistant.Timeout <= 0 {
		cfg.Assistant.Timeout = def.Assistant.Timeout
	}
	if cfg.Assistant.RateLimit <= 0 {
		cfg.Assistant.RateLimit = def.Assistant.RateLimit
	}
	if cfg.Assistant.Burst <= 0 {
		cfg.Assistant.Burst = def.Assistant.Burst
	}
	if cfg.Focus.SessionMinutes <= 0 {
		cfg.Focus.SessionMinutes = def.Focus.SessionMinutes
	}
	if cfg.Calendar.DefaultView == "" {
		cfg.Calendar.DefaultView = def.Calendar.DefaultView
	}
	if cfg.Calendar.DayStart == "" {
		cfg.Calendar.DayStart = def.Calendar.DayStart
	}
	if cfg.Calendar.DayEnd == "" {
		cfg.Calendar.DayEnd = def.Calendar.DayEnd
	}
	if cfg.Calendar.StepMinutes <= 0 {
		cfg.Calendar.StepMinutes = def.Calendar.StepMinutes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = def.Log.Path
	}
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	switch c.Assistant.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("%w: assistant.provider %q", ErrInvalidConfig, c.Assistant.Provider)
	}
	if _, err := projection.ParseMode(c.Calendar.DefaultView); err != nil {
		return fmt.Errorf("%w: calendar.default_view: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Calendar.Window(); err != nil {
		return err
	}
	return nil
}

func (c Config) FocusSession() time.Duration {
	return time.Duration(c.Focus.SessionMinutes) * time.Minute
}

// Window converts the HH:MM bounds into a projection window.
func (c CalendarConfig) Window() (projection.Window, error) {
	start, err := parseClock(c.DayStart)
	if err != nil {
		return projection.Window{}, fmt.Errorf("%w: calendar.day_start: %v", ErrInvalidConfig, err)
	}
	end, err := parseClock(c.DayEnd)
	if err != nil {
		return projection.Window{}, fmt.Errorf("%w: calendar.day_end: %v", ErrInvalidConfig, err)
	}
	w := projection.Window{Start: start, End: end, Step: time.Duration(c.StepMinutes) * time.Minute}
	if err := w.Validate(); err != nil {
		return projection.Window{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return w, nil
}

func parseClock(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
