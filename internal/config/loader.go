package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "FLOW_"
	legacyKeyEnv      = "GEMINI_API_KEY"
	maxConfigFileSize = 1024 * 1024
)

// Options controls where Load looks for settings.
type Options struct {
	// ConfigPath is an explicit YAML file; it must exist when set.
	ConfigPath string
	// DataDir overrides the application data directory.
	DataDir string
}

// Load resolves settings with precedence (highest first):
//  1. FLOW_* environment variables (FLOW_ASSISTANT_API_KEY -> assistant.api_key)
//  2. YAML config file
//  3. built-in defaults
//
// GEMINI_API_KEY fills assistant.api_key when nothing else set it.
func Load(opts Options) (*Config, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	k := koanf.New(".")

	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		def, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	content, err := readConfigFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg, dataDir)
	if cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = strings.TrimSpace(os.Getenv(legacyKeyEnv))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps FLOW_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidConfig, path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%w: config file exceeds %d bytes", ErrInvalidConfig, maxConfigFileSize)
	}
	return io.ReadAll(f)
}
