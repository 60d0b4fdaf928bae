// Package config loads undolog settings from a YAML or CUE file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, UNDOLOG_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/persist"
)

// DefaultDatabase is the SQLite path used when none is configured.
const DefaultDatabase = "undolog.db"

// Config is the full undolog configuration.
type Config struct {
	// History configures tracked/undoable types and reserved action names.
	History history.Config `yaml:"history" json:"history"`

	// Database is the SQLite file histories are stored in.
	Database string `yaml:"database" json:"database"`

	// KeyPrefix namespaces document keys in storage.
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`

	// LoadActionType names the action that switches documents.
	LoadActionType string `yaml:"load_action_type" json:"load_action_type"`
}

// envConfig holds raw environment overrides. Unset variables leave the
// corresponding setting alone.
type envConfig struct {
	Database       string   `env:"UNDOLOG_DB"`
	KeyPrefix      string   `env:"UNDOLOG_KEY_PREFIX"`
	LoadActionType string   `env:"UNDOLOG_LOAD_ACTION_TYPE"`
	Tracked        []string `env:"UNDOLOG_TRACKED_ACTION_TYPES"  envSeparator:","`
	Undoable       []string `env:"UNDOLOG_UNDOABLE_ACTION_TYPES" envSeparator:","`
	TrackAfter     string   `env:"UNDOLOG_TRACK_AFTER_ACTION_TYPE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History:        history.DefaultConfig(),
		Database:       DefaultDatabase,
		KeyPrefix:      persist.DefaultKeyPrefix,
		LoadActionType: persist.DefaultLoadActionType,
	}
}

// Load builds the configuration from defaults, the file at path (skipped
// when path is empty), and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = Merge(cfg, file)
	}

	cfg, err := ApplyEnv(cfg)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a config file. The format follows the extension: .yaml or
// .yml for YAML (unknown fields rejected), .cue or .json for CUE.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".cue", ".json":
		ctx := cuecontext.New()
		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return Config{}, fmt.Errorf("compile config %s: %w", path, err)
		}
		if err := value.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	return cfg, nil
}

// ApplyEnv overlays UNDOLOG_* environment variables on cfg.
func ApplyEnv(cfg Config) (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return Merge(cfg, Config{
		Database:       raw.Database,
		KeyPrefix:      raw.KeyPrefix,
		LoadActionType: raw.LoadActionType,
		History: history.Config{
			TrackedActionTypes:   raw.Tracked,
			UndoableActionTypes:  raw.Undoable,
			TrackAfterActionType: raw.TrackAfter,
		},
	}), nil
}

// Merge overlays the non-empty settings of override on base.
func Merge(base, override Config) Config {
	out := base
	out.History = history.Merge(base.History, override.History)
	if override.Database != "" {
		out.Database = override.Database
	}
	if override.KeyPrefix != "" {
		out.KeyPrefix = override.KeyPrefix
	}
	if override.LoadActionType != "" {
		out.LoadActionType = override.LoadActionType
	}
	return out
}

// Validate checks the history settings and that the load action does not
// collide with a reserved history action or the track-after action. The
// adapter consumes load actions before the engine sees them.
func (c Config) Validate() error {
	h := history.Merge(history.DefaultConfig(), c.History)
	if err := h.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reserved := []string{
		h.ActionTypes.Undo, h.ActionTypes.Redo, h.ActionTypes.Reset,
		h.ActionTypes.Hydrate, h.ActionTypes.Tracking,
	}
	for _, name := range reserved {
		if c.LoadActionType == name {
			return fmt.Errorf("config: load_action_type %q collides with a history action", name)
		}
	}
	if h.TrackAfterActionType != "" && c.LoadActionType == h.TrackAfterActionType {
		return fmt.Errorf("config: load_action_type %q collides with track_after_action_type", c.LoadActionType)
	}
	return nil
}

// HistoryOptions returns the engine options for these settings.
func (c Config) HistoryOptions() []history.Option {
	return []history.Option{history.WithConfig(c.History)}
}

// AdapterOptions returns the persistence adapter options for these
// settings.
func (c Config) AdapterOptions() []persist.Option {
	return []persist.Option{
		persist.WithKeyPrefix(c.KeyPrefix),
		persist.WithLoadActionType(c.LoadActionType),
	}
}
