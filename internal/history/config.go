package history

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/undolog/internal/equal"
)

// Default reserved action type names.
const (
	DefaultInitActionType     = "@@history/init"
	DefaultUndoActionType     = "undo"
	DefaultRedoActionType     = "redo"
	DefaultResetActionType    = "reset"
	DefaultHydrateActionType  = "hydrate"
	DefaultTrackingActionType = "tracking"
)

// ActionTypes names the reserved actions an Engine consumes itself.
type ActionTypes struct {
	// Init is dispatched once to the base reducer to obtain the initial present.
	Init     string `yaml:"init,omitempty" json:"init,omitempty"`
	Undo     string `yaml:"undo,omitempty" json:"undo,omitempty"`
	Redo     string `yaml:"redo,omitempty" json:"redo,omitempty"`
	Reset    string `yaml:"reset,omitempty" json:"reset,omitempty"`
	Hydrate  string `yaml:"hydrate,omitempty" json:"hydrate,omitempty"`
	Tracking string `yaml:"tracking,omitempty" json:"tracking,omitempty"`
}

// Config controls which actions are recorded and which can be undone.
//
// An empty TrackedActionTypes records every action. An empty
// UndoableActionTypes makes every tracked action undoable. When
// TrackAfterActionType is set, recording starts only once an action of
// that type has been dispatched.
type Config struct {
	TrackedActionTypes   []string    `yaml:"tracked_action_types,omitempty" json:"tracked_action_types,omitempty"`
	UndoableActionTypes  []string    `yaml:"undoable_action_types,omitempty" json:"undoable_action_types,omitempty"`
	TrackAfterActionType string      `yaml:"track_after_action_type,omitempty" json:"track_after_action_type,omitempty"`
	ActionTypes          ActionTypes `yaml:"action_types,omitempty" json:"action_types,omitempty"`
}

// DefaultConfig returns the documented defaults: track everything, every
// tracked action undoable, recording from the start.
func DefaultConfig() Config {
	return Config{
		ActionTypes: ActionTypes{
			Init:     DefaultInitActionType,
			Undo:     DefaultUndoActionType,
			Redo:     DefaultRedoActionType,
			Reset:    DefaultResetActionType,
			Hydrate:  DefaultHydrateActionType,
			Tracking: DefaultTrackingActionType,
		},
	}
}

// Merge overlays override on base. Non-empty strings win; a non-nil slice
// replaces the base slice entirely, so an explicit empty list clears a filter.
func Merge(base, override Config) Config {
	out := base
	if override.TrackedActionTypes != nil {
		out.TrackedActionTypes = append([]string{}, override.TrackedActionTypes...)
	}
	if override.UndoableActionTypes != nil {
		out.UndoableActionTypes = append([]string{}, override.UndoableActionTypes...)
	}
	if override.TrackAfterActionType != "" {
		out.TrackAfterActionType = override.TrackAfterActionType
	}
	out.ActionTypes = mergeActionTypes(base.ActionTypes, override.ActionTypes)
	return out
}

func mergeActionTypes(base, override ActionTypes) ActionTypes {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return ActionTypes{
		Init:     pick(base.Init, override.Init),
		Undo:     pick(base.Undo, override.Undo),
		Redo:     pick(base.Redo, override.Redo),
		Reset:    pick(base.Reset, override.Reset),
		Hydrate:  pick(base.Hydrate, override.Hydrate),
		Tracking: pick(base.Tracking, override.Tracking),
	}
}

// Validate checks that reserved names are present and distinct and that the
// track-after type does not shadow one of them.
func (c Config) Validate() error {
	reserved := []struct {
		field string
		name  string
	}{
		{"init", c.ActionTypes.Init},
		{"undo", c.ActionTypes.Undo},
		{"redo", c.ActionTypes.Redo},
		{"reset", c.ActionTypes.Reset},
		{"hydrate", c.ActionTypes.Hydrate},
		{"tracking", c.ActionTypes.Tracking},
	}

	seen := make(map[string]string, len(reserved))
	for _, r := range reserved {
		if r.name == "" {
			return fmt.Errorf("action_types.%s: must not be empty", r.field)
		}
		if prev, ok := seen[r.name]; ok {
			return fmt.Errorf("action_types.%s: %q already used by action_types.%s", r.field, r.name, prev)
		}
		seen[r.name] = r.field
	}

	if prev, ok := seen[c.TrackAfterActionType]; ok {
		return fmt.Errorf("track_after_action_type: %q collides with action_types.%s", c.TrackAfterActionType, prev)
	}
	return nil
}

// Resolved is a validated Config with its filters turned into lookup sets.
// It is immutable once built.
type Resolved struct {
	cfg      Config
	tracked  map[string]struct{}
	undoable map[string]struct{}
	reserved map[string]commandKind
}

// Resolve merges cfg over the defaults, validates it, and builds the
// lookup sets used by the predicates.
func Resolve(cfg Config) (Resolved, error) {
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return Resolved{}, fmt.Errorf("resolve history config: %w", err)
	}

	r := Resolved{
		cfg:      merged,
		tracked:  toSet(merged.TrackedActionTypes),
		undoable: toSet(merged.UndoableActionTypes),
		reserved: map[string]commandKind{
			merged.ActionTypes.Undo:     kindUndo,
			merged.ActionTypes.Redo:     kindRedo,
			merged.ActionTypes.Reset:    kindReset,
			merged.ActionTypes.Hydrate:  kindHydrate,
			merged.ActionTypes.Tracking: kindTracking,
		},
	}
	if merged.TrackAfterActionType != "" {
		r.reserved[merged.TrackAfterActionType] = kindTrackAfter
	}
	return r, nil
}

// Config returns the merged configuration.
func (r Resolved) Config() Config {
	cfg := r.cfg
	cfg.TrackedActionTypes = slices.Clone(cfg.TrackedActionTypes)
	cfg.UndoableActionTypes = slices.Clone(cfg.UndoableActionTypes)
	return cfg
}

func toSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	cfg    Config
	equal  func(a, b any) bool
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		equal:  equal.Deep,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithConfig overlays cfg on the configuration built so far.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = Merge(o.cfg, cfg)
	}
}

// WithTrackedActionTypes records only actions of the given types.
func WithTrackedActionTypes(types ...string) Option {
	return func(o *options) {
		o.cfg.TrackedActionTypes = append([]string{}, types...)
	}
}

// WithUndoableActionTypes limits undo/redo to actions of the given types.
// Other tracked actions are still recorded and replayed.
func WithUndoableActionTypes(types ...string) Option {
	return func(o *options) {
		o.cfg.UndoableActionTypes = append([]string{}, types...)
	}
}

// WithTrackAfter defers recording until an action of actionType is dispatched.
func WithTrackAfter(actionType string) Option {
	return func(o *options) {
		o.cfg.TrackAfterActionType = actionType
	}
}

// WithActionTypes renames the reserved actions. Empty fields keep defaults.
func WithActionTypes(types ActionTypes) Option {
	return func(o *options) {
		o.cfg.ActionTypes = mergeActionTypes(o.cfg.ActionTypes, types)
	}
}

// WithEqual replaces the no-op detector. Default: equal.Deep.
func WithEqual(fn func(a, b any) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.equal = fn
		}
	}
}

// WithLogger sets the logger used for transition debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
