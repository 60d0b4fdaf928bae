package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/undolog/internal/engine"
	"github.com/roach88/undolog/internal/equal"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/ir"
)

// DefaultLoadActionType is the action that switches the adapter to another
// document. Its payload is {"key": string}.
const DefaultLoadActionType = "history/load"

// Adapter mirrors a history.State store into Storage.
//
// Thread-safety: an Adapter is safe for concurrent use. Storage I/O runs on
// background goroutines, at most one at a time.
type Adapter[S any] struct {
	storage  Storage
	history  *history.Engine[S]
	loadType string
	prefix   string
	logger   *slog.Logger
	ctx      context.Context

	mu     sync.Mutex
	key    string
	saved  []byte // canonical form of what storage holds for key, if known
	absent bool   // storage is known to hold nothing for key
	api    engine.API[history.State[S]]

	busy atomic.Bool
	wg   sync.WaitGroup
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	loadType string
	prefix   string
	key      string
	logger   *slog.Logger
	ctx      context.Context
}

// WithLoadActionType renames the load action.
func WithLoadActionType(actionType string) Option {
	return func(o *options) {
		if actionType != "" {
			o.loadType = actionType
		}
	}
}

// WithKeyPrefix sets the storage key prefix. Default: DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithKey sets the initial document key. Without one nothing is saved
// until a load action names a document.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithLogger sets the logger for storage warnings and skipped operations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithContext sets the context passed to background storage calls.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// NewAdapter creates an Adapter for stores driven by h.
func NewAdapter[S any](storage Storage, h *history.Engine[S], opts ...Option) *Adapter[S] {
	o := options{
		loadType: DefaultLoadActionType,
		prefix:   DefaultKeyPrefix,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Adapter[S]{
		storage:  storage,
		history:  h,
		loadType: o.loadType,
		prefix:   o.prefix,
		logger:   o.logger,
		ctx:      o.ctx,
		key:      o.key,
	}
}

// Key returns the current document key.
func (a *Adapter[S]) Key() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.key
}

// StorageKey returns the storage key for document key.
func (a *Adapter[S]) StorageKey(key string) string {
	return a.prefix + key
}

// LoadAction returns the action that switches to document key.
func (a *Adapter[S]) LoadAction(key string) ir.Action {
	return ir.Action{
		Type:    a.loadType,
		Payload: ir.NewObject(ir.O("key", ir.String(key))),
	}
}

// Wait blocks until in-flight storage I/O, including the dispatch that
// finishes a load, has completed. It must not be called from inside a
// dispatch.
func (a *Adapter[S]) Wait() {
	a.wg.Wait()
}

// Middleware returns the engine middleware. It must be installed on exactly
// one Store.
func (a *Adapter[S]) Middleware() engine.Middleware[history.State[S]] {
	return func(api engine.API[history.State[S]]) func(next engine.DispatchFunc) engine.DispatchFunc {
		a.mu.Lock()
		a.api = api
		a.mu.Unlock()

		return func(next engine.DispatchFunc) engine.DispatchFunc {
			return func(action ir.Action) error {
				if err := engine.ValidateAction(action); err != nil {
					return err
				}
				if action.Type == a.loadType {
					key, err := a.decodeLoad(action)
					if err != nil {
						return err
					}
					return a.load(api, key)
				}

				prev := api.State()
				if err := next(action); err != nil {
					return err
				}

				if action.Type == a.history.ResetAction().Type {
					a.remove()
					return nil
				}
				cur := api.State()
				if !equal.Deep(prev.Export(), cur.Export()) {
					a.save(cur.Export())
				}
				return nil
			}
		}
	}
}

// Flush waits for in-flight I/O and then writes the current history if
// storage does not already hold it. Unlike background saves, Flush reports
// storage errors.
func (a *Adapter[S]) Flush(ctx context.Context) error {
	a.Wait()

	a.mu.Lock()
	api, key := a.api, a.key
	a.mu.Unlock()
	if api == nil || key == "" {
		return nil
	}

	exported := api.State().Export()
	data, err := exported.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("flush %s: %w", key, err)
	}
	if !a.needsWrite(key, data, exported) {
		return nil
	}
	if err := a.storage.SetItem(ctx, a.StorageKey(key), string(data)); err != nil {
		return fmt.Errorf("flush %s: %w", key, err)
	}
	a.setSaved(key, data)
	return nil
}

func (a *Adapter[S]) decodeLoad(action ir.Action) (string, error) {
	obj, ok := action.Payload.(ir.Object)
	if !ok {
		return "", engine.NewInvalidActionError(action.Type, "payload must be an object with a key")
	}
	key, ok := obj["key"].(ir.String)
	if !ok || key == "" {
		return "", engine.NewInvalidActionError(action.Type, "payload.key must be a non-empty string")
	}
	return string(key), nil
}

// acquire claims the single I/O slot. The caller must release it.
func (a *Adapter[S]) acquire(op, key string) bool {
	if !a.busy.CompareAndSwap(false, true) {
		a.logger.Debug("persist: storage busy, skipping", "op", op, "key", key)
		return false
	}
	a.wg.Add(1)
	return true
}

func (a *Adapter[S]) release() {
	a.busy.Store(false)
}

// setSaved records what storage holds for key. A nil data means the key is
// known to be absent.
func (a *Adapter[S]) setSaved(key string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key == key {
		a.saved = data
		a.absent = data == nil
	}
}

// needsWrite reports whether data differs from what storage holds for key.
// An empty log is never written over an absent key, so a removed document
// stays removed.
func (a *Adapter[S]) needsWrite(key string, data []byte, exported ir.ExportedHistory) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key != key {
		return false
	}
	if a.absent {
		return len(exported.Actions) > 0
	}
	return !bytes.Equal(data, a.saved)
}

func (a *Adapter[S]) save(exported ir.ExportedHistory) {
	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == "" {
		return
	}

	data, err := exported.MarshalCanonical()
	if err != nil {
		a.logger.Warn("persist: encode history failed", "key", key, "error", err)
		return
	}
	if !a.needsWrite(key, data, exported) {
		return
	}
	if !a.acquire("save", key) {
		return
	}

	go func() {
		defer a.wg.Done()
		defer a.release()

		if err := a.storage.SetItem(a.ctx, a.StorageKey(key), string(data)); err != nil {
			a.logger.Warn("persist: save failed", "key", key, "error", err)
			return
		}
		a.setSaved(key, data)
		a.logger.Debug("persist: saved", "key", key, "actions", len(exported.Actions))
	}()
}

func (a *Adapter[S]) remove() {
	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == "" || !a.acquire("remove", key) {
		return
	}

	go func() {
		defer a.wg.Done()
		defer a.release()

		if err := a.storage.RemoveItem(a.ctx, a.StorageKey(key)); err != nil {
			a.logger.Warn("persist: remove failed", "key", key, "error", err)
			return
		}
		a.setSaved(key, nil)
		a.logger.Debug("persist: removed", "key", key)
	}()
}

// load switches to document key, pauses recording, and hydrates from
// storage once the read completes.
func (a *Adapter[S]) load(api engine.API[history.State[S]], key string) error {
	if !a.acquire("load", key) {
		return nil
	}

	a.mu.Lock()
	a.key = key
	a.saved = nil
	a.absent = false
	a.mu.Unlock()

	if err := api.Dispatch(a.history.TrackingAction(false)); err != nil {
		a.wg.Done()
		a.release()
		return err
	}

	go func() {
		defer a.wg.Done()

		next := a.read(key)
		a.release()
		if err := api.Dispatch(next); err != nil {
			a.logger.Warn("persist: dispatch after load failed", "key", key, "error", err)
		}
	}()
	return nil
}

// read fetches the stored history for key and returns the action that
// finishes the load: hydrate when something usable is stored, tracking on
// otherwise.
func (a *Adapter[S]) read(key string) ir.Action {
	resume := a.history.TrackingAction(true)

	value, ok, err := a.storage.GetItem(a.ctx, a.StorageKey(key))
	if err != nil {
		a.logger.Warn("persist: load failed", "key", key, "error", err)
		return resume
	}
	if !ok {
		a.setSaved(key, nil)
		a.logger.Debug("persist: nothing stored", "key", key)
		return resume
	}

	raw, err := ir.UnmarshalValue([]byte(value))
	if err != nil {
		a.logger.Warn("persist: stored history is not valid JSON", "key", key, "error", err)
		return resume
	}
	stored := ir.DecodeExportedHistory(raw)
	if data, err := stored.MarshalCanonical(); err == nil {
		a.setSaved(key, data)
	}

	a.logger.Debug("persist: loaded", "key", key, "actions", len(stored.Actions))
	return a.history.HydrateAction(stored)
}
