package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/engine"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/persist"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	StorageOptions
}

// RunSummary is the state of a document after a run.
type RunSummary struct {
	Document string `json:"document"`
	Count    int64  `json:"count"`
	Label    string `json:"label,omitempty"`
	CanUndo  bool   `json:"can_undo"`
	CanRedo  bool   `json:"can_redo"`
	Actions  int    `json:"actions"`
	Skipped  int    `json:"skipped"`
	Tracking bool   `json:"tracking"`
}

// String renders the summary for text output.
func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document: %s\n", s.Document)
	fmt.Fprintf(&b, "count:    %d\n", s.Count)
	if s.Label != "" {
		fmt.Fprintf(&b, "label:    %s\n", s.Label)
	}
	fmt.Fprintf(&b, "history:  %d actions (%d undone), tracking=%t\n", s.Actions, s.Skipped, s.Tracking)
	fmt.Fprintf(&b, "can undo: %t, can redo: %t", s.CanUndo, s.CanRedo)
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{StorageOptions: StorageOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Apply a script of actions to a stored document",
		Long: `Load a document's history, apply the script's steps to the counter
reducer, and store the resulting history.

A script is YAML:

  steps:
    - op: dispatch
      action: inc
      payload: {by: 2}
    - op: undo
    - op: redo
    - op: tracking
      enabled: false

Without --doc a new document key is generated and printed.

Example:
  undolog run --db ./undolog.db --doc notes ./script.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	addStorageFlags(cmd, &opts.StorageOptions, true)
	return cmd
}

func runScript(opts *RunOptions, scriptPath string, cmd *cobra.Command) error {
	script, err := LoadScript(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	sess, err := openSession(&opts.StorageOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	h, err := history.New[counter.State](counter.Reduce,
		append(sess.cfg.HistoryOptions(), history.WithLogger(sess.logger))...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid history config", err)
	}

	actions, err := script.Actions(h)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid script", err)
	}

	doc := opts.Document
	if doc == "" {
		doc = persist.NewDocumentKey()
	}

	adapter := persist.NewAdapter(sess.store, h,
		append(sess.cfg.AdapterOptions(),
			persist.WithLogger(sess.logger),
			persist.WithContext(sess.ctx),
		)...)
	st := engine.New(h.Reduce, h.Initial(), adapter.Middleware())

	sess.logger.Debug("loading document", "doc", doc)
	if err := st.Dispatch(adapter.LoadAction(doc)); err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}
	adapter.Wait()

	f := formatter(opts.RootOptions, cmd)
	f.VerboseLog("loaded document %s: %d actions", doc, len(st.State().History.Actions))

	for i, action := range actions {
		if err := st.Dispatch(action); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("step %d failed", i), err)
		}
		adapter.Wait()
	}

	if err := adapter.Flush(sess.ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to store history", err)
	}

	return f.Success(summarize(doc, st.State()))
}

func summarize(doc string, state history.State[counter.State]) RunSummary {
	skipped := 0
	for _, entry := range state.History.Actions {
		if entry.Skipped {
			skipped++
		}
	}
	return RunSummary{
		Document: doc,
		Count:    state.Present.Count,
		Label:    state.Present.Label,
		CanUndo:  state.CanUndo,
		CanRedo:  state.CanRedo,
		Actions:  len(state.History.Actions),
		Skipped:  skipped,
		Tracking: state.History.Tracking,
	}
}
