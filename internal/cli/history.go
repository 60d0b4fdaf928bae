package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/ir"
)

// HistoryView is a stored history as shown by the history command.
type HistoryView struct {
	Document string             `json:"document"`
	History  ir.ExportedHistory `json:"history"`
}

// String renders one line per entry, oldest first.
func (v HistoryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document: %s (tracking=%t)\n", v.Document, v.History.Tracking)
	if len(v.History.Actions) == 0 {
		b.WriteString("  (no actions)")
		return b.String()
	}
	for i, entry := range v.History.Actions {
		line := fmt.Sprintf("  %d. %s", i+1, entry.Action.Type)
		if entry.Action.Payload != nil {
			payload, err := ir.MarshalCanonical(entry.Action.Payload)
			if err == nil {
				line += " " + string(payload)
			}
		}
		if entry.Skipped {
			line += " (undone)"
		}
		b.WriteString(line)
		if i < len(v.History.Actions)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StorageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a document's stored history",
		Long: `Print the action history stored for a document.

Exit codes:
  0 - History printed
  1 - No history stored for the document
  2 - Command error (missing --doc, unreadable database, etc.)

Example:
  undolog history --db ./undolog.db --doc notes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	addStorageFlags(cmd, opts, true)
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func showHistory(opts *StorageOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	raw, ok, err := sess.store.GetItem(sess.ctx, sess.storageKey(opts.Document))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("no history stored for document %q", opts.Document))
	}

	var stored ir.ExportedHistory
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return WrapExitError(ExitFailure, "stored history is corrupt", err)
	}

	return formatter(opts.RootOptions, cmd).Success(HistoryView{
		Document: opts.Document,
		History:  stored,
	})
}
