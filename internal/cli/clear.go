package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StorageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a document's stored history",
		Long: `Remove the history stored for a document. Clearing a document that
has no history is not an error.

Example:
  undolog clear --db ./undolog.db --doc notes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearHistory(opts, cmd)
		},
	}

	addStorageFlags(cmd, opts, true)
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func clearHistory(opts *StorageOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	if err := sess.store.RemoveItem(sess.ctx, sess.storageKey(opts.Document)); err != nil {
		return WrapExitError(ExitCommandError, "failed to clear history", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if f.Format == "json" {
		return f.Success(map[string]string{"cleared": opts.Document})
	}
	return f.Success(fmt.Sprintf("cleared %s", opts.Document))
}
