package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/persist"
)

// DocumentList is the output of the list command.
type DocumentList struct {
	Documents []string `json:"documents"`
}

// String renders one document per line.
func (l DocumentList) String() string {
	if len(l.Documents) == 0 {
		return "No documents found."
	}
	return strings.Join(l.Documents, "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StorageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents with a stored history",
		Long: `List the keys of all documents that have a stored history, in byte
order.

Example:
  undolog list --db ./undolog.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDocuments(opts, cmd)
		},
	}

	addStorageFlags(cmd, opts, false)
	return cmd
}

func listDocuments(opts *StorageOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	docs, err := persist.ListDocuments(sess.ctx, sess.store, sess.cfg.KeyPrefix)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list documents", err)
	}
	return formatter(opts.RootOptions, cmd).Success(DocumentList{Documents: docs})
}
