package history

import "github.com/roach88/undolog/internal/ir"

type commandKind int

const (
	kindHandle commandKind = iota
	kindUndo
	kindRedo
	kindReset
	kindHydrate
	kindTracking
	kindTrackAfter
)

// command is the decoded form of a dispatched action. Reserved payloads are
// decoded here, once, so transitions work with typed values.
type command interface {
	isCommand()
}

type (
	handleCmd     struct{ action ir.Action }
	undoCmd       struct{}
	redoCmd       struct{}
	resetCmd      struct{}
	trackAfterCmd struct{ action ir.Action }
	hydrateCmd    struct{ history ir.ExportedHistory }
	trackingCmd   struct{ enabled bool }
)

func (handleCmd) isCommand()     {}
func (undoCmd) isCommand()       {}
func (redoCmd) isCommand()       {}
func (resetCmd) isCommand()      {}
func (trackAfterCmd) isCommand() {}
func (hydrateCmd) isCommand()    {}
func (trackingCmd) isCommand()   {}

// classify maps an action onto the closed command set.
func (r Resolved) classify(action ir.Action) command {
	kind, ok := r.reserved[action.Type]
	if !ok {
		return handleCmd{action: action}
	}

	switch kind {
	case kindUndo:
		return undoCmd{}
	case kindRedo:
		return redoCmd{}
	case kindReset:
		return resetCmd{}
	case kindHydrate:
		return hydrateCmd{history: ir.DecodeExportedHistory(action.Payload)}
	case kindTracking:
		return trackingCmd{enabled: decodeTracking(action.Payload)}
	case kindTrackAfter:
		return trackAfterCmd{action: action}
	default:
		return handleCmd{action: action}
	}
}

// decodeTracking reads a tracking toggle payload. Anything other than a
// boolean turns tracking on, matching the hydrate default.
func decodeTracking(payload ir.Value) bool {
	if b, ok := payload.(ir.Bool); ok {
		return bool(b)
	}
	return true
}

func commandName(cmd command) string {
	switch cmd.(type) {
	case handleCmd:
		return "handle"
	case undoCmd:
		return "undo"
	case redoCmd:
		return "redo"
	case resetCmd:
		return "reset"
	case hydrateCmd:
		return "hydrate"
	case trackingCmd:
		return "tracking"
	case trackAfterCmd:
		return "track_after"
	default:
		return "unknown"
	}
}
