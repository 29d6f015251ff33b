package schema

// Event type constants for the builder notification channel.
const (
	EventCommit = "commit" // a command produced and committed a new snapshot
	EventUndo   = "undo"
	EventRedo   = "redo"
	EventSelect = "select" // selection changed without a history checkpoint
	EventReset  = "reset"
	EventImport = "import"
)
