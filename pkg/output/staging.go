package output

import (
	"io"
	"io/fs"
)

// DefaultPerm is the permission of newly created artifacts.  An existing
// destination keeps its permissions.
const DefaultPerm fs.FileMode = 0o644

// pendingFile is a staging file that either replaces its destination or is
// removed.
type pendingFile interface {
	io.Writer

	// Cleanup closes the file and removes it without touching the
	// destination.
	Cleanup() error

	// CloseReplace closes the file and replaces the destination with it.
	CloseReplace() error
}
