//go:build !windows

package output

import (
	"io/fs"

	"github.com/google/renameio/v2"
)

type renameioFile struct {
	file *renameio.PendingFile
}

// type check
var _ pendingFile = renameioFile{}

func (f renameioFile) Write(b []byte) (int, error) {
	return f.file.Write(b)
}

func (f renameioFile) Cleanup() error {
	return f.file.Cleanup()
}

func (f renameioFile) CloseReplace() error {
	return f.file.CloseAtomicallyReplace()
}

// newPendingFile creates a staging file in the destination's directory, so
// the final rename never crosses filesystems.
func newPendingFile(path string, perm fs.FileMode) (pendingFile, error) {
	file, err := renameio.NewPendingFile(
		path,
		renameio.WithPermissions(perm),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return nil, err
	}
	return renameioFile{file: file}, nil
}
