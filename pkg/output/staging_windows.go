//go:build windows

package output

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// tempFile renames itself onto the destination on CloseReplace.  The rename
// is not atomic on Windows, but readers still never see a partial artifact.
type tempFile struct {
	file   *os.File
	target string
}

// type check
var _ pendingFile = (*tempFile)(nil)

func (f *tempFile) Write(b []byte) (int, error) {
	return f.file.Write(b)
}

func (f *tempFile) Cleanup() error {
	closeErr := f.file.Close()
	return multierr.Append(os.Remove(f.file.Name()), closeErr)
}

func (f *tempFile) CloseReplace() error {
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("closing: %w", err)
	}
	if err := os.Rename(f.file.Name(), f.target); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}
	return nil
}

func newPendingFile(path string, perm fs.FileMode) (pendingFile, error) {
	file, err := os.CreateTemp(filepath.Dir(path), ".sinkhole-")
	if err != nil {
		return nil, fmt.Errorf("opening pending file: %w", err)
	}
	if err := os.Chmod(file.Name(), perm); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("preparing pending file: %w", err)
	}
	return &tempFile{file: file, target: path}, nil
}
