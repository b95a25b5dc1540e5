package output

import (
	"bufio"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"sinkhole/pkg/version"
)

// Active is an output bound to its staging file for the duration of a run.
// It is not safe for concurrent use.
type Active struct {
	out  *Output
	file pendingFile
	w    *bufio.Writer
	seen map[string]struct{}
	done bool
}

// Activate creates the staging file for o and writes the primer stamped with
// now.  Nothing is visible at the destination until Commit.
func Activate(o *Output, now time.Time) (*Active, error) {
	file, err := newPendingFile(o.destination, DefaultPerm)
	if err != nil {
		return nil, fmt.Errorf("create staging file for %s: %w", o.destination, err)
	}

	a := &Active{out: o, file: file, w: bufio.NewWriter(file)}
	if o.deduplicate {
		a.seen = make(map[string]struct{})
	}

	err = o.kind.writePrimer(a.w, o, generatedLine(now))
	if err == nil {
		err = a.w.Flush()
	}
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("write primer to %s: %w", o.destination, err), a.Cleanup())
	}

	return a, nil
}

func generatedLine(now time.Time) string {
	return "Generated at " + now.Format(time.RFC3339) + " with " + version.Name + " v" + version.Version
}

// Output returns the descriptor a is bound to.
func (a *Active) Output() *Output {
	return a.out
}

// Write serialises domain unless the output deduplicates and has already
// written it.
func (a *Active) Write(domain string) error {
	if a.seen != nil {
		key := a.out.kind.key(domain)
		if _, ok := a.seen[key]; ok {
			return nil
		}
		a.seen[key] = struct{}{}
	}

	if err := a.out.kind.writeDomain(a.w, a.out, domain); err != nil {
		return fmt.Errorf("write domain to %s: %w", a.out.destination, err)
	}
	return nil
}

// Finalize appends the kind-specific trailer and flushes the staging file.
func (a *Active) Finalize() error {
	if err := a.out.kind.writeTrailer(a.w, a.out); err != nil {
		return fmt.Errorf("finalize %s: %w", a.out.destination, err)
	}
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", a.out.destination, err)
	}
	return nil
}

// Commit replaces the destination with the staging file.  It must follow
// Finalize.
func (a *Active) Commit() error {
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", a.out.destination, err)
	}
	if err := a.file.CloseReplace(); err != nil {
		return fmt.Errorf("commit %s: %w", a.out.destination, err)
	}
	a.done = true
	return nil
}

// Cleanup removes the staging file unless it has been committed.  It is safe
// to call more than once.
func (a *Active) Cleanup() error {
	if a.done {
		return nil
	}
	a.done = true
	return a.file.Cleanup()
}
