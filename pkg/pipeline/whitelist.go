package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Whitelist is a set of domains that are never written.  Matching is exact:
// neither case nor subdomains are folded.  A Whitelist must not be modified
// once a run has started.
type Whitelist struct {
	entries map[string]struct{}
}

// NewWhitelist creates a whitelist holding entries.
func NewWhitelist(entries ...string) *Whitelist {
	w := &Whitelist{entries: make(map[string]struct{}, len(entries))}
	w.Add(entries...)
	return w
}

// Add adds entries to w.  Empty entries are ignored.
func (w *Whitelist) Add(entries ...string) {
	for _, e := range entries {
		if e == "" {
			continue
		}
		w.entries[e] = struct{}{}
	}
}

// Merge adds all entries of other to w.
func (w *Whitelist) Merge(other *Whitelist) {
	if other == nil {
		return
	}
	for e := range other.entries {
		w.entries[e] = struct{}{}
	}
}

// Contains reports whether domain is whitelisted.  A nil w contains nothing.
func (w *Whitelist) Contains(domain string) bool {
	if w == nil {
		return false
	}
	_, ok := w.entries[domain]
	return ok
}

// Len returns the number of entries.
func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.entries)
}

// Entries returns the entries of w in lexical order.
func (w *Whitelist) Entries() []string {
	if w == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(w.entries))
}

// ReadWhitelist reads one entry per line from r.  Lines are trimmed; blank
// lines and lines starting with "#" are skipped.
func ReadWhitelist(r io.Reader) (*Whitelist, error) {
	w := NewWhitelist()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w.Add(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan whitelist: %w", err)
	}
	return w, nil
}

// LoadWhitelistFile reads the whitelist file at path.  An empty path yields
// an empty whitelist.
func LoadWhitelistFile(path string, log *slog.Logger) (*Whitelist, error) {
	if path == "" {
		return NewWhitelist(), nil
	}
	if log == nil {
		log = slog.Default()
	}

	file, err := os.Open(path) // #nosec G304 -- path is provided via config.
	if err != nil {
		return nil, fmt.Errorf("open whitelist: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close whitelist file", "error", err)
		}
	}()

	w, err := ReadWhitelist(file)
	if err != nil {
		return nil, err
	}

	log.Info("loaded whitelist", "path", path, "entries", w.Len())
	return w, nil
}
