// Package testutil provides helpers for deterministic pipeline tests.
package testutil

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content into dir/name and returns the full path.
func WriteTempFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

// FileURL returns the file URL of an absolute path.
func FileURL(path string) string {
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// WriteAdlist writes content into a temporary file and returns its file URL.
func WriteAdlist(t testing.TB, content string) string {
	t.Helper()

	return FileURL(WriteTempFile(t, t.TempDir(), "adlist.txt", content))
}

// StartStringServer starts an HTTP server answering every request with body
// and status.  The server is stopped on test cleanup.
func StartStringServer(t testing.TB, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
