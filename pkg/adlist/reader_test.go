package adlist

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinkhole/internal/testutil"
)

const testContent = "0.0.0.0 example.com\n0.0.0.0 google.com\n"

func readAll(t *testing.T, s *Stream) string {
	t.Helper()

	data, err := io.ReadAll(s)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	return string(data)
}

func TestOpenFile(t *testing.T) {
	a := MustNew(testutil.WriteAdlist(t, testContent), FormatHosts)

	s, err := Open(context.Background(), a, time.Second)
	require.NoError(t, err)

	length, ok := s.Length()
	assert.True(t, ok)
	assert.Equal(t, uint64(len(testContent)), length)

	assert.Equal(t, testContent, readAll(t, s))
	assert.Equal(t, uint64(len(testContent)), s.BytesRead())
}

func TestOpenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	a := MustNew(testutil.FileURL(missing), FormatHosts)

	_, err := Open(context.Background(), a, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOpenInvalidFilePath(t *testing.T) {
	for _, raw := range []string{"file:relative.txt", "file://remote.example/list.txt"} {
		a := MustNew(raw, FormatHosts)

		_, err := Open(context.Background(), a, time.Second)

		var pathErr *InvalidFilePathError
		assert.True(t, errors.As(err, &pathErr), raw)
	}
}

func TestOpenUnsupportedScheme(t *testing.T) {
	_, err := New("ftp://example.com/list.txt", FormatHosts)

	var schemeErr *UnsupportedSchemeError
	require.True(t, errors.As(err, &schemeErr))
	assert.Equal(t, "ftp", schemeErr.Scheme)

	// A descriptor that skipped validation is still rejected on open.
	_, err = Open(context.Background(), Adlist{source: "gopher://example.com/"}, time.Second)
	assert.True(t, errors.As(err, &schemeErr))
}

func TestOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(testContent)))
		_, _ = io.WriteString(w, testContent)
	}))
	defer srv.Close()

	s, err := Open(context.Background(), MustNew(srv.URL, FormatHosts), time.Second)
	require.NoError(t, err)

	length, ok := s.Length()
	assert.True(t, ok)
	assert.Equal(t, uint64(len(testContent)), length)

	assert.Equal(t, testContent, readAll(t, s))
	assert.Equal(t, uint64(len(testContent)), s.BytesRead())
}

func TestOpenHTTPChunked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "0.0.0.0 example.com\n")
		w.(http.Flusher).Flush()
		_, _ = io.WriteString(w, "0.0.0.0 google.com\n")
	}))
	defer srv.Close()

	s, err := Open(context.Background(), MustNew(srv.URL, FormatHosts), time.Second)
	require.NoError(t, err)

	_, ok := s.Length()
	assert.False(t, ok)
	assert.Equal(t, testContent, readAll(t, s))
}

func TestOpenHTTPRequestFailed(t *testing.T) {
	srv := testutil.StartStringServer(t, http.StatusNotFound, "no such list")

	_, err := Open(context.Background(), MustNew(srv.URL, FormatHosts), time.Second)

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.Code)
	assert.Equal(t, "no such list", reqErr.Body)
}

func TestOpenHTTPBadContentLength(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		if _, err := http.ReadRequest(bufio.NewReader(conn)); err != nil {
			return
		}
		_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: abc\r\nConnection: close\r\n\r\nbody")
	}()

	a := MustNew("http://"+ln.Addr().String()+"/list.txt", FormatHosts)
	_, err = Open(context.Background(), a, time.Second)
	require.Error(t, err)

	var respErr *InvalidResponseError
	assert.True(t, errors.As(err, &respErr), "got %T: %v", err, err)
}

func TestContentLength(t *testing.T) {
	n, err := contentLength(http.Header{})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	n, err = contentLength(http.Header{"Content-Length": {"42"}})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = contentLength(http.Header{"Content-Length": {"forty-two"}})
	var respErr *InvalidResponseError
	assert.True(t, errors.As(err, &respErr))

	_, err = contentLength(http.Header{"Content-Length": {"-1"}})
	assert.True(t, errors.As(err, &respErr))
}

func TestFromCatalog(t *testing.T) {
	a, err := FromCatalog("oisd_small_dnsmasq")
	require.NoError(t, err)
	assert.Equal(t, FormatDnsmasq, a.Format())

	_, err = FromCatalog("does_not_exist")
	assert.Error(t, err)
}

func TestAdlistEquality(t *testing.T) {
	a := MustNew("https://example.com/hosts", FormatHosts)
	b := MustNew("https://example.com/hosts", FormatHosts)
	c := MustNew("https://example.com/hosts", FormatDomains)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[Adlist]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[c])
}
