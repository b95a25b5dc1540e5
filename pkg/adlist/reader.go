package adlist

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	schemeFile  = "file"
)

const (
	// DefaultConnectTimeout is used when no connect timeout is configured.
	DefaultConnectTimeout = 30 * time.Second

	// ReadTimeout bounds every single socket read of an HTTP source.
	ReadTimeout = 10 * time.Second

	// maxErrorBodySize limits how much of a failed response is kept for the
	// error message.
	maxErrorBodySize = 64 << 10
)

// Stream is an opened adlist source.  It counts the bytes consumed from the
// underlying reader; the counter may be read concurrently with Read.
type Stream struct {
	rc     io.ReadCloser
	length int64
	read   atomic.Uint64
}

func newStream(rc io.ReadCloser, length int64) *Stream {
	return &Stream{rc: rc, length: length}
}

// Read implements io.Reader for *Stream.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.rc.Read(p)
	if n > 0 {
		s.read.Add(uint64(n))
	}
	return n, err
}

// Close implements io.Closer for *Stream.
func (s *Stream) Close() error {
	return s.rc.Close()
}

// Length returns the total length of the source, if known.
func (s *Stream) Length() (n uint64, ok bool) {
	if s.length < 0 {
		return 0, false
	}
	return uint64(s.length), true
}

// BytesRead returns the number of bytes consumed so far.
func (s *Stream) BytesRead() uint64 {
	return s.read.Load()
}

// Open opens the adlist's source for reading.  connectTimeout bounds
// establishing HTTP connections; a non-positive value means
// DefaultConnectTimeout.  The caller must close the returned stream.
func Open(ctx context.Context, a Adlist, connectTimeout time.Duration) (*Stream, error) {
	u, err := url.Parse(a.source)
	if err != nil {
		return nil, fmt.Errorf("parse adlist url: %w", err)
	}

	switch u.Scheme {
	case schemeHTTP, schemeHTTPS:
		return openHTTP(ctx, u, connectTimeout)
	case schemeFile:
		return openFile(u)
	default:
		return nil, &UnsupportedSchemeError{Scheme: u.Scheme}
	}
}

func openHTTP(ctx context.Context, u *url.URL, connectTimeout time.Duration) (*Stream, error) {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	client := &http.Client{Transport: newTransport(connectTimeout)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("make request for %s: %w", u.Redacted(), err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if detail, ok := badContentLength(err); ok {
			return nil, &InvalidResponseError{Detail: detail}
		}
		return nil, fmt.Errorf("request %s: %w", u.Redacted(), err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &RequestFailedError{Code: resp.StatusCode, Body: string(body)}
	}

	length, err := contentLength(resp.Header)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	return newStream(resp.Body, length), nil
}

// badContentLength reports whether err is the transport rejecting a
// malformed Content-Length header.  net/http only exposes that failure as
// text.
func badContentLength(err error) (detail string, ok bool) {
	msg := err.Error()
	i := strings.Index(msg, "bad Content-Length")
	if i < 0 {
		return "", false
	}
	return msg[i:], true
}

// contentLength looks up Content-Length.  It returns -1 when the header is
// absent, for example with chunked transfer encoding.
func contentLength(h http.Header) (int64, error) {
	raw := h.Get("Content-Length")
	if raw == "" {
		return -1, nil
	}

	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 63)
	if err != nil {
		return 0, &InvalidResponseError{Detail: fmt.Sprintf("bad content-length %q", raw)}
	}
	return int64(n), nil
}

func newTransport(connectTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, timeout: ReadTimeout}, nil
		},
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: ReadTimeout,
		DisableKeepAlives:     true,
	}
}

// deadlineConn renews the read deadline before every read, so a stalled peer
// fails the read without limiting the total transfer time.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func openFile(u *url.URL) (*Stream, error) {
	path, err := filePath(u)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path) // #nosec G304 -- path is provided via config.
	if err != nil {
		return nil, fmt.Errorf("open adlist file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat adlist file: %w", err)
	}

	return newStream(file, info.Size()), nil
}

// filePath converts a file URL into an absolute local path.
func filePath(u *url.URL) (string, error) {
	if u.Opaque != "" || (u.Host != "" && u.Host != "localhost") {
		return "", &InvalidFilePathError{URL: u.String()}
	}

	p := u.Path
	// file:///C:/dir/list.txt on Windows.
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		return "", &InvalidFilePathError{URL: u.String()}
	}

	return p, nil
}
