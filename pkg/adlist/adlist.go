// Package adlist describes adlist sources and knows how to open and parse them.
package adlist

import (
	"fmt"
	"net/url"
	"strings"
)

// Format is the line format an adlist is written in.
type Format int

// Supported adlist formats.  Hosts is the zero value and the default.
const (
	FormatHosts Format = iota
	FormatDomains
	FormatDnsmasq
)

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatHosts:
		return "hosts"
	case FormatDomains:
		return "domains"
	case FormatDnsmasq:
		return "dnsmasq"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name case-insensitively.  An empty name yields
// the default format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hosts":
		return FormatHosts, nil
	case "domains":
		return FormatDomains, nil
	case "dnsmasq":
		return FormatDnsmasq, nil
	default:
		return FormatHosts, fmt.Errorf("unknown adlist format %q", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for Format.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Format.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Adlist is an immutable source descriptor.  Two adlists are equal when both
// their source URLs and formats are equal, so Adlist can be used as a map key.
type Adlist struct {
	source string
	format Format
}

// New validates rawURL and returns an adlist in the given format.  Supported
// schemes are:
//   - http
//   - https
//   - file
func New(rawURL string, format Format) (Adlist, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Adlist{}, fmt.Errorf("parse adlist url: %w", err)
	}

	switch u.Scheme {
	case schemeHTTP, schemeHTTPS, schemeFile:
	default:
		return Adlist{}, &UnsupportedSchemeError{Scheme: u.Scheme}
	}

	return Adlist{source: u.String(), format: format}, nil
}

// MustNew is like New but panics on error.  It is meant for tests and static
// tables.
func MustNew(rawURL string, format Format) Adlist {
	a, err := New(rawURL, format)
	if err != nil {
		panic(err)
	}
	return a
}

// Source returns the source URL as a string.  It doubles as the adlist's name
// in progress events.
func (a Adlist) Source() string {
	return a.source
}

// Format returns the declared line format.
func (a Adlist) Format() Format {
	return a.format
}

// String implements fmt.Stringer for Adlist.
func (a Adlist) String() string {
	return a.source + " (" + a.format.String() + ")"
}
