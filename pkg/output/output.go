// Package output describes the artifacts a pipeline run produces and writes
// them through staging files that atomically replace their destinations.
package output

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// Validation errors.
var (
	ErrEmptyDestination = errors.New("output destination is empty")
	ErrEmptyMetricName  = errors.New("metric name is empty while metric output is enabled")
	ErrInvalidIPAddress = errors.New("invalid ip address")
	ErrNoKind           = errors.New("output kind is not set")
)

// DefaultBlackhole is the blackhole address used when none is configured.
var DefaultBlackhole = netip.IPv4Unspecified()

// Config is the configuration of an output.
type Config struct {
	// Kind selects the artifact type and carries its type-specific settings.
	Kind Kind

	// Destination is the path of the artifact.  It is used verbatim, so it may
	// contain any bytes the platform allows in a path.
	Destination string

	// Blackhole is the address the resolver answers blocked queries with.
	// The zero value means DefaultBlackhole.
	Blackhole netip.Addr

	// Deduplicate, if true, writes every domain at most once.
	Deduplicate bool
}

// Output is a validated output descriptor.
type Output struct {
	kind        Kind
	destination string
	blackhole   netip.Addr
	deduplicate bool
}

// New validates c and returns the output it describes.
func New(c *Config) (*Output, error) {
	if c.Kind == nil {
		return nil, ErrNoKind
	}
	if c.Destination == "" {
		return nil, ErrEmptyDestination
	}
	if err := c.Kind.validate(); err != nil {
		return nil, err
	}

	blackhole := c.Blackhole
	if !blackhole.IsValid() {
		blackhole = DefaultBlackhole
	}

	return &Output{
		kind:        c.Kind,
		destination: c.Destination,
		blackhole:   blackhole,
		deduplicate: c.Deduplicate,
	}, nil
}

// Kind returns the output kind.
func (o *Output) Kind() Kind { return o.kind }

// Destination returns the destination path.
func (o *Output) Destination() string { return o.destination }

// Blackhole returns the blackhole address.
func (o *Output) Blackhole() netip.Addr { return o.blackhole }

// Deduplicate reports whether duplicate domains are suppressed.
func (o *Output) Deduplicate() bool { return o.deduplicate }

// ParseBlackhole parses an IPv4 or IPv6 blackhole address.
func ParseBlackhole(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w %q", ErrInvalidIPAddress, s)
	}
	return addr, nil
}
