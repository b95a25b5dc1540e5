// Package pipeline reads adlists concurrently and writes the domains they
// contain into every configured output.
package pipeline

import (
	"slices"
	"time"

	"sinkhole/pkg/adlist"
	"sinkhole/pkg/output"
)

// DefaultHTTPTimeout is the HTTP connect timeout of a pipeline built without
// SetHTTPTimeout.
const DefaultHTTPTimeout = adlist.DefaultConnectTimeout

// Builder collects the inputs of a pipeline.  The zero value is ready to use.
type Builder struct {
	adlists     []adlist.Adlist
	outputs     []*output.Output
	whitelist   []string
	httpTimeout time.Duration
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddAdlist adds a source.  Sources are read concurrently.
func (b *Builder) AddAdlist(a adlist.Adlist) *Builder {
	b.adlists = append(b.adlists, a)
	return b
}

// AddOutput adds an output.  Outputs are written in the order they are
// added.
func (b *Builder) AddOutput(o *output.Output) *Builder {
	b.outputs = append(b.outputs, o)
	return b
}

// AddWhitelist adds exact-match whitelist entries.
func (b *Builder) AddWhitelist(entries ...string) *Builder {
	b.whitelist = append(b.whitelist, entries...)
	return b
}

// SetHTTPTimeout sets the connect timeout for HTTP sources.  A non-positive d
// restores DefaultHTTPTimeout.
func (b *Builder) SetHTTPTimeout(d time.Duration) *Builder {
	b.httpTimeout = d
	return b
}

// Build returns the pipeline described by b.  Later changes to b do not
// affect the returned pipeline.
func (b *Builder) Build() *Pipeline {
	timeout := b.httpTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	return &Pipeline{
		adlists:     slices.Clone(b.adlists),
		outputs:     slices.Clone(b.outputs),
		whitelist:   NewWhitelist(b.whitelist...),
		httpTimeout: timeout,
		now:         time.Now,
	}
}

// Pipeline is a configured, runnable pipeline.  A Pipeline may be run more
// than once, but not concurrently with itself.
type Pipeline struct {
	adlists     []adlist.Adlist
	outputs     []*output.Output
	whitelist   *Whitelist
	httpTimeout time.Duration
	now         func() time.Time
}

// Adlists returns the sources of p.
func (p *Pipeline) Adlists() []adlist.Adlist { return slices.Clone(p.adlists) }

// Outputs returns the outputs of p in write order.
func (p *Pipeline) Outputs() []*output.Output { return slices.Clone(p.outputs) }

// Whitelist returns the whitelist of p.  It must not be modified.
func (p *Pipeline) Whitelist() *Whitelist { return p.whitelist }

// HTTPTimeout returns the connect timeout for HTTP sources.
func (p *Pipeline) HTTPTimeout() time.Duration { return p.httpTimeout }
