package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"sinkhole/pkg/output"
	"sinkhole/pkg/progress"
)

// ChannelCapacity is the number of domains that may be queued between the
// adlist workers and the writer.
const ChannelCapacity = 1024

// Run reads every adlist and writes the domains into every output.  obs may
// be nil; it is wrapped with progress.Synchronized.
//
// Failures of single adlists are reported through obs as
// progress.ReadingAdlistFailed and do not fail the run.  Failures to
// activate, write, or commit an output do; the destinations of outputs that
// were not committed are left untouched.  ctx bounds HTTP requests and
// blocking sends; a run whose ctx is done commits nothing.
func (p *Pipeline) Run(ctx context.Context, obs progress.Observer) (err error) {
	obs = progress.Synchronized(obs)

	actives := make([]*output.Active, 0, len(p.outputs))
	defer func() {
		for _, a := range actives {
			err = multierr.Append(err, a.Cleanup())
		}
	}()

	now := p.now()
	for _, o := range p.outputs {
		a, aerr := output.Activate(o, now)
		if aerr != nil {
			return fmt.Errorf("activate output: %w", aerr)
		}
		actives = append(actives, a)
	}

	domains := make(chan string, ChannelCapacity)

	// A failing writer cancels gctx, which releases workers blocked on send.
	g, gctx := errgroup.WithContext(ctx)
	w := &writer{outputs: actives, obs: obs}
	g.Go(func() error {
		return w.run(ctx, domains)
	})

	var wg conc.WaitGroup
	for _, a := range p.adlists {
		wk := &worker{
			adlist:    a,
			whitelist: p.whitelist,
			timeout:   p.httpTimeout,
			obs:       obs,
			domains:   domains,
		}
		wg.Go(func() {
			wk.run(gctx)
		})
	}

	recovered := wg.WaitAndRecover()
	close(domains)
	err = g.Wait()

	if recovered != nil {
		err = multierr.Append(err, fmt.Errorf("adlist worker: %w", recovered.AsError()))
	}

	return err
}
