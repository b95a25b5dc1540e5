package pipeline

import (
	"context"

	"sinkhole/pkg/output"
	"sinkhole/pkg/progress"
)

// writer is the single consumer of the domain channel.  It owns every active
// output.
type writer struct {
	outputs []*output.Active
	obs     progress.Observer
}

// run writes every received domain into each output in order and, once
// domains is closed, finalizes and commits the outputs one by one.  It stops
// at the first error; outputs committed before that stay committed.  Nothing
// is committed if ctx is done by the time domains is closed.
func (w *writer) run(ctx context.Context, domains <-chan string) error {
	for domain := range domains {
		w.obs.Observe(progress.DomainWritten{Domain: domain})

		for _, a := range w.outputs {
			if err := a.Write(domain); err != nil {
				return err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, a := range w.outputs {
		if err := a.Finalize(); err != nil {
			return err
		}
		if err := a.Commit(); err != nil {
			return err
		}
	}

	return nil
}
