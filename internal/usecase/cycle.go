package usecase

import (
	"context"
	"errors"
)

// Cycle runs one full pipeline pass: ingest everything, review, translate,
// publish, then sweep retention. A failing stage is recorded but does not
// stop the later ones, since each reloads its own working set from the
// store.
func (p *Pipeline) Cycle(ctx context.Context) error {
	var errs []error

	if err := p.Ingest(ctx, "all"); err != nil {
		errs = append(errs, err)
	}
	if err := p.Review(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.Translate(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.Publish(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := p.Retain(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
