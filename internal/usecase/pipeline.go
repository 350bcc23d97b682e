package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/filter"
	"NewsRelay/internal/ports"
)

// PipelineDeps wires all driven adapters into the stage controller.
type PipelineDeps struct {
	Source     ports.ContentSource
	Repository ports.ItemRepository
	Reviewer   ports.Reviewer
	Translator ports.Translator
	Publisher  ports.Publisher
	Filter     *filter.Keywords
	Logger     *slog.Logger

	PublishDelay        time.Duration
	ReviewBatchLimit    int
	ReviewContextLimit  int
	ReviewContextWindow time.Duration
	RetentionCap        int
}

// Pipeline orchestrates the item lifecycle as four independent, re-entrant
// batch stages over the item store. It holds no item state of its own: every
// stage reloads its working set from the store, so any stage can be re-run
// after a crash and picks up exactly where the last persisted status left
// things.
type Pipeline struct {
	source     ports.ContentSource
	repository ports.ItemRepository
	reviewer   ports.Reviewer
	translator ports.Translator
	publisher  ports.Publisher
	filter     *filter.Keywords
	logger     *slog.Logger

	publishDelay        time.Duration
	reviewBatchLimit    int
	reviewContextLimit  int
	reviewContextWindow time.Duration
	retentionCap        int
}

// NewPipeline constructs the stage controller.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:              deps.Source,
		repository:          deps.Repository,
		reviewer:            deps.Reviewer,
		translator:          deps.Translator,
		publisher:           deps.Publisher,
		filter:              deps.Filter,
		logger:              logger,
		publishDelay:        deps.PublishDelay,
		reviewBatchLimit:    deps.ReviewBatchLimit,
		reviewContextLimit:  deps.ReviewContextLimit,
		reviewContextWindow: deps.ReviewContextWindow,
		retentionCap:        deps.RetentionCap,
	}
}

// Ingest pulls candidates from the named source ("" or "all" for every
// configured source) and stores the unseen ones. One failing source is
// logged and skipped; re-ingesting known items is a silent no-op thanks to
// fingerprint identity.
func (p *Pipeline) Ingest(ctx context.Context, sourceName string) error {
	names := p.source.SourceNames()
	if sourceName != "" && sourceName != "all" {
		names = []string{sourceName}
	}

	for _, name := range names {
		candidates, err := p.source.ListCandidates(ctx, name)
		if err != nil {
			p.logger.Error("ingest source failed", "source", name, "error", err)
			continue
		}

		for _, cand := range candidates {
			status := domain.StatusPendingReview
			if !cand.ReviewRequired {
				status = domain.StatusPendingTranslation
			}
			_, err := p.repository.Insert(ctx, domain.Item{
				Kind:      cand.Kind,
				Title:     cand.Title,
				Link:      cand.Link,
				Source:    cand.Source,
				Secondary: cand.Artist,
				Status:    status,
			})
			if err != nil {
				return fmt.Errorf("insert candidate %q from %s: %w", cand.Title, name, err)
			}
		}

		p.logger.Info("source ingested", "source", name, "candidates", len(candidates))
	}

	return nil
}

// Review sends the whole pending-review batch (id and title only) to the
// review collaborator, primed with recently published items as positive
// examples. The verdict is total: accepted ids advance to the translation
// queue, every other batch member is rejected. A collaborator failure aborts
// the batch before any status is touched.
func (p *Pipeline) Review(ctx context.Context) error {
	items, err := p.repository.ListByStatus(ctx, domain.StatusPendingReview, p.reviewBatchLimit)
	if err != nil {
		return fmt.Errorf("load review batch: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	published, err := p.repository.ListByStatusWithin(ctx, domain.StatusPublished, p.reviewContextWindow, p.reviewContextLimit)
	if err != nil {
		return fmt.Errorf("load published context: %w", err)
	}

	accepted, err := p.reviewer.Review(ctx, reviewProjection(items), reviewProjection(published))
	if err != nil {
		return fmt.Errorf("review batch of %d: %w", len(items), err)
	}

	acceptedSet := make(map[string]struct{}, len(accepted))
	for _, id := range accepted {
		acceptedSet[id] = struct{}{}
	}

	return runBatch(items, func(item domain.Item) error {
		next := domain.StatusRejected
		if _, ok := acceptedSet[item.ID]; ok {
			next = domain.StatusPendingTranslation
		}
		if err := p.repository.SetStatus(ctx, item.ID, next); err != nil {
			return fmt.Errorf("apply verdict for %s: %w", item.ID, err)
		}
		p.logger.Info("review verdict", "id", item.ID, "title", item.Title, "status", next)
		return nil
	})
}

// Translate processes every item awaiting translation. Per item: block-list
// check on the raw fields, detail fetch (persisted immediately so a crash
// never repeats it), translation, block-list check on the translated fields.
// Collaborator failures are isolated per item and leave the item queued for
// the next run; store failures abort the stage.
func (p *Pipeline) Translate(ctx context.Context) error {
	items, err := p.repository.ListByStatus(ctx, domain.StatusPendingTranslation, 0)
	if err != nil {
		return fmt.Errorf("load translation batch: %w", err)
	}

	return runBatch(items, func(item domain.Item) error {
		if p.filter.Blocked(item.Title, item.Secondary) {
			if err := p.repository.SetStatus(ctx, item.ID, domain.StatusRejected); err != nil {
				return fmt.Errorf("reject %s: %w", item.ID, err)
			}
			p.logger.Info("blocked by keyword before translation", "id", item.ID, "title", item.Title)
			return nil
		}

		if item.DetailMissing() {
			detail, err := p.source.FetchDetail(ctx, item)
			if err != nil {
				p.logger.Error("detail fetch failed", "id", item.ID, "title", item.Title, "error", err)
				return nil
			}
			secondary := item.Secondary
			if detail.Secondary != "" {
				secondary = detail.Secondary
			}
			if err := p.repository.SetDetail(ctx, item.ID, secondary, detail.MediaURL, detail.ImageURL); err != nil {
				return fmt.Errorf("persist detail for %s: %w", item.ID, err)
			}
			item.Secondary = secondary
			item.MediaURL = detail.MediaURL
			item.ImageURL = detail.ImageURL

			if p.filter.Blocked(item.Secondary) {
				if err := p.repository.SetStatus(ctx, item.ID, domain.StatusRejected); err != nil {
					return fmt.Errorf("reject %s: %w", item.ID, err)
				}
				p.logger.Info("blocked by keyword in fetched detail", "id", item.ID, "title", item.Title)
				return nil
			}
		}

		translation, err := p.translator.Translate(ctx, item)
		if err != nil {
			p.logger.Error("translation failed", "id", item.ID, "title", item.Title, "error", err)
			return nil
		}
		if err := p.repository.SetTranslation(ctx, item.ID, translation.Title, translation.Secondary); err != nil {
			return fmt.Errorf("persist translation for %s: %w", item.ID, err)
		}

		next := domain.StatusTranslated
		if p.filter.Blocked(translation.Title, translation.Secondary) {
			next = domain.StatusRejected
		}
		if err := p.repository.SetStatus(ctx, item.ID, next); err != nil {
			return fmt.Errorf("advance %s: %w", item.ID, err)
		}
		p.logger.Info("translated", "id", item.ID, "title", item.Title, "status", next)
		return nil
	})
}

// Publish delivers every translated item. A failed delivery is logged and
// left for the next run; a fixed pause follows every attempt, successful or
// not, to respect the channel's rate limits.
func (p *Pipeline) Publish(ctx context.Context) error {
	items, err := p.repository.ListByStatus(ctx, domain.StatusTranslated, 0)
	if err != nil {
		return fmt.Errorf("load publish batch: %w", err)
	}

	return runBatch(items, func(item domain.Item) error {
		delivery, err := p.publisher.Publish(ctx, item)
		if err != nil {
			p.logger.Error("publish failed", "id", item.ID, "title", item.Title, "error", err)
			p.pause(ctx)
			return nil
		}

		if err := p.repository.SetStatus(ctx, item.ID, domain.StatusPublished); err != nil {
			return fmt.Errorf("mark %s published: %w", item.ID, err)
		}
		p.logger.Info("published", "id", item.ID, "title", item.Title, "strategy", delivery.Strategy)
		p.pause(ctx)
		return nil
	})
}

// Retain sweeps records beyond the configured cap, oldest first, regardless
// of their status.
func (p *Pipeline) Retain(ctx context.Context) (int64, error) {
	deleted, err := p.repository.CleanupOldRecords(ctx, p.retentionCap)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("retention sweep", "deleted", deleted, "cap", p.retentionCap)
	}
	return deleted, nil
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.publishDelay <= 0 {
		return
	}
	timer := time.NewTimer(p.publishDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func reviewProjection(items []domain.Item) []domain.ReviewCandidate {
	out := make([]domain.ReviewCandidate, 0, len(items))
	for _, item := range items {
		out = append(out, domain.ReviewCandidate{ID: item.ID, Title: item.Title})
	}
	return out
}

// runBatch applies fn to each item in order. Deliberately sequential: the
// collaborators are rate-limited, and this is the single swap point if a
// bounded worker pool ever replaces it.
func runBatch(items []domain.Item, fn func(domain.Item) error) error {
	for _, item := range items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
