package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/curation-kr/pipeline/app/curation"
	"github.com/curation-kr/pipeline/app/database"
)

// NewsletterTask fans out the most recent crawled digest item into child
// items, one per linked article.
type NewsletterTask struct {
	Task
	itemRepo  database.ItemRepository
	extractor *curation.NewsletterExtractor
}

func NewNewsletterTask(itemRepo database.ItemRepository, extractor *curation.NewsletterExtractor) *NewsletterTask {
	return &NewsletterTask{
		Task:      NewTask(TaskTypeNewsletter),
		itemRepo:  itemRepo,
		extractor: extractor,
	}
}

func (t *NewsletterTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	item, err := t.itemRepo.NextDigestItem()
	if err != nil {
		return fmt.Errorf("failed to select digest item: %w", err)
	}
	if item == nil {
		slog.Debug("Task completed", "type", string(t.Type), "outcome", OutcomeNoItems)
		return nil
	}

	result, err := t.extractor.Extract(item)
	if err != nil {
		var validationErr *curation.ValidationError
		if errors.As(err, &validationErr) {
			slog.Warn("Digest item rejected", "item", item.ID, "error", err)
			slog.Info("Task completed", "type", string(t.Type), "outcome", OutcomeFailed, "item", item.ID)
			return nil
		}
		return fmt.Errorf("failed to extract newsletter links: %w", err)
	}

	for _, extractionErr := range result.Errors {
		slog.Error("Newsletter child item creation failed", "item", item.ID, "error", extractionErr)
	}

	err = t.itemRepo.MarkExtracted(item.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark digest item extracted: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"outcome", OutcomeSuccess,
		"duration", t.GetDuration(),
		"item", item.ID,
		"title", item.Title,
		"extracted", result.Extracted,
		"created", result.Created)

	return nil
}
