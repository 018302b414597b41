package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/curation-kr/pipeline/app/crawler"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

// FetchContentTask crawls the body of the single newest pending item within
// the age window. Fetch failures are persisted on the item and do not fail
// the task; the item is not retried automatically.
type FetchContentTask struct {
	Task
	itemRepo   database.ItemRepository
	fetcher    *crawler.Fetcher
	store      *filestore.Store
	maxItemAge time.Duration
}

func NewFetchContentTask(itemRepo database.ItemRepository, fetcher *crawler.Fetcher, store *filestore.Store, maxItemAge time.Duration) *FetchContentTask {
	return &FetchContentTask{
		Task:       NewTask(TaskTypeFetchContent),
		itemRepo:   itemRepo,
		fetcher:    fetcher,
		store:      store,
		maxItemAge: maxItemAge,
	}
}

func (t *FetchContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().Add(-t.maxItemAge)

	item, err := t.itemRepo.ClaimNextCrawl(cutoff)
	if err != nil {
		return fmt.Errorf("failed to claim item for crawl: %w", err)
	}
	if item == nil {
		slog.Debug("Task completed", "type", string(t.Type), "outcome", OutcomeNoItems)
		return nil
	}

	body, err := t.fetcher.Fetch(ctx, item.Link)
	if err != nil {
		return t.fail(item, err)
	}

	contentPath, err := t.store.Save("articles", item.ID, body)
	if err != nil {
		return t.fail(item, err)
	}

	err = t.itemRepo.CompleteCrawl(item.ID, contentPath, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark crawl complete: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"outcome", OutcomeSuccess,
		"duration", t.GetDuration(),
		"item", item.ID,
		"title", item.Title,
		"content_length", len(body))

	return nil
}

// fail records the failure on the item; the stage outcome is "failed" but
// the scheduled invocation itself succeeds so the scheduler does not retry
// the same broken item.
func (t *FetchContentTask) fail(item *database.Item, cause error) error {
	slog.Error("Content fetch failed", "item", item.ID, "title", item.Title, "error", cause)

	err := t.itemRepo.FailCrawl(item.ID, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to record crawl failure: %w", err)
	}

	slog.Info("Task completed", "type", string(t.Type), "outcome", OutcomeFailed, "item", item.ID)

	return nil
}
