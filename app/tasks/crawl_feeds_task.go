package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/crawler"
)

// CrawlFeedsTask polls every active feed once. A single feed's failure is
// reported in the outcome and never aborts the batch.
type CrawlFeedsTask struct {
	Task
	crawler *crawler.Crawler
}

func NewCrawlFeedsTask(c *crawler.Crawler) *CrawlFeedsTask {
	return &CrawlFeedsTask{
		Task:    NewTask(TaskTypeCrawlFeeds),
		crawler: c,
	}
}

func (t *CrawlFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.crawler.CrawlAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to crawl feeds: %w", err)
	}

	outcome := OutcomeSuccess
	if result.Feeds == 0 {
		outcome = OutcomeNoItems
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"outcome", outcome,
		"duration", t.GetDuration(),
		"feeds", result.Feeds,
		"new", result.New,
		"errors", len(result.Errors))

	return nil
}
