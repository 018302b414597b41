package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
)

// SyncFeedsTask reconciles the configured feed list into the database at
// startup. Feeds removed from the file are left in place but can be
// deactivated by listing them with active: false.
type SyncFeedsTask struct {
	Task
	feeds    []config.FeedSource
	feedRepo database.FeedRepository
}

func NewSyncFeedsTask(feeds []config.FeedSource, feedRepo database.FeedRepository) *SyncFeedsTask {
	return &SyncFeedsTask{
		Task:     NewTask(TaskTypeSyncFeeds),
		feeds:    feeds,
		feedRepo: feedRepo,
	}
}

func (t *SyncFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, feed := range t.feeds {
		_, err := t.feedRepo.UpsertFeed(feed.Name, feed.URL, feed.Active, feed.Digest)
		if err != nil {
			return fmt.Errorf("failed to sync feed %q: %w", feed.Name, err)
		}
	}

	slog.Info("Task completed", "type", string(t.Type), "duration", t.GetDuration(), "feeds", len(t.feeds))

	return nil
}
