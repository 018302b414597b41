package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/curation-kr/pipeline/app/cfg"
	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/crawler"
	"github.com/curation-kr/pipeline/app/curation"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the pipeline: every tick it enqueues one task per
// stage, and a small worker pool executes them. Cross-stage ordering is
// enforced by the item status state machine, not by the scheduler.
type Scheduler struct {
	feeds       []config.FeedSource
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	crawler     *crawler.Crawler
	fetcher     *crawler.Fetcher
	store       *filestore.Store
	extractor   *curation.NewsletterExtractor
	summarizer  *curation.Summarizer
	analyzer    *curation.CopyrightAnalyzer
	translator  *curation.Translator
	maxItemAge  time.Duration
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(feeds []config.FeedSource, feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	c *crawler.Crawler, fetcher *crawler.Fetcher, store *filestore.Store,
	extractor *curation.NewsletterExtractor, summarizer *curation.Summarizer,
	analyzer *curation.CopyrightAnalyzer, translator *curation.Translator) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		feeds:       feeds,
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		crawler:     c,
		fetcher:     fetcher,
		store:       store,
		extractor:   extractor,
		summarizer:  summarizer,
		analyzer:    analyzer,
		translator:  translator,
		maxItemAge:  time.Duration(cfg.ItemMaxAgeDays) * 24 * time.Hour,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()
		s.enqueueStageTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueStageTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if len(s.feeds) == 0 {
		slog.Debug("No feed sources configured")
		return
	}

	syncTask := NewSyncFeedsTask(s.feeds, s.feedRepo)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncFeedsTask", "error", err)
	}
}

// enqueueStageTasks pushes one task per pipeline stage. Each stage picks
// at most one item, so a tick advances the pipeline one step per stage.
func (s *Scheduler) enqueueStageTasks() {
	stageTasks := []TaskInterface{
		NewCrawlFeedsTask(s.crawler),
		NewFetchContentTask(s.itemRepo, s.fetcher, s.store, s.maxItemAge),
		NewNewsletterTask(s.itemRepo, s.extractor),
		NewAnalyzeTask(s.itemRepo, s.store, s.summarizer, s.analyzer),
		NewTranslateTask(s.itemRepo, s.translator),
	}

	for _, task := range stageTasks {
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue stage task", "type", string(task.GetType()), "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
