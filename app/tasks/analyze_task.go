package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/curation"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

// AnalyzeTask detects the language of one crawled item and then branches:
// Korean content gets a summary, foreign content gets a copyright
// eligibility analysis. Unsupported or low-confidence detections record
// the language and stop there.
type AnalyzeTask struct {
	Task
	itemRepo   database.ItemRepository
	store      *filestore.Store
	summarizer *curation.Summarizer
	analyzer   *curation.CopyrightAnalyzer
}

func NewAnalyzeTask(itemRepo database.ItemRepository, store *filestore.Store, summarizer *curation.Summarizer, analyzer *curation.CopyrightAnalyzer) *AnalyzeTask {
	return &AnalyzeTask{
		Task:       NewTask(TaskTypeAnalyze),
		itemRepo:   itemRepo,
		store:      store,
		summarizer: summarizer,
		analyzer:   analyzer,
	}
}

func (t *AnalyzeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	item, err := t.itemRepo.NextLanguagePending()
	if err != nil {
		return fmt.Errorf("failed to select item for analysis: %w", err)
	}
	if item == nil {
		slog.Debug("Task completed", "type", string(t.Type), "outcome", OutcomeNoItems)
		return nil
	}

	body, err := t.store.Read(item.CrawledPath)
	if err != nil {
		slog.Error("Failed to read crawled body", "item", item.ID, "error", err)
		slog.Info("Task completed", "type", string(t.Type), "outcome", OutcomeFailed, "item", item.ID)
		return nil
	}

	language, confidence := curation.DetectLanguage(body)

	err = t.itemRepo.SetLanguage(item.ID, language, confidence)
	if err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}

	outcome := OutcomeSuccess

	switch {
	case curation.IsKorean(language, confidence):
		summary, err := t.summarizer.Summarize(ctx, body)
		if err != nil {
			return fmt.Errorf("failed to summarize: %w", err)
		}
		if summary != "" {
			err = t.itemRepo.SetSummary(item.ID, summary)
			if err != nil {
				return fmt.Errorf("failed to set summary: %w", err)
			}
		}

	case curation.IsForeign(language, confidence):
		result := t.analyzer.Analyze(ctx, body, item.Link)

		err = t.itemRepo.SetCopyright(item.ID, result.LicenseType, result.IsTranslationAllowed, result.AttributionRequired, result.ConfidenceScore, result.Reasoning)
		if err != nil {
			return fmt.Errorf("failed to set copyright analysis: %w", err)
		}

		if !result.IsTranslationAllowed {
			outcome = OutcomePermissionDenied
		}

	default:
		slog.Warn("Unsupported or low-confidence language", "item", item.ID, "language", language, "confidence", confidence)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"outcome", outcome,
		"duration", t.GetDuration(),
		"item", item.ID,
		"title", item.Title,
		"language", language,
		"confidence", confidence)

	return nil
}
