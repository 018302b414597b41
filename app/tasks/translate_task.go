package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/curation"
	"github.com/curation-kr/pipeline/app/database"
)

// TranslateTask translates the next eligible foreign item to Korean. A
// quota-exhausted ledger is a defer, not a failure: the claim is rolled
// back to pending so the item stays eligible next tick.
type TranslateTask struct {
	Task
	itemRepo   database.ItemRepository
	translator *curation.Translator
}

func NewTranslateTask(itemRepo database.ItemRepository, translator *curation.Translator) *TranslateTask {
	return &TranslateTask{
		Task:       NewTask(TaskTypeTranslate),
		itemRepo:   itemRepo,
		translator: translator,
	}
}

func (t *TranslateTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	item, err := t.itemRepo.ClaimNextTranslation()
	if err != nil {
		return fmt.Errorf("failed to claim item for translation: %w", err)
	}
	if item == nil {
		slog.Debug("Task completed", "type", string(t.Type), "outcome", OutcomeNoItems)
		return nil
	}

	translation, err := t.translator.Translate(ctx, item.ID)
	if err != nil {
		var validationErr *curation.ValidationError
		if errors.As(err, &validationErr) {
			slog.Info("Translation deferred", "item", item.ID, "reason", err.Error())
			if resetErr := t.itemRepo.ResetTranslate(item.ID); resetErr != nil {
				return fmt.Errorf("failed to release translation claim: %w", resetErr)
			}
			slog.Info("Task completed", "type", string(t.Type), "outcome", OutcomeNoItems, "item", item.ID)
			return nil
		}

		slog.Info("Task completed", "type", string(t.Type), "outcome", OutcomeFailed, "item", item.ID, "error", err.Error())
		return nil
	}

	err = t.itemRepo.CompleteTranslate(item.ID)
	if err != nil {
		return fmt.Errorf("failed to mark translation complete: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"outcome", OutcomeSuccess,
		"duration", t.GetDuration(),
		"item", item.ID,
		"title", item.Title,
		"translation", translation.ID)

	return nil
}
