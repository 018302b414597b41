package database

import (
	"fmt"
	"strings"
	"time"
)

var _ UsageRepository = (*usageRepository)(nil)

type usageRepository struct {
	db *DB
}

func NewUsageRepository(db *DB) UsageRepository {
	return &usageRepository{db: db}
}

// Append logs one AI invocation. Usage rows are append-only; the quota
// ledger only ever reads them in aggregate.
func (r *usageRepository) Append(rec UsageRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO llm_usage (model_name, input_tokens, output_tokens, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ModelName, rec.InputTokens, rec.OutputTokens, rec.TotalTokens, usageTime(rec.CreatedAt))

	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}

	return nil
}

func (r *usageRepository) UsageSince(modelNames []string, since time.Time) (int, int64, error) {
	if len(modelNames) == 0 {
		return 0, 0, nil
	}

	placeholders := strings.Repeat("?,", len(modelNames))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(modelNames)+1)
	for _, name := range modelNames {
		args = append(args, name)
	}
	args = append(args, since.UTC())

	var requests int
	var tokens int64
	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total_tokens), 0)
		FROM llm_usage
		WHERE model_name IN (`+placeholders+`)
		  AND created_at >= ?
	`, args...).Scan(&requests, &tokens)

	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	return requests, tokens, nil
}

func usageTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
