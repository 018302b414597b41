package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ItemRepository = (*itemRepository)(nil)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `
	id, feed_id, guid, link, title, description, author, category,
	published_at, language, language_confidence,
	crawl_status, crawl_error, crawled_path, crawled_at,
	translate_status, translate_error,
	license_type, translation_allowed, attribution_required,
	analysis_confidence, analysis_reasoning, summary,
	parent_item_id, extracted_at, created_at`

func (r *itemRepository) CreateItem(item NewItem) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
		INSERT INTO items (id, feed_id, guid, link, title, description, author, category, published_at, parent_item_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, item.FeedID, item.GUID, item.Link, item.Title, item.Description,
		item.Author, item.Category, nullableTime(item.PublishedAt), item.ParentItemID)

	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}

	return id, nil
}

func (r *itemRepository) GetItem(id string) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`SELECT`+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) ExistsByGUID(guid string) (bool, error) {
	return r.exists(`SELECT 1 FROM items WHERE guid = ? LIMIT 1`, guid)
}

func (r *itemRepository) ExistsByLink(link string) (bool, error) {
	return r.exists(`SELECT 1 FROM items WHERE link = ? LIMIT 1`, link)
}

func (r *itemRepository) exists(query string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRow(query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return true, nil
}

// ClaimNextCrawl selects the newest pending item inside the age window and
// flips it to in_progress in the same statement, so two overlapping
// invocations cannot pick the same row.
func (r *itemRepository) ClaimNextCrawl(cutoff time.Time) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`
		UPDATE items
		SET crawl_status = ?
		WHERE id = (
			SELECT id FROM items
			WHERE crawl_status = ?
			  AND COALESCE(published_at, created_at) >= ?
			ORDER BY COALESCE(published_at, created_at) DESC
			LIMIT 1
		)
		RETURNING`+itemColumns, StatusInProgress, StatusPending, cutoff.UTC()))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim next crawl item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) CompleteCrawl(id, contentPath string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET crawl_status = ?, crawled_path = ?, crawled_at = ?, crawl_error = ''
		WHERE id = ?
	`, StatusCompleted, contentPath, at.UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to complete crawl: %w", err)
	}

	return nil
}

func (r *itemRepository) FailCrawl(id, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET crawl_status = ?, crawl_error = ?
		WHERE id = ?
	`, StatusFailed, errorMessage, id)

	if err != nil {
		return fmt.Errorf("failed to mark crawl failed: %w", err)
	}

	return nil
}

func (r *itemRepository) NextDigestItem() (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`
		SELECT`+itemColumns+`
		FROM items
		WHERE crawl_status = ?
		  AND parent_item_id IS NULL
		  AND extracted_at IS NULL
		  AND feed_id IN (SELECT id FROM feeds WHERE is_digest = 1)
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT 1
	`, StatusCompleted))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next digest item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) MarkExtracted(id string, at time.Time) error {
	_, err := r.db.Exec(`UPDATE items SET extracted_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark item extracted: %w", err)
	}
	return nil
}

func (r *itemRepository) NextLanguagePending() (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`
		SELECT`+itemColumns+`
		FROM items
		WHERE crawl_status = ?
		  AND language = ''
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT 1
	`, StatusCompleted))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next language-pending item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) SetLanguage(id, language string, confidence float64) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET language = ?, language_confidence = ?
		WHERE id = ?
	`, language, confidence, id)

	if err != nil {
		return fmt.Errorf("failed to set item language: %w", err)
	}

	return nil
}

func (r *itemRepository) SetSummary(id, summary string) error {
	_, err := r.db.Exec(`UPDATE items SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return fmt.Errorf("failed to set item summary: %w", err)
	}
	return nil
}

func (r *itemRepository) SetCopyright(id, licenseType string, allowed, attributionRequired bool, confidence float64, reasoning string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET license_type = ?, translation_allowed = ?, attribution_required = ?,
		    analysis_confidence = ?, analysis_reasoning = ?
		WHERE id = ?
	`, licenseType, allowed, attributionRequired, confidence, reasoning, id)

	if err != nil {
		return fmt.Errorf("failed to set item copyright analysis: %w", err)
	}

	return nil
}

func (r *itemRepository) ClaimNextTranslation() (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`
		UPDATE items
		SET translate_status = ?
		WHERE id = (
			SELECT id FROM items
			WHERE crawl_status = ?
			  AND translate_status = ?
			  AND translation_allowed = 1
			  AND language != ''
			  AND language != 'ko'
			  AND NOT EXISTS (SELECT 1 FROM translations t WHERE t.item_id = items.id)
			ORDER BY COALESCE(published_at, created_at) DESC
			LIMIT 1
		)
		RETURNING`+itemColumns, StatusInProgress, StatusCompleted, StatusPending))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim next translation item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) CompleteTranslate(id string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET translate_status = ?, translate_error = ''
		WHERE id = ?
	`, StatusCompleted, id)

	if err != nil {
		return fmt.Errorf("failed to complete translate: %w", err)
	}

	return nil
}

func (r *itemRepository) ResetTranslate(id string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET translate_status = ?, translate_error = ''
		WHERE id = ?
	`, StatusPending, id)

	if err != nil {
		return fmt.Errorf("failed to reset translate status: %w", err)
	}

	return nil
}

func (r *itemRepository) FailTranslate(id, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET translate_status = ?, translate_error = ?
		WHERE id = ?
	`, StatusFailed, errorMessage, id)

	if err != nil {
		return fmt.Errorf("failed to mark translate failed: %w", err)
	}

	return nil
}

func (r *itemRepository) GetStats() (*Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM feeds),
			COUNT(*),
			COALESCE(SUM(CASE WHEN crawl_status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN crawl_status = 'failed' THEN 1 ELSE 0 END), 0),
			(SELECT COUNT(*) FROM translations),
			COALESCE(SUM(CASE WHEN translate_status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM items
	`).Scan(&stats.Feeds, &stats.Items, &stats.ItemsCrawled,
		&stats.ItemsCrawlFailed, &stats.Translations, &stats.TranslationsFailed)

	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.FeedID, &item.GUID, &item.Link, &item.Title,
		&item.Description, &item.Author, &item.Category,
		&item.PublishedAt, &item.Language, &item.LanguageConfidence,
		&item.CrawlStatus, &item.CrawlError, &item.CrawledPath, &item.CrawledAt,
		&item.TranslateStatus, &item.TranslateError,
		&item.LicenseType, &item.TranslationAllowed, &item.AttributionRequired,
		&item.AnalysisConfidence, &item.AnalysisReasoning, &item.Summary,
		&item.ParentItemID, &item.ExtractedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
