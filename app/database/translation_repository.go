package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

var _ TranslationRepository = (*translationRepository)(nil)

type translationRepository struct {
	db *DB
}

func NewTranslationRepository(db *DB) TranslationRepository {
	return &translationRepository{db: db}
}

func (r *translationRepository) Insert(t *Translation) (string, error) {
	id := uuid.NewString()

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO translations (id, item_id, title, slug, description, tags, written_date, author, model_name, source_url, content_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, t.ItemID, t.Title, t.Slug, t.Description, string(tags),
		nullableTime(t.WrittenDate), t.Author, t.ModelName, t.SourceURL, t.ContentPath)

	if err != nil {
		return "", fmt.Errorf("failed to insert translation: %w", err)
	}

	return id, nil
}

func (r *translationRepository) GetByID(id string) (*Translation, error) {
	var t Translation
	var tags string
	err := r.db.QueryRow(`
		SELECT id, item_id, title, slug, description, tags, written_date, author, model_name, source_url, content_path, created_at
		FROM translations
		WHERE id = ?
	`, id).Scan(&t.ID, &t.ItemID, &t.Title, &t.Slug, &t.Description, &tags,
		&t.WrittenDate, &t.Author, &t.ModelName, &t.SourceURL, &t.ContentPath, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("translation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	return &t, nil
}

func (r *translationRepository) ExistsForItem(itemID string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM translations WHERE item_id = ? LIMIT 1`, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check translation existence: %w", err)
	}
	return true, nil
}
