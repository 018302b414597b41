package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

// UpsertFeed registers a configured feed, updating URL and flags when the
// name already exists. The pipeline never deletes feeds.
func (r *feedRepository) UpsertFeed(name, url string, active, digest bool) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO feeds (id, name, url, active, is_digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			active = excluded.active,
			is_digest = excluded.is_digest,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, uuid.NewString(), name, url, active, digest).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

func (r *feedRepository) GetFeed(id string) (*Feed, error) {
	feed, err := r.scanFeed(r.db.QueryRow(`
		SELECT id, name, url, active, is_digest, last_polled_at, created_at, updated_at
		FROM feeds
		WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feed %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *feedRepository) GetActiveFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, active, is_digest, last_polled_at, created_at, updated_at
		FROM feeds
		WHERE active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// StampPolled records a successful poll. Called after the full entry loop
// completes without a transport failure.
func (r *feedRepository) StampPolled(id string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_polled_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, at.UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to stamp feed poll time: %w", err)
	}

	return nil
}

func (r *feedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *feedRepository) scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.URL, &feed.Active, &feed.Digest,
		&feed.LastPolledAt, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}
