package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist. A
// dangling reference from a scheduled task is a consistency bug, so lookups
// by id fail loudly instead of returning nil.
var ErrNotFound = errors.New("record not found")

type FeedRepository interface {
	UpsertFeed(name, url string, active, digest bool) (string, error)
	GetFeed(id string) (*Feed, error)
	GetActiveFeeds() ([]Feed, error)
	StampPolled(id string, at time.Time) error
	GetFeedCount() (int, error)
}

// NewItem carries the fields the crawler and the newsletter extractor set
// when creating an item. Everything else starts at its zero/default.
type NewItem struct {
	FeedID       string
	GUID         string
	Link         string
	Title        string
	Description  string
	Author       string
	Category     string
	PublishedAt  *time.Time
	ParentItemID *string
}

type ItemRepository interface {
	CreateItem(item NewItem) (string, error)
	GetItem(id string) (*Item, error)
	ExistsByGUID(guid string) (bool, error)
	ExistsByLink(link string) (bool, error)

	// ClaimNextCrawl atomically flips the newest pending item no older than
	// cutoff to in_progress and returns it. Returns nil when nothing is
	// eligible.
	ClaimNextCrawl(cutoff time.Time) (*Item, error)
	CompleteCrawl(id, contentPath string, at time.Time) error
	FailCrawl(id, errorMessage string) error

	// NextDigestItem returns the most recently published crawl-completed
	// item of a digest feed that has no parent and has not been fanned out
	// yet.
	NextDigestItem() (*Item, error)
	// MarkExtracted stamps a digest item as fanned out, even when the fan-
	// out produced no children; otherwise a link-free digest would be
	// re-selected forever.
	MarkExtracted(id string, at time.Time) error

	// NextLanguagePending returns the most recently published
	// crawl-completed item whose language has not been detected yet.
	NextLanguagePending() (*Item, error)
	SetLanguage(id, language string, confidence float64) error
	SetSummary(id, summary string) error
	SetCopyright(id, licenseType string, allowed, attributionRequired bool, confidence float64, reasoning string) error

	// ClaimNextTranslation atomically claims the next translation-eligible
	// item: crawl completed, translate pending, translation allowed,
	// language set and not Korean, and no translation persisted yet.
	ClaimNextTranslation() (*Item, error)
	CompleteTranslate(id string) error
	// ResetTranslate releases a claim back to pending, used when the
	// provider pool is exhausted and the item should stay eligible.
	ResetTranslate(id string) error
	FailTranslate(id, errorMessage string) error

	GetStats() (*Stats, error)
}

type TranslationRepository interface {
	Insert(t *Translation) (string, error)
	GetByID(id string) (*Translation, error)
	ExistsForItem(itemID string) (bool, error)
}

type UsageRepository interface {
	Append(rec UsageRecord) error
	// UsageSince sums request count and total tokens for the given model
	// names at or after the window start.
	UsageSince(modelNames []string, since time.Time) (requests int, tokens int64, err error)
}
