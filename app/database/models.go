package database

import (
	"time"
)

// Crawl and translate stage statuses. Both stages move pending ->
// in_progress -> completed|failed; a claim writes in_progress before any
// slow I/O starts.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Feed struct {
	ID           string
	Name         string
	URL          string
	Active       bool
	Digest       bool // items are link collections to fan out, not articles
	LastPolledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Item struct {
	ID                  string
	FeedID              string
	GUID                string
	Link                string
	Title               string
	Description         string
	Author              string
	Category            string
	PublishedAt         *time.Time
	Language            string
	LanguageConfidence  float64
	CrawlStatus         string
	CrawlError          string
	CrawledPath         string // filestore-relative path of the crawled body
	CrawledAt           *time.Time
	TranslateStatus     string
	TranslateError      string
	LicenseType         string
	TranslationAllowed  bool
	AttributionRequired bool
	AnalysisConfidence  float64
	AnalysisReasoning   string
	Summary             string
	ParentItemID        *string    // digest item this was extracted from
	ExtractedAt         *time.Time // when this digest item's links were fanned out
	CreatedAt           time.Time
}

type Translation struct {
	ID          string
	ItemID      string
	Title       string
	Slug        string
	Description string
	Tags        []string
	WrittenDate *time.Time
	Author      string
	ModelName   string
	SourceURL   string
	ContentPath string // filestore-relative path of the translated body
	CreatedAt   time.Time
}

type UsageRecord struct {
	ID           int64
	ModelName    string // "{provider}:{model}"
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CreatedAt    time.Time
}

// Stats aggregates store counts for the stats endpoint.
type Stats struct {
	Feeds              int
	Items              int
	ItemsCrawled       int
	ItemsCrawlFailed   int
	Translations       int
	TranslationsFailed int
}
