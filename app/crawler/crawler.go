package crawler

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/curation-kr/pipeline/app/database"
)

const (
	maxTitleLen    = 500
	maxAuthorLen   = 200
	maxGUIDLen     = 500
	maxCategoryLen = 200

	fetchTimeout = 30 * time.Second
)

// Crawler polls RSS/Atom feeds and stores new entries. Entries already
// present (matched by GUID first, then by link) are skipped.
type Crawler struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
	userAgent  string
}

type FeedResult struct {
	Total      int
	Duplicates int
	New        int
	Failed     int
}

type BatchResult struct {
	Feeds  int
	New    int
	Errors []string
}

func NewCrawler(httpClient *http.Client, feedRepo database.FeedRepository, itemRepo database.ItemRepository, userAgent string) *Crawler {
	return &Crawler{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
		userAgent:  userAgent,
	}
}

// CrawlAll polls every active feed. A failing feed is recorded in the
// result and does not stop the batch.
func (c *Crawler) CrawlAll(ctx context.Context) (BatchResult, error) {
	feeds, err := c.feedRepo.GetActiveFeeds()
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to load active feeds: %w", err)
	}

	result := BatchResult{Feeds: len(feeds)}
	for _, feed := range feeds {
		feedResult, err := c.CrawlFeed(ctx, feed)
		if err != nil {
			slog.Error("Feed crawl failed", "feed", feed.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", feed.Name, err))
			continue
		}
		result.New += feedResult.New
	}

	return result, nil
}

func (c *Crawler) CrawlFeed(ctx context.Context, feed database.Feed) (FeedResult, error) {
	data, err := c.fetchFeed(ctx, feed.URL)
	if err != nil {
		return FeedResult{}, err
	}

	parsed, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return FeedResult{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	// A single bad entry must not block the rest of the feed; the poll
	// stamp only requires that the transport and parse succeeded.
	result := FeedResult{Total: len(parsed.Items)}
	for _, entry := range parsed.Items {
		created, err := c.storeEntry(feed.ID, entry)
		if err != nil {
			slog.Error("Failed to store feed entry", "feed", feed.Name, "guid", entry.GUID, "link", entry.Link, "error", err)
			result.Failed++
			continue
		}
		if created {
			result.New++
		} else {
			result.Duplicates++
		}
	}

	err = c.feedRepo.StampPolled(feed.ID, time.Now().UTC())
	if err != nil {
		return result, fmt.Errorf("failed to stamp feed poll time: %w", err)
	}

	slog.Info("Feed crawled", "feed", feed.Name, "total", result.Total, "new", result.New, "duplicates", result.Duplicates, "failed", result.Failed)

	return result, nil
}

func (c *Crawler) storeEntry(feedID string, entry *gofeed.Item) (bool, error) {
	guid := truncate(cmp.Or(entry.GUID, entry.Link), maxGUIDLen)
	if guid == "" {
		return false, nil
	}

	exists, err := c.itemRepo.ExistsByGUID(guid)
	if err != nil {
		return false, fmt.Errorf("failed to check guid: %w", err)
	}
	if exists {
		return false, nil
	}

	if entry.Link != "" {
		exists, err = c.itemRepo.ExistsByLink(entry.Link)
		if err != nil {
			return false, fmt.Errorf("failed to check link: %w", err)
		}
		if exists {
			return false, nil
		}
	}

	item := database.NewItem{
		FeedID:      feedID,
		GUID:        guid,
		Link:        entry.Link,
		Title:       truncate(entry.Title, maxTitleLen),
		Description: entry.Description,
		Author:      truncate(extractAuthor(entry), maxAuthorLen),
		Category:    truncate(strings.Join(entry.Categories, ", "), maxCategoryLen),
		PublishedAt: publishedAt(entry),
	}

	_, err = c.itemRepo.CreateItem(item)
	if err != nil {
		return false, fmt.Errorf("failed to create item: %w", err)
	}

	return true, nil
}

func (c *Crawler) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}

func publishedAt(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		t := entry.PublishedParsed.UTC()
		return &t
	}
	if entry.UpdatedParsed != nil {
		t := entry.UpdatedParsed.UTC()
		return &t
	}
	if entry.Published != "" {
		if t, err := dateparse.ParseAny(entry.Published); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func extractAuthor(entry *gofeed.Item) string {
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		return formatAuthor(entry.Authors[0].Name, entry.Authors[0].Email)
	}
	if entry.Author != nil {
		return formatAuthor(entry.Author.Name, entry.Author.Email)
	}
	return ""
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" {
		return name
	}
	return email
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
