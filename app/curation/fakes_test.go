package curation

import (
	"fmt"
	"time"

	"github.com/curation-kr/pipeline/app/database"
)

type fakeFeedRepo struct {
	feeds map[string]*database.Feed
}

func (f *fakeFeedRepo) UpsertFeed(name, url string, active, digest bool) (string, error) {
	return "", nil
}

func (f *fakeFeedRepo) GetFeed(id string) (*database.Feed, error) {
	feed, ok := f.feeds[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return feed, nil
}

func (f *fakeFeedRepo) GetActiveFeeds() ([]database.Feed, error)  { return nil, nil }
func (f *fakeFeedRepo) StampPolled(id string, at time.Time) error { return nil }
func (f *fakeFeedRepo) GetFeedCount() (int, error)                { return len(f.feeds), nil }

type fakeItemRepo struct {
	items         map[string]*database.Item
	links         map[string]bool
	created       []database.NewItem
	failCreate    bool
	translate     map[string]string // id -> translate status
	translateErrs map[string]string
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		items:         make(map[string]*database.Item),
		links:         make(map[string]bool),
		translate:     make(map[string]string),
		translateErrs: make(map[string]string),
	}
}

func (f *fakeItemRepo) CreateItem(item database.NewItem) (string, error) {
	if f.failCreate {
		return "", fmt.Errorf("create failed")
	}
	f.created = append(f.created, item)
	f.links[item.Link] = true
	id := fmt.Sprintf("item-%d", len(f.created))
	return id, nil
}

func (f *fakeItemRepo) GetItem(id string) (*database.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return item, nil
}

func (f *fakeItemRepo) ExistsByGUID(guid string) (bool, error) { return false, nil }

func (f *fakeItemRepo) ExistsByLink(link string) (bool, error) {
	return f.links[link], nil
}

func (f *fakeItemRepo) ClaimNextCrawl(cutoff time.Time) (*database.Item, error)   { return nil, nil }
func (f *fakeItemRepo) CompleteCrawl(id, contentPath string, at time.Time) error  { return nil }
func (f *fakeItemRepo) FailCrawl(id, errorMessage string) error                   { return nil }
func (f *fakeItemRepo) NextDigestItem() (*database.Item, error)                   { return nil, nil }
func (f *fakeItemRepo) MarkExtracted(id string, at time.Time) error               { return nil }
func (f *fakeItemRepo) NextLanguagePending() (*database.Item, error)              { return nil, nil }
func (f *fakeItemRepo) SetLanguage(id, language string, confidence float64) error { return nil }
func (f *fakeItemRepo) SetSummary(id, summary string) error                       { return nil }
func (f *fakeItemRepo) SetCopyright(id, licenseType string, allowed, attributionRequired bool, confidence float64, reasoning string) error {
	return nil
}
func (f *fakeItemRepo) ClaimNextTranslation() (*database.Item, error) { return nil, nil }

func (f *fakeItemRepo) CompleteTranslate(id string) error {
	f.translate[id] = database.StatusCompleted
	return nil
}

func (f *fakeItemRepo) ResetTranslate(id string) error {
	f.translate[id] = database.StatusPending
	return nil
}

func (f *fakeItemRepo) FailTranslate(id, errorMessage string) error {
	f.translate[id] = database.StatusFailed
	f.translateErrs[id] = errorMessage
	return nil
}

func (f *fakeItemRepo) GetStats() (*database.Stats, error) { return &database.Stats{}, nil }

var _ database.FeedRepository = (*fakeFeedRepo)(nil)
var _ database.ItemRepository = (*fakeItemRepo)(nil)
