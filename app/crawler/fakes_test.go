package crawler

import (
	"fmt"
	"time"

	"github.com/curation-kr/pipeline/app/database"
)

type fakeFeedRepo struct {
	feeds   []database.Feed
	stamped []string
}

func (f *fakeFeedRepo) UpsertFeed(name, url string, active, digest bool) (string, error) {
	return "", nil
}
func (f *fakeFeedRepo) GetFeed(id string) (*database.Feed, error) { return nil, database.ErrNotFound }
func (f *fakeFeedRepo) GetActiveFeeds() ([]database.Feed, error)  { return f.feeds, nil }
func (f *fakeFeedRepo) StampPolled(id string, at time.Time) error {
	f.stamped = append(f.stamped, id)
	return nil
}
func (f *fakeFeedRepo) GetFeedCount() (int, error) { return len(f.feeds), nil }

type fakeItemRepo struct {
	guids       map[string]bool
	links       map[string]bool
	created     []database.NewItem
	createCalls int
	failGUIDs   map[string]bool
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		guids:     make(map[string]bool),
		links:     make(map[string]bool),
		failGUIDs: make(map[string]bool),
	}
}

func (f *fakeItemRepo) CreateItem(item database.NewItem) (string, error) {
	f.createCalls++
	if f.failGUIDs[item.GUID] {
		return "", fmt.Errorf("UNIQUE constraint failed: items.link")
	}
	f.created = append(f.created, item)
	f.guids[item.GUID] = true
	f.links[item.Link] = true
	return fmt.Sprintf("item-%d", len(f.created)), nil
}

func (f *fakeItemRepo) GetItem(id string) (*database.Item, error) { return nil, database.ErrNotFound }
func (f *fakeItemRepo) ExistsByGUID(guid string) (bool, error)    { return f.guids[guid], nil }
func (f *fakeItemRepo) ExistsByLink(link string) (bool, error)    { return f.links[link], nil }
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
func (f *fakeItemRepo) CompleteTranslate(id string) error             { return nil }
func (f *fakeItemRepo) ResetTranslate(id string) error                { return nil }
func (f *fakeItemRepo) FailTranslate(id, errorMessage string) error   { return nil }
func (f *fakeItemRepo) GetStats() (*database.Stats, error)            { return &database.Stats{}, nil }

var _ database.FeedRepository = (*fakeFeedRepo)(nil)
var _ database.ItemRepository = (*fakeItemRepo)(nil)
