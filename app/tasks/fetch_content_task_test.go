package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/curation-kr/pipeline/app/crawler"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

type fakeItemRepo struct {
	database.ItemRepository

	next *database.Item

	completedID   string
	completedPath string
	failedID      string
	failedError   string
}

func (f *fakeItemRepo) ClaimNextCrawl(cutoff time.Time) (*database.Item, error) {
	item := f.next
	f.next = nil
	return item, nil
}

func (f *fakeItemRepo) CompleteCrawl(id, contentPath string, at time.Time) error {
	f.completedID = id
	f.completedPath = contentPath
	return nil
}

func (f *fakeItemRepo) FailCrawl(id, errorMessage string) error {
	f.failedID = id
	f.failedError = errorMessage
	return nil
}

func newTestStore(t *testing.T) *filestore.Store {
	t.Helper()

	store, err := filestore.New(filepath.Join(t.TempDir(), "content"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestFetchContentTask_Execute_SavesBodyAndCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# Article\n\nbody text"))
	}))
	defer server.Close()

	repo := &fakeItemRepo{next: &database.Item{ID: "item-1", Link: "https://example.com/post", Title: "Post"}}
	store := newTestStore(t)
	fetcher := crawler.NewFetcher(server.Client(), server.URL, "test-agent")

	task := NewFetchContentTask(repo, fetcher, store, 14*24*time.Hour)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if repo.completedID != "item-1" {
		t.Errorf("Expected item-1 marked complete, got %q", repo.completedID)
	}
	if repo.failedID != "" {
		t.Errorf("No failure expected, got %q", repo.failedID)
	}

	body, err := store.Read(repo.completedPath)
	if err != nil {
		t.Fatalf("Failed to read saved body: %v", err)
	}
	if string(body) != "# Article\n\nbody text" {
		t.Errorf("Saved body does not match fetched body: %q", body)
	}
}

func TestFetchContentTask_Execute_FetchFailureRecordedWithoutTaskError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := &fakeItemRepo{next: &database.Item{ID: "item-1", Link: "https://example.com/post", Title: "Post"}}
	fetcher := crawler.NewFetcher(server.Client(), server.URL, "test-agent")

	task := NewFetchContentTask(repo, fetcher, newTestStore(t), 14*24*time.Hour)

	// The failure lands on the item, not on the task, so the scheduler
	// does not retry the same broken link.
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute should not return an error: %v", err)
	}

	if repo.failedID != "item-1" {
		t.Errorf("Expected item-1 marked failed, got %q", repo.failedID)
	}
	if !strings.Contains(repo.failedError, "502") {
		t.Errorf("Failure message should carry the status code, got %q", repo.failedError)
	}
	if repo.completedID != "" {
		t.Errorf("Item must not be marked complete, got %q", repo.completedID)
	}
}

func TestFetchContentTask_Execute_NoItems(t *testing.T) {
	repo := &fakeItemRepo{}
	fetcher := crawler.NewFetcher(http.DefaultClient, "http://127.0.0.1:0", "test-agent")

	task := NewFetchContentTask(repo, fetcher, newTestStore(t), 14*24*time.Hour)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute with empty queue failed: %v", err)
	}
	if repo.completedID != "" || repo.failedID != "" {
		t.Error("Empty queue must not touch any item")
	}
}
