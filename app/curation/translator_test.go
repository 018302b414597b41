package curation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
	"github.com/curation-kr/pipeline/app/llm"
)

type fakeTranslationRepo struct {
	inserted []*database.Translation
}

func (f *fakeTranslationRepo) Insert(tr *database.Translation) (string, error) {
	f.inserted = append(f.inserted, tr)
	return "trans-1", nil
}

func (f *fakeTranslationRepo) GetByID(id string) (*database.Translation, error) {
	return nil, database.ErrNotFound
}

func (f *fakeTranslationRepo) ExistsForItem(itemID string) (bool, error) { return false, nil }

var _ database.TranslationRepository = (*fakeTranslationRepo)(nil)

func newTestTranslator(t *testing.T, providers []config.Provider, itemRepo *fakeItemRepo) (*Translator, *fakeTranslationRepo, *filestore.Store) {
	t.Helper()

	registry, err := llm.NewRegistry(providers, "test-agent", http.DefaultClient)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	usage := &fakeUsageRepo{}
	ledger := llm.NewLedger(providers, nil, usage)
	translationRepo := &fakeTranslationRepo{}
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	return NewTranslator(registry, ledger, itemRepo, translationRepo, usage, store), translationRepo, store
}

func TestTranslator_RejectsItemWithoutBody(t *testing.T) {
	itemRepo := newFakeItemRepo()
	itemRepo.items["item-1"] = &database.Item{ID: "item-1", Link: "https://example.com/post"}

	translator, translationRepo, _ := newTestTranslator(t, nil, itemRepo)

	_, err := translator.Translate(context.Background(), "item-1")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(translationRepo.inserted) != 0 {
		t.Error("No translation row should be created")
	}
}

func TestTranslator_RejectsWhenNoProviderAvailable(t *testing.T) {
	itemRepo := newFakeItemRepo()

	translator, _, store := newTestTranslator(t, nil, itemRepo)

	path, err := store.Save("articles", "item-1", "body text")
	if err != nil {
		t.Fatalf("Failed to save body: %v", err)
	}
	itemRepo.items["item-1"] = &database.Item{ID: "item-1", Link: "https://example.com/post", CrawledPath: path}

	_, err = translator.Translate(context.Background(), "item-1")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for exhausted providers, got %v", err)
	}

	// Exhaustion is a defer, not a failure: the item must not be marked
	// translate-failed.
	if itemRepo.translate["item-1"] == database.StatusFailed {
		t.Error("Provider exhaustion must not mark the item failed")
	}
}

func TestTranslator_MissingItem(t *testing.T) {
	translator, _, _ := newTestTranslator(t, nil, newFakeItemRepo())

	_, err := translator.Translate(context.Background(), "nope")
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
