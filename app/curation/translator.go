package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/araddon/dateparse"

	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
	"github.com/curation-kr/pipeline/app/llm"
)

const translateSystemPrompt = "Translate the following markdown article in full to Korean."

var translateSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "The title of the translated article"},
    "slug": {"type": "string", "description": "The URL slug. Do not include the language code. Make it similar to the original URL."},
    "description": {"type": "string", "description": "The description of the translated article. Don't mention that it's translated."},
    "author": {"type": "string", "description": "The author of the translated article"},
    "tags": {"type": "array", "items": {"type": "string"}, "description": "List of topical tags inferred from the document"},
    "written_date": {"type": "string", "description": "The written date of the original article, ISO 8601"},
    "content": {"type": "string", "description": "The full translated article body in markdown"}
  },
  "required": ["title", "slug", "description", "author", "tags", "written_date", "content"]
}`)

type translatedResult struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	WrittenDate string   `json:"written_date"`
	Content     string   `json:"content"`
}

// Translator turns a translation-eligible foreign item into a stored
// Korean translation. Unlike the summarizer, provider exhaustion here is a
// ValidationError: the caller decides when to retry.
type Translator struct {
	registry        *llm.Registry
	ledger          *llm.Ledger
	itemRepo        database.ItemRepository
	translationRepo database.TranslationRepository
	usageRepo       database.UsageRepository
	store           *filestore.Store
}

func NewTranslator(registry *llm.Registry, ledger *llm.Ledger, itemRepo database.ItemRepository, translationRepo database.TranslationRepository, usageRepo database.UsageRepository, store *filestore.Store) *Translator {
	return &Translator{
		registry:        registry,
		ledger:          ledger,
		itemRepo:        itemRepo,
		translationRepo: translationRepo,
		usageRepo:       usageRepo,
		store:           store,
	}
}

func (t *Translator) Translate(ctx context.Context, itemID string) (*database.Translation, error) {
	item, err := t.itemRepo.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	if item.CrawledPath == "" {
		return nil, &ValidationError{Msg: "item has no crawled body"}
	}

	provider, model, err := t.ledger.Select()
	if err != nil {
		return nil, fmt.Errorf("failed to select provider: %w", err)
	}
	if provider == "" {
		return nil, &ValidationError{Msg: "no AI provider with available quota"}
	}

	client, err := t.registry.Client(provider)
	if err != nil {
		return nil, err
	}

	body, err := t.store.Read(item.CrawledPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawled body: %w", err)
	}

	modelName := llm.ModelKey(provider, model)

	text, usage, err := client.Invoke(ctx, model, translateSystemPrompt, body, translateSchema)
	if err != nil {
		return nil, t.failTranslation(itemID, modelName, err)
	}

	var result translatedResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		err = fmt.Errorf("malformed translation result: %w", err)
		return nil, t.failTranslation(itemID, modelName, err)
	}

	contentPath, err := t.store.Save("translations", item.ID, result.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save translated body: %w", err)
	}

	slug := result.Slug
	if slug == "" {
		slug = Slugify(result.Title)
	}

	translation := &database.Translation{
		ItemID:      item.ID,
		Title:       result.Title,
		Slug:        slug,
		Description: result.Description,
		Tags:        result.Tags,
		WrittenDate: parseWrittenDate(result.WrittenDate),
		Author:      result.Author,
		ModelName:   modelName,
		SourceURL:   item.Link,
		ContentPath: contentPath,
	}

	id, err := t.translationRepo.Insert(translation)
	if err != nil {
		return nil, fmt.Errorf("failed to persist translation: %w", err)
	}
	translation.ID = id

	recordUsage(t.usageRepo, provider, model, usage)

	slog.Info("Item translated", "item", item.ID, "translation", id, "model", modelName)

	return translation, nil
}

// failTranslation marks the item failed with the error message recorded,
// then hands the original error back to the caller.
func (t *Translator) failTranslation(itemID, modelName string, cause error) error {
	slog.Error("Translation failed", "item", itemID, "model", modelName, "error", cause)

	if err := t.itemRepo.FailTranslate(itemID, cause.Error()); err != nil {
		slog.Error("Failed to record translation failure", "item", itemID, "error", err)
	}

	return cause
}

func parseWrittenDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		slog.Warn("Unparseable written date in translation result", "value", raw, "error", err)
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}
