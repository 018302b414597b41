package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

func NewHandler(feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	translationRepo database.TranslationRepository, store *filestore.Store) *Handler {
	return &Handler{
		feedRepo:        feedRepo,
		itemRepo:        itemRepo,
		translationRepo: translationRepo,
		store:           store,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.itemRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":               stats.Feeds,
		"items":               stats.Items,
		"items_crawled":       stats.ItemsCrawled,
		"items_crawl_failed":  stats.ItemsCrawlFailed,
		"translations":        stats.Translations,
		"translations_failed": stats.TranslationsFailed,
	})
}

// GetTranslation renders one finished translation. A missing body file is
// reported inline instead of failing the whole response; the metadata is
// still useful without it.
func (h *Handler) GetTranslation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	translation, err := h.translationRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Database error", "operation", "get_translation", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	content, err := h.store.Read(translation.ContentPath)
	if err != nil {
		slog.Error("Failed to read translation body", "id", id, "path", translation.ContentPath, "error", err)
		content = "(translation body unavailable)"
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           translation.ID,
		"item_id":      translation.ItemID,
		"title":        translation.Title,
		"slug":         translation.Slug,
		"description":  translation.Description,
		"tags":         translation.Tags,
		"written_date": translation.WrittenDate,
		"author":       translation.Author,
		"model_name":   translation.ModelName,
		"source_url":   translation.SourceURL,
		"content":      content,
		"created_at":   translation.CreatedAt.Format(time.RFC3339),
	})
}
