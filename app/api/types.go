package api

import (
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

type Handler struct {
	feedRepo        database.FeedRepository
	itemRepo        database.ItemRepository
	translationRepo database.TranslationRepository
	store           *filestore.Store
}
