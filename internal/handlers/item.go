package handlers

import (
	"encoding/json"
	"net/http"

	"archive-backend/internal/middleware"
	"archive-backend/internal/models"
	"archive-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	itemService *services.ItemService
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// ItemView is an item with its images and the image to display for it
type ItemView struct {
	*models.ItemWithImages
	DisplayImage *models.Image `json:"display_image"`
}

func newItemView(item *models.ItemWithImages) ItemView {
	return ItemView{ItemWithImages: item, DisplayImage: item.DisplayImage()}
}

// ListItems handles GET /api/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		respondServiceError(w, err)
		return
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

// GetItem handles GET /api/items/{item_id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	item, err := h.itemService.Get(r.Context(), itemID)
	if err != nil {
		if services.KindOf(err) != services.KindNotFound {
			log.Error().Err(err).Str("item_id", itemID).Msg("Failed to get item")
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"item": newItemView(item)})
}

// CreateItem handles POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetIdentity(ctx)

	var req services.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.itemService.Create(ctx, caller, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", caller.UserID).
			Msg("Failed to create item")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", caller.UserID).
		Str("item_id", item.ID).
		Msg("Item created")

	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/items/{item_id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetIdentity(ctx)
	itemID := chi.URLParam(r, "item_id")

	var req services.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.itemService.Update(ctx, caller, itemID, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", caller.UserID).
			Str("item_id", itemID).
			Msg("Failed to update item")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", caller.UserID).
		Str("item_id", item.ID).
		Msg("Item updated")

	respondJSON(w, http.StatusOK, item)
}
