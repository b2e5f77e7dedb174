package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"archive-backend/internal/middleware"
	"archive-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk
const multipartMemory = 8 << 20

// ImageHandler handles image upload and management requests
type ImageHandler struct {
	imageService   *services.ImageService
	maxUploadBytes int64
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService *services.ImageService, maxUploadBytes int64) *ImageHandler {
	return &ImageHandler{
		imageService:   imageService,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse is returned after a successful upload
type UploadResponse struct {
	Success bool `json:"success"`
	*services.UploadResult
}

// DeleteImageRequest represents the request body for deleting an image
type DeleteImageRequest struct {
	ImageID string `json:"imageId"`
}

// UploadImage handles POST /api/upload
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetIdentity(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "File too large", http.StatusBadRequest)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	itemID := r.FormValue("itemId")
	if itemID == "" {
		respondError(w, "No item ID provided", http.StatusBadRequest)
		return
	}

	result, err := h.imageService.Upload(ctx, caller, services.UploadInput{
		ItemID:      itemID,
		IsPrimary:   r.FormValue("isPrimary") == "true",
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		File:        file,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", caller.UserID).
			Str("item_id", itemID).
			Str("filename", header.Filename).
			Msg("Failed to upload image")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{Success: true, UploadResult: result})
}

// DeleteImage handles DELETE /api/upload/delete
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetIdentity(ctx)

	var req DeleteImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ImageID == "" {
		respondError(w, "No image ID provided", http.StatusBadRequest)
		return
	}

	if err := h.imageService.Delete(ctx, caller, req.ImageID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", caller.UserID).
			Str("image_id", req.ImageID).
			Msg("Failed to delete image")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// SetPrimaryImage handles PUT /api/items/{item_id}/images/{image_id}/primary
func (h *ImageHandler) SetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetIdentity(ctx)
	itemID := chi.URLParam(r, "item_id")
	imageID := chi.URLParam(r, "image_id")

	if err := h.imageService.SetPrimary(ctx, caller, itemID, imageID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", caller.UserID).
			Str("item_id", itemID).
			Str("image_id", imageID).
			Msg("Failed to set primary image")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", caller.UserID).
		Str("item_id", itemID).
		Str("image_id", imageID).
		Msg("Primary image changed")

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
