package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"archive-backend/internal/imaging"
	"archive-backend/internal/models"
	"archive-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ImageStore persists image rows. Create and SetPrimary keep at most one
// primary image per item.
type ImageStore interface {
	Create(ctx context.Context, image *models.Image) error
	GetWithOwner(ctx context.Context, id string) (*models.Image, string, error)
	ListByItem(ctx context.Context, itemID string) ([]*models.Image, error)
	SetPrimary(ctx context.Context, itemID, imageID string) error
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds image blobs addressed by path
type ObjectStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
	PathFromURL(url string) (string, error)
}

// ImageService handles image-related business logic
type ImageService struct {
	items   ItemStore
	images  ImageStore
	objects ObjectStore
	events  EventPublisher
	now     func() time.Time
}

// NewImageService creates a new image service
func NewImageService(items ItemStore, images ImageStore, objects ObjectStore, events EventPublisher) *ImageService {
	return &ImageService{
		items:   items,
		images:  images,
		objects: objects,
		events:  events,
		now:     time.Now,
	}
}

// UploadInput describes an uploaded file destined for an item
type UploadInput struct {
	ItemID      string
	IsPrimary   bool
	Filename    string
	ContentType string
	Size        int64
	File        io.ReadSeeker
}

// UploadResult is the stored image and its public URL
type UploadResult struct {
	Image *models.Image `json:"image"`
	URL   string        `json:"url"`
}

// Upload stores the file and records it as an image of the caller's item
func (s *ImageService) Upload(ctx context.Context, caller Identity, input UploadInput) (*UploadResult, error) {
	if !caller.Authenticated() {
		return nil, unauthenticated()
	}
	if input.ItemID == "" {
		return nil, invalid("No item ID provided")
	}

	item, err := s.items.GetByID(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Item not found", err)
		}
		return nil, upstream("Failed to get item", err)
	}
	if err := requireOwner(item.UserID, caller); err != nil {
		return nil, err
	}

	if input.File == nil {
		return nil, invalid("No file provided")
	}
	ext := fileExtension(input.Filename)
	if ext == "" {
		return nil, invalid("File name has no extension")
	}

	var width, height *int
	if w, h, ok := imaging.Dimensions(input.File); ok {
		width, height = &w, &h
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, upstream("Failed to read file", err)
	}

	path := fmt.Sprintf("%s/%s/%d.%s", caller.UserID, item.ID, s.now().UnixMilli(), ext)
	if err := s.objects.Put(ctx, path, input.File, input.Size, input.ContentType); err != nil {
		return nil, upstream("Failed to upload file", err)
	}
	url := s.objects.PublicURL(path)

	size := input.Size
	altText := input.Filename
	image := &models.Image{
		ID:        uuid.New().String(),
		ItemID:    item.ID,
		URL:       url,
		IsPrimary: input.IsPrimary,
		AltText:   &altText,
		FileSize:  &size,
		Width:     width,
		Height:    height,
	}

	if err := s.images.Create(ctx, image); err != nil {
		if delErr := s.objects.Delete(ctx, path); delErr != nil {
			log.Warn().Err(delErr).Str("path", path).Msg("Failed to clean up uploaded object")
		}
		return nil, upstream("Failed to save image", err)
	}

	log.Info().
		Str("user_id", caller.UserID).
		Str("item_id", item.ID).
		Str("image_id", image.ID).
		Bool("is_primary", image.IsPrimary).
		Msg("Image uploaded")

	s.publish(caller.UserID, WSMessage{Type: EventImageUploaded, ItemID: item.ID, ImageID: image.ID, Data: image})

	return &UploadResult{Image: image, URL: url}, nil
}

// SetPrimary makes imageID the primary image of the caller's item
func (s *ImageService) SetPrimary(ctx context.Context, caller Identity, itemID, imageID string) error {
	if !caller.Authenticated() {
		return unauthenticated()
	}

	image, ownerID, err := s.images.GetWithOwner(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Image not found", err)
		}
		return upstream("Failed to get image", err)
	}
	if image.ItemID != itemID {
		return notFound("Image not found", nil)
	}
	if err := requireOwner(ownerID, caller); err != nil {
		return err
	}

	if err := s.images.SetPrimary(ctx, itemID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Image not found", err)
		}
		return upstream("Failed to set primary image", err)
	}

	s.publish(caller.UserID, WSMessage{Type: EventPrimaryChanged, ItemID: itemID, ImageID: imageID})
	return nil
}

// Delete removes the image's object and record
func (s *ImageService) Delete(ctx context.Context, caller Identity, imageID string) error {
	if !caller.Authenticated() {
		return unauthenticated()
	}
	if imageID == "" {
		return invalid("No image ID provided")
	}

	image, ownerID, err := s.images.GetWithOwner(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Image not found", err)
		}
		return upstream("Failed to get image", err)
	}
	if err := requireOwner(ownerID, caller); err != nil {
		return err
	}

	path, err := s.objects.PathFromURL(image.URL)
	if err != nil {
		return invalidState("Stored image URL is malformed", err)
	}

	if err := s.objects.Delete(ctx, path); err != nil {
		log.Warn().Err(err).Str("image_id", imageID).Str("path", path).Msg("Failed to delete object, removing record anyway")
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return upstream("Failed to delete image", err)
	}

	log.Info().
		Str("user_id", caller.UserID).
		Str("item_id", image.ItemID).
		Str("image_id", imageID).
		Msg("Image deleted")

	s.publish(caller.UserID, WSMessage{Type: EventImageDeleted, ItemID: image.ItemID, ImageID: imageID})
	return nil
}

func (s *ImageService) publish(userID string, msg WSMessage) {
	if s.events != nil {
		s.events.Publish(userID, msg)
	}
}

// fileExtension returns the text after the last dot of name, lowercased.
// Anything but ASCII letters and digits yields "" so the extension cannot
// alter the object path.
func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	ext := strings.ToLower(name[idx+1:])
	for _, c := range ext {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
