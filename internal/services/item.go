package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"archive-backend/internal/models"
	"archive-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ItemStore persists item rows
type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	List(ctx context.Context) ([]*models.ItemWithImages, error)
}

// ItemService handles item-related business logic
type ItemService struct {
	items  ItemStore
	images ImageStore
	events EventPublisher
}

// NewItemService creates a new item service
func NewItemService(items ItemStore, images ImageStore, events EventPublisher) *ItemService {
	return &ItemService{
		items:  items,
		images: images,
		events: events,
	}
}

// ItemInput holds the fields of a new item. Ownership is never taken from the payload.
type ItemInput struct {
	Brand            string   `json:"brand"`
	ItemName         string   `json:"item_name"`
	Category         *string  `json:"category"`
	Season           *string  `json:"season"`
	Year             *int     `json:"year"`
	StyleCode        *string  `json:"style_code"`
	Colorway         *string  `json:"colorway"`
	Size             *string  `json:"size"`
	PurchaseDate     *string  `json:"purchase_date"`
	PurchasePrice    *float64 `json:"purchase_price"`
	PurchaseLocation *string  `json:"purchase_location"`
	Condition        *string  `json:"condition"`
	Description      *string  `json:"description"`
	Notes            *string  `json:"notes"`
	Tags             []string `json:"tags"`
	IsForSale        bool     `json:"is_for_sale"`
	AskingPrice      *float64 `json:"asking_price"`
	Location         *string  `json:"location"`
}

// ItemPatch holds a partial update. Absent fields keep their stored value,
// null clears an optional field.
type ItemPatch struct {
	Brand            models.Optional[string]   `json:"brand"`
	ItemName         models.Optional[string]   `json:"item_name"`
	Category         models.Optional[string]   `json:"category"`
	Season           models.Optional[string]   `json:"season"`
	Year             models.Optional[int]      `json:"year"`
	StyleCode        models.Optional[string]   `json:"style_code"`
	Colorway         models.Optional[string]   `json:"colorway"`
	Size             models.Optional[string]   `json:"size"`
	PurchaseDate     models.Optional[string]   `json:"purchase_date"`
	PurchasePrice    models.Optional[float64]  `json:"purchase_price"`
	PurchaseLocation models.Optional[string]   `json:"purchase_location"`
	Condition        models.Optional[string]   `json:"condition"`
	Description      models.Optional[string]   `json:"description"`
	Notes            models.Optional[string]   `json:"notes"`
	Tags             models.Optional[[]string] `json:"tags"`
	IsForSale        models.Optional[bool]     `json:"is_for_sale"`
	AskingPrice      models.Optional[float64]  `json:"asking_price"`
	Location         models.Optional[string]   `json:"location"`
}

// Create stores a new item owned by the caller
func (s *ItemService) Create(ctx context.Context, caller Identity, input ItemInput) (*models.Item, error) {
	if !caller.Authenticated() {
		return nil, unauthenticated()
	}

	item := &models.Item{
		ID:               uuid.New().String(),
		UserID:           caller.UserID,
		Brand:            strings.TrimSpace(input.Brand),
		ItemName:         strings.TrimSpace(input.ItemName),
		Category:         input.Category,
		Season:           input.Season,
		Year:             input.Year,
		StyleCode:        input.StyleCode,
		Colorway:         input.Colorway,
		Size:             input.Size,
		PurchaseDate:     input.PurchaseDate,
		PurchasePrice:    input.PurchasePrice,
		PurchaseLocation: input.PurchaseLocation,
		Condition:        input.Condition,
		Description:      input.Description,
		Notes:            input.Notes,
		Tags:             cleanTags(input.Tags),
		IsForSale:        input.IsForSale,
		AskingPrice:      input.AskingPrice,
		Location:         input.Location,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, upstream("Failed to create item", err)
	}

	s.publish(caller.UserID, WSMessage{Type: EventItemCreated, ItemID: item.ID, Data: item})
	return item, nil
}

// Update merges patch into the caller's item
func (s *ItemService) Update(ctx context.Context, caller Identity, itemID string, patch ItemPatch) (*models.Item, error) {
	if !caller.Authenticated() {
		return nil, unauthenticated()
	}

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(item.UserID, caller); err != nil {
		return nil, err
	}

	if patch.Brand.Set {
		if patch.Brand.Value == nil {
			return nil, invalid("brand is required")
		}
		item.Brand = strings.TrimSpace(*patch.Brand.Value)
	}
	if patch.ItemName.Set {
		if patch.ItemName.Value == nil {
			return nil, invalid("item_name is required")
		}
		item.ItemName = strings.TrimSpace(*patch.ItemName.Value)
	}
	patch.Category.Apply(&item.Category)
	patch.Season.Apply(&item.Season)
	patch.Year.Apply(&item.Year)
	patch.StyleCode.Apply(&item.StyleCode)
	patch.Colorway.Apply(&item.Colorway)
	patch.Size.Apply(&item.Size)
	patch.PurchaseDate.Apply(&item.PurchaseDate)
	patch.PurchasePrice.Apply(&item.PurchasePrice)
	patch.PurchaseLocation.Apply(&item.PurchaseLocation)
	patch.Condition.Apply(&item.Condition)
	patch.Description.Apply(&item.Description)
	patch.Notes.Apply(&item.Notes)
	patch.AskingPrice.Apply(&item.AskingPrice)
	patch.Location.Apply(&item.Location)
	if patch.Tags.Set {
		var tags []string
		if patch.Tags.Value != nil {
			tags = *patch.Tags.Value
		}
		item.Tags = cleanTags(tags)
	}
	if patch.IsForSale.Set {
		item.IsForSale = patch.IsForSale.Value != nil && *patch.IsForSale.Value
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Item not found", err)
		}
		return nil, upstream("Failed to update item", err)
	}

	s.publish(caller.UserID, WSMessage{Type: EventItemUpdated, ItemID: item.ID, Data: item})
	return item, nil
}

// Get returns an item with its images
func (s *ItemService) Get(ctx context.Context, itemID string) (*models.ItemWithImages, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByItem(ctx, itemID)
	if err != nil {
		return nil, upstream("Failed to get images", err)
	}
	return &models.ItemWithImages{Item: *item, Images: images}, nil
}

// List returns every item newest first with images in display order
func (s *ItemService) List(ctx context.Context) ([]*models.ItemWithImages, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, upstream("Failed to list items", err)
	}
	return items, nil
}

func (s *ItemService) getItem(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Item not found", err)
		}
		return nil, upstream("Failed to get item", err)
	}
	return item, nil
}

func (s *ItemService) publish(userID string, msg WSMessage) {
	if s.events != nil {
		s.events.Publish(userID, msg)
	}
}

func validateItem(item *models.Item) error {
	if item.Brand == "" {
		return invalid("brand is required")
	}
	if item.ItemName == "" {
		return invalid("item_name is required")
	}
	if item.PurchaseDate != nil {
		if _, err := time.Parse(time.DateOnly, *item.PurchaseDate); err != nil {
			log.Debug().Err(err).Str("purchase_date", *item.PurchaseDate).Msg("Rejected purchase date")
			return invalid("purchase_date must be YYYY-MM-DD")
		}
	}
	return nil
}

// cleanTags trims tags and drops empty ones, keeping their order
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
