package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// User represents an account that owns items
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Item represents a catalogued possession
type Item struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `json:"user_id"`

	Brand    string  `json:"brand"`
	ItemName string  `json:"item_name"`
	Category *string `json:"category"`
	Season   *string `json:"season"`
	Year     *int    `json:"year"`

	StyleCode *string `json:"style_code"`
	Colorway  *string `json:"colorway"`
	Size      *string `json:"size"`

	// PurchaseDate is a calendar date in YYYY-MM-DD form
	PurchaseDate     *string  `json:"purchase_date"`
	PurchasePrice    *float64 `json:"purchase_price"`
	PurchaseLocation *string  `json:"purchase_location"`
	Condition        *string  `json:"condition"`

	Description *string  `json:"description"`
	Notes       *string  `json:"notes"`
	Tags        []string `json:"tags"`

	IsForSale   bool     `json:"is_for_sale"`
	AskingPrice *float64 `json:"asking_price"`
	Location    *string  `json:"location"`
}

// Image represents a photograph attached to an item
type Image struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ItemID       string    `json:"item_id"`
	URL          string    `json:"url"`
	IsPrimary    bool      `json:"is_primary"`
	DisplayOrder int       `json:"display_order"`
	AltText      *string   `json:"alt_text"`
	FileSize     *int64    `json:"file_size"`
	Width        *int      `json:"width"`
	Height       *int      `json:"height"`
}

// ItemWithImages is an item with its images in display order
type ItemWithImages struct {
	Item
	Images []*Image `json:"images"`
}

// DisplayImage returns the primary image, falling back to the first one.
func (i *ItemWithImages) DisplayImage() *Image {
	for _, img := range i.Images {
		if img.IsPrimary {
			return img
		}
	}
	if len(i.Images) > 0 {
		return i.Images[0]
	}
	return nil
}

// Optional is a JSON field that distinguishes an absent key from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Apply overwrites dst when the field was present in the payload.
func (o Optional[T]) Apply(dst **T) {
	if o.Set {
		*dst = o.Value
	}
}
