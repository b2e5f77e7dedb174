package repository

import (
	"context"
	"errors"
	"fmt"

	"archive-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// validID reports whether id can match a UUID primary key
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

const itemColumns = `
	id, user_id, created_at, updated_at, brand, item_name, category, season, year,
	style_code, colorway, size, purchase_date::text, purchase_price, purchase_location,
	condition, description, notes, tags, is_for_sale, asking_price, location`

// ItemRepository handles database operations for items
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item and fills in the generated timestamps
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (
			id, user_id, brand, item_name, category, season, year,
			style_code, colorway, size, purchase_date, purchase_price, purchase_location,
			condition, description, notes, tags, is_for_sale, asking_price, location
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11::date, $12, $13,
			$14, $15, $16, $17, $18, $19, $20
		)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		item.ID, item.UserID, item.Brand, item.ItemName, item.Category, item.Season, item.Year,
		item.StyleCode, item.Colorway, item.Size, item.PurchaseDate, item.PurchasePrice, item.PurchaseLocation,
		item.Condition, item.Description, item.Notes, tagsOrEmpty(item.Tags), item.IsForSale, item.AskingPrice, item.Location,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	if !validID(id) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Update writes every mutable column of the item. The owner filter keeps a
// row from being modified by anyone but its owner; user_id itself is never written.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	if !validID(item.ID) {
		return fmt.Errorf("item %s: %w", item.ID, ErrNotFound)
	}
	query := `
		UPDATE items SET
			brand = $3, item_name = $4, category = $5, season = $6, year = $7,
			style_code = $8, colorway = $9, size = $10, purchase_date = $11::date,
			purchase_price = $12, purchase_location = $13, condition = $14,
			description = $15, notes = $16, tags = $17, is_for_sale = $18,
			asking_price = $19, location = $20, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		item.ID, item.UserID, item.Brand, item.ItemName, item.Category, item.Season, item.Year,
		item.StyleCode, item.Colorway, item.Size, item.PurchaseDate,
		item.PurchasePrice, item.PurchaseLocation, item.Condition,
		item.Description, item.Notes, tagsOrEmpty(item.Tags), item.IsForSale,
		item.AskingPrice, item.Location,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("item %s: %w", item.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// List retrieves all items newest first, each with its images in display order
func (r *ItemRepository) List(ctx context.Context) ([]*models.ItemWithImages, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*models.ItemWithImages{}
	byID := make(map[string]*models.ItemWithImages)
	ids := []string{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		entry := &models.ItemWithImages{Item: *item, Images: []*models.Image{}}
		items = append(items, entry)
		byID[item.ID] = entry
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	if len(ids) == 0 {
		return items, nil
	}

	imgQuery := `SELECT ` + imageColumns + ` FROM images
		WHERE item_id = ANY($1::uuid[])
		ORDER BY display_order ASC, created_at ASC`
	imgRows, err := r.db.Query(ctx, imgQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		img, err := scanImage(imgRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		if entry, ok := byID[img.ItemID]; ok {
			entry.Images = append(entry.Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return items, nil
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.UserID, &item.CreatedAt, &item.UpdatedAt, &item.Brand, &item.ItemName,
		&item.Category, &item.Season, &item.Year,
		&item.StyleCode, &item.Colorway, &item.Size, &item.PurchaseDate, &item.PurchasePrice,
		&item.PurchaseLocation, &item.Condition, &item.Description, &item.Notes, &item.Tags,
		&item.IsForSale, &item.AskingPrice, &item.Location,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
