package repository

import (
	"context"
	"errors"
	"fmt"

	"archive-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const imageColumns = `
	id, item_id, created_at, url, is_primary, display_order, alt_text, file_size, width, height`

// ImageRepository handles database operations for images
type ImageRepository struct {
	db *pgxpool.Pool
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image at the end of its item's display order. When the
// image is primary, existing primaries of the item are cleared in the same
// transaction while the item row is locked.
func (r *ImageRepository) Create(ctx context.Context, image *models.Image) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockItem(ctx, tx, image.ItemID); err != nil {
			return err
		}

		if image.IsPrimary {
			if err := clearPrimary(ctx, tx, image.ItemID); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO images (id, item_id, url, is_primary, display_order, alt_text, file_size, width, height)
			VALUES ($1, $2, $3, $4,
				(SELECT COALESCE(MAX(display_order) + 1, 0) FROM images WHERE item_id = $2),
				$5, $6, $7, $8)
			RETURNING created_at, display_order
		`
		err := tx.QueryRow(ctx, query,
			image.ID, image.ItemID, image.URL, image.IsPrimary,
			image.AltText, image.FileSize, image.Width, image.Height,
		).Scan(&image.CreatedAt, &image.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
		return nil
	})
}

// GetWithOwner retrieves an image together with the owner of its parent item
func (r *ImageRepository) GetWithOwner(ctx context.Context, id string) (*models.Image, string, error) {
	if !validID(id) {
		return nil, "", fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	query := `
		SELECT i.id, i.item_id, i.created_at, i.url, i.is_primary, i.display_order,
		       i.alt_text, i.file_size, i.width, i.height, it.user_id
		FROM images i
		JOIN items it ON it.id = i.item_id
		WHERE i.id = $1
	`
	var img models.Image
	var ownerID string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&img.ID, &img.ItemID, &img.CreatedAt, &img.URL, &img.IsPrimary, &img.DisplayOrder,
		&img.AltText, &img.FileSize, &img.Width, &img.Height, &ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", fmt.Errorf("image %s: %w", id, ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to get image: %w", err)
	}
	return &img, ownerID, nil
}

// ListByItem retrieves the images of an item in display order
func (r *ImageRepository) ListByItem(ctx context.Context, itemID string) ([]*models.Image, error) {
	if !validID(itemID) {
		return []*models.Image{}, nil
	}
	query := `SELECT ` + imageColumns + ` FROM images
		WHERE item_id = $1
		ORDER BY display_order ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	defer rows.Close()

	images := []*models.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}
	return images, nil
}

// SetPrimary makes imageID the only primary image of itemID
func (r *ImageRepository) SetPrimary(ctx context.Context, itemID, imageID string) error {
	if !validID(itemID) || !validID(imageID) {
		return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockItem(ctx, tx, itemID); err != nil {
			return err
		}
		if err := clearPrimary(ctx, tx, itemID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx,
			`UPDATE images SET is_primary = TRUE WHERE id = $1 AND item_id = $2`,
			imageID, itemID,
		)
		if err != nil {
			return fmt.Errorf("failed to set primary image: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return nil
	})
}

// Delete deletes an image by ID
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	result, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return nil
}

func lockItem(ctx context.Context, tx pgx.Tx, itemID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, itemID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock item: %w", err)
	}
	return nil
}

func clearPrimary(ctx context.Context, tx pgx.Tx, itemID string) error {
	_, err := tx.Exec(ctx, `UPDATE images SET is_primary = FALSE WHERE item_id = $1 AND is_primary`, itemID)
	if err != nil {
		return fmt.Errorf("failed to clear primary image: %w", err)
	}
	return nil
}

func scanImage(row pgx.Row) (*models.Image, error) {
	var img models.Image
	err := row.Scan(
		&img.ID, &img.ItemID, &img.CreatedAt, &img.URL, &img.IsPrimary, &img.DisplayOrder,
		&img.AltText, &img.FileSize, &img.Width, &img.Height,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
