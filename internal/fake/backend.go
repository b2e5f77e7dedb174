// Package fake provides in-memory implementations of the storage
// interfaces for tests.
package fake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"archive-backend/internal/models"
	"archive-backend/internal/repository"
	"archive-backend/internal/storage"
)

// Bucket is the bucket name used in fake object URLs
const Bucket = "item-images"

// Backend holds users, items, images and objects in memory. Fail* fields
// inject errors into the matching operation.
type Backend struct {
	mu      sync.Mutex
	users   map[string]models.User
	items   map[string]models.Item
	images  map[string]models.Image
	objects map[string][]byte
	seq     int

	FailImageCreate  error
	FailImageDelete  error
	FailObjectPut    error
	FailObjectDelete error
}

// NewBackend creates an empty in-memory backend
func NewBackend() *Backend {
	return &Backend{
		users:   make(map[string]models.User),
		items:   make(map[string]models.Item),
		images:  make(map[string]models.Image),
		objects: make(map[string][]byte),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic
func (b *Backend) tick() time.Time {
	b.seq++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(b.seq) * time.Second)
}

// Users returns the user store view of the backend
func (b *Backend) Users() *Users { return &Users{b} }

// Items returns the item store view of the backend
func (b *Backend) Items() *Items { return &Items{b} }

// Images returns the image store view of the backend
func (b *Backend) Images() *Images { return &Images{b} }

// Objects returns the object store view of the backend
func (b *Backend) Objects() *Objects { return &Objects{b} }

// Users implements the user store
type Users struct{ b *Backend }

func (u *Users) Create(ctx context.Context, user *models.User) error {
	u.b.mu.Lock()
	defer u.b.mu.Unlock()
	user.CreatedAt = u.b.tick()
	u.b.users[user.ID] = *user
	return nil
}

func (u *Users) Exists(ctx context.Context, id string) (bool, error) {
	u.b.mu.Lock()
	defer u.b.mu.Unlock()
	_, ok := u.b.users[id]
	return ok, nil
}

// Items implements the item store
type Items struct{ b *Backend }

func (s *Items) Create(ctx context.Context, item *models.Item) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	now := s.b.tick()
	item.CreatedAt, item.UpdatedAt = now, now
	s.b.items[item.ID] = copyItem(*item)
	return nil
}

func (s *Items) GetByID(ctx context.Context, id string) (*models.Item, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	item, ok := s.b.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, repository.ErrNotFound)
	}
	out := copyItem(item)
	return &out, nil
}

func (s *Items) Update(ctx context.Context, item *models.Item) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	stored, ok := s.b.items[item.ID]
	if !ok || stored.UserID != item.UserID {
		return fmt.Errorf("item %s: %w", item.ID, repository.ErrNotFound)
	}
	item.CreatedAt = stored.CreatedAt
	item.UpdatedAt = s.b.tick()
	s.b.items[item.ID] = copyItem(*item)
	return nil
}

func (s *Items) List(ctx context.Context) ([]*models.ItemWithImages, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	out := []*models.ItemWithImages{}
	for _, item := range s.b.items {
		out = append(out, &models.ItemWithImages{Item: copyItem(item), Images: s.b.imagesOf(item.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Images implements the image store
type Images struct{ b *Backend }

func (s *Images) Create(ctx context.Context, image *models.Image) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.FailImageCreate != nil {
		return s.b.FailImageCreate
	}
	if _, ok := s.b.items[image.ItemID]; !ok {
		return fmt.Errorf("item %s: %w", image.ItemID, repository.ErrNotFound)
	}
	order := 0
	for id, img := range s.b.images {
		if img.ItemID != image.ItemID {
			continue
		}
		if img.DisplayOrder >= order {
			order = img.DisplayOrder + 1
		}
		if image.IsPrimary && img.IsPrimary {
			img.IsPrimary = false
			s.b.images[id] = img
		}
	}
	image.DisplayOrder = order
	image.CreatedAt = s.b.tick()
	s.b.images[image.ID] = *image
	return nil
}

func (s *Images) GetWithOwner(ctx context.Context, id string) (*models.Image, string, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	img, ok := s.b.images[id]
	if !ok {
		return nil, "", fmt.Errorf("image %s: %w", id, repository.ErrNotFound)
	}
	item, ok := s.b.items[img.ItemID]
	if !ok {
		return nil, "", fmt.Errorf("image %s: %w", id, repository.ErrNotFound)
	}
	return &img, item.UserID, nil
}

func (s *Images) ListByItem(ctx context.Context, itemID string) ([]*models.Image, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.imagesOf(itemID), nil
}

func (s *Images) SetPrimary(ctx context.Context, itemID, imageID string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	target, ok := s.b.images[imageID]
	if !ok || target.ItemID != itemID {
		return fmt.Errorf("image %s: %w", imageID, repository.ErrNotFound)
	}
	for id, img := range s.b.images {
		if img.ItemID == itemID {
			img.IsPrimary = id == imageID
			s.b.images[id] = img
		}
	}
	return nil
}

func (s *Images) Delete(ctx context.Context, id string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.FailImageDelete != nil {
		return s.b.FailImageDelete
	}
	if _, ok := s.b.images[id]; !ok {
		return fmt.Errorf("image %s: %w", id, repository.ErrNotFound)
	}
	delete(s.b.images, id)
	return nil
}

// Objects implements the object store
type Objects struct{ b *Backend }

func (s *Objects) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.FailObjectPut != nil {
		return s.b.FailObjectPut
	}
	if _, exists := s.b.objects[path]; exists {
		return errors.New("object already exists")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.b.objects[path] = buf.Bytes()
	return nil
}

func (s *Objects) Delete(ctx context.Context, path string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.FailObjectDelete != nil {
		return s.b.FailObjectDelete
	}
	delete(s.b.objects, path)
	return nil
}

func (s *Objects) PublicURL(path string) string {
	return "https://storage.test/" + Bucket + "/" + path
}

func (s *Objects) PathFromURL(url string) (string, error) {
	return storage.PathFromURL(Bucket, url)
}

// AddUser inserts a user directly
func (b *Backend) AddUser(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[id] = models.User{ID: id, CreatedAt: b.tick()}
}

// PutImage inserts an image row directly, bypassing the primary invariant
func (b *Backend) PutImage(img models.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	img.CreatedAt = b.tick()
	b.images[img.ID] = img
}

// Item returns the stored item
func (b *Backend) Item(id string) (models.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[id]
	return copyItem(item), ok
}

// Image returns the stored image
func (b *Backend) Image(id string) (models.Image, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	img, ok := b.images[id]
	return img, ok
}

// ImagesOf returns the stored images of an item in display order
func (b *Backend) ImagesOf(itemID string) []*models.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.imagesOf(itemID)
}

// PrimaryCount returns how many images of the item are flagged primary
func (b *Backend) PrimaryCount(itemID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, img := range b.images {
		if img.ItemID == itemID && img.IsPrimary {
			n++
		}
	}
	return n
}

// Object returns the stored object at path
func (b *Backend) Object(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[path]
	return data, ok
}

// ObjectCount returns the number of stored objects
func (b *Backend) ObjectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *Backend) imagesOf(itemID string) []*models.Image {
	out := []*models.Image{}
	for _, img := range b.images {
		if img.ItemID == itemID {
			img := img
			out = append(out, &img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func copyItem(item models.Item) models.Item {
	if item.Tags != nil {
		item.Tags = append([]string(nil), item.Tags...)
	}
	return item
}
