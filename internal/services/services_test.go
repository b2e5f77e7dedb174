package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"archive-backend/internal/fake"
	"archive-backend/internal/models"
)

const (
	userA = "11111111-1111-1111-1111-111111111111"
	userB = "22222222-2222-2222-2222-222222222222"
)

type recorder struct {
	mu   sync.Mutex
	sent map[string][]WSMessage
}

func (r *recorder) Publish(userID string, msg WSMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]WSMessage)
	}
	r.sent[userID] = append(r.sent[userID], msg)
}

func (r *recorder) types(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, msg := range r.sent[userID] {
		types = append(types, msg.Type)
	}
	return types
}

type testEnv struct {
	backend *fake.Backend
	events  *recorder
	items   *ItemService
	images  *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := fake.NewBackend()
	backend.AddUser(userA)
	backend.AddUser(userB)
	events := &recorder{}

	images := NewImageService(backend.Items(), backend.Images(), backend.Objects(), events)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	images.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	return &testEnv{
		backend: backend,
		events:  events,
		items:   NewItemService(backend.Items(), backend.Images(), events),
		images:  images,
	}
}

func (e *testEnv) createItem(t *testing.T, owner string) *models.Item {
	t.Helper()
	item, err := e.items.Create(context.Background(), Identity{UserID: owner}, ItemInput{
		Brand:    "Acme",
		ItemName: "Jacket",
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	return item
}

func (e *testEnv) upload(t *testing.T, owner, itemID string, primary bool) *UploadResult {
	t.Helper()
	result, err := e.images.Upload(context.Background(), Identity{UserID: owner}, pngUpload(itemID, primary))
	if err != nil {
		t.Fatalf("uploading image: %v", err)
	}
	return result
}

func pngUpload(itemID string, primary bool) UploadInput {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48)))
	data := buf.Bytes()
	return UploadInput{
		ItemID:      itemID,
		IsPrimary:   primary,
		Filename:    "front.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		File:        bytes.NewReader(data),
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		owner  string
		caller Identity
		want   Decision
	}{
		{"owner", userA, Identity{UserID: userA}, Allow},
		{"other user", userA, Identity{UserID: userB}, Deny},
		{"anonymous", userA, Identity{}, Deny},
		{"ownerless resource", "", Identity{}, Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.owner, tt.caller); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOfForeignError(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindUpstream {
		t.Error("foreign errors should be upstream failures")
	}
	if MessageOf(err) != "boom" {
		t.Errorf("unexpected message %q", MessageOf(err))
	}
}
