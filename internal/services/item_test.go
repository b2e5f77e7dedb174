package services

import (
	"context"
	"encoding/json"
	"testing"
)

func TestCreateItemStampsCaller(t *testing.T) {
	env := newTestEnv(t)

	item := env.createItem(t, userA)
	if item.ID == "" {
		t.Error("expected generated id")
	}
	if item.UserID != userA {
		t.Errorf("expected owner %s, got %s", userA, item.UserID)
	}
	if item.IsForSale {
		t.Error("expected is_for_sale to default to false")
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if got := env.events.types(userA); len(got) != 1 || got[0] != EventItemCreated {
		t.Errorf("expected item_created event, got %v", got)
	}
}

func TestCreateItemIgnoresClientOwner(t *testing.T) {
	env := newTestEnv(t)

	var input ItemInput
	body := `{"brand":"Acme","item_name":"Jacket","user_id":"` + userB + `"}`
	if err := json.Unmarshal([]byte(body), &input); err != nil {
		t.Fatalf("decoding input: %v", err)
	}

	item, err := env.items.Create(context.Background(), Identity{UserID: userA}, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.UserID != userA {
		t.Errorf("owner taken from payload: %s", item.UserID)
	}
}

func TestCreateItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := Identity{UserID: userA}

	_, err := env.items.Create(ctx, caller, ItemInput{ItemName: "Jacket"})
	assertKind(t, err, KindValidation)

	_, err = env.items.Create(ctx, caller, ItemInput{Brand: "  ", ItemName: "Jacket"})
	assertKind(t, err, KindValidation)

	_, err = env.items.Create(ctx, caller, ItemInput{Brand: "Acme"})
	assertKind(t, err, KindValidation)

	bad := "03/04/2021"
	_, err = env.items.Create(ctx, caller, ItemInput{Brand: "Acme", ItemName: "Jacket", PurchaseDate: &bad})
	assertKind(t, err, KindValidation)
}

func TestCreateItemRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.items.Create(context.Background(), Identity{}, ItemInput{Brand: "Acme", ItemName: "Jacket"})
	assertKind(t, err, KindUnauthenticated)
}

func TestCreateItemCleansTags(t *testing.T) {
	env := newTestEnv(t)

	item, err := env.items.Create(context.Background(), Identity{UserID: userA}, ItemInput{
		Brand:    "Acme",
		ItemName: "Jacket",
		Tags:     []string{" grail ", "", "fw19"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "grail" || item.Tags[1] != "fw19" {
		t.Errorf("unexpected tags %q", item.Tags)
	}
}

func decodePatch(t *testing.T, body string) ItemPatch {
	t.Helper()
	var patch ItemPatch
	if err := json.Unmarshal([]byte(body), &patch); err != nil {
		t.Fatalf("decoding patch: %v", err)
	}
	return patch
}

func TestUpdateItemMergesFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := Identity{UserID: userA}

	size := "M"
	notes := "dry clean only"
	created, err := env.items.Create(ctx, caller, ItemInput{
		Brand: "Acme", ItemName: "Jacket", Size: &size, Notes: &notes,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := env.items.Update(ctx, caller, created.ID,
		decodePatch(t, `{"is_for_sale":true,"asking_price":120.5,"notes":null}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Brand != "Acme" || updated.ItemName != "Jacket" {
		t.Errorf("required fields changed: %s %s", updated.Brand, updated.ItemName)
	}
	if updated.Size == nil || *updated.Size != "M" {
		t.Error("absent field should keep its value")
	}
	if updated.Notes != nil {
		t.Error("null should clear the field")
	}
	if !updated.IsForSale || updated.AskingPrice == nil || *updated.AskingPrice != 120.5 {
		t.Error("sale fields not applied")
	}

	stored, _ := env.backend.Item(created.ID)
	if !stored.IsForSale || stored.Notes != nil {
		t.Error("update not persisted")
	}
}

func TestUpdateItemOwnerImmutable(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, userA)

	updated, err := env.items.Update(context.Background(), Identity{UserID: userA}, item.ID,
		decodePatch(t, `{"user_id":"`+userB+`","brand":"Other"}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UserID != userA {
		t.Errorf("owner changed to %s", updated.UserID)
	}
	stored, _ := env.backend.Item(item.ID)
	if stored.UserID != userA {
		t.Errorf("stored owner changed to %s", stored.UserID)
	}
}

func TestUpdateItemForbidden(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, userA)

	_, err := env.items.Update(context.Background(), Identity{UserID: userB}, item.ID,
		decodePatch(t, `{"brand":"Stolen"}`))
	assertKind(t, err, KindForbidden)

	stored, _ := env.backend.Item(item.ID)
	if stored.Brand != "Acme" {
		t.Errorf("forbidden update mutated item: %s", stored.Brand)
	}
}

func TestUpdateItemUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, userA)

	_, err := env.items.Update(context.Background(), Identity{}, item.ID, decodePatch(t, `{"brand":"X"}`))
	assertKind(t, err, KindUnauthenticated)
}

func TestUpdateItemNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.items.Update(context.Background(), Identity{UserID: userA}, "missing", decodePatch(t, `{}`))
	assertKind(t, err, KindNotFound)
}

func TestUpdateItemRejectsClearingRequired(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, userA)
	caller := Identity{UserID: userA}

	_, err := env.items.Update(context.Background(), caller, item.ID, decodePatch(t, `{"brand":null}`))
	assertKind(t, err, KindValidation)

	_, err = env.items.Update(context.Background(), caller, item.ID, decodePatch(t, `{"item_name":"   "}`))
	assertKind(t, err, KindValidation)
}

func TestGetAndListItems(t *testing.T) {
	env := newTestEnv(t)
	first := env.createItem(t, userA)
	second := env.createItem(t, userB)
	env.upload(t, userA, first.ID, false)

	items, err := env.items.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != second.ID {
		t.Error("expected newest item first")
	}
	if len(items[1].Images) != 1 {
		t.Errorf("expected nested image, got %d", len(items[1].Images))
	}

	got, err := env.items.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Images) != 1 {
		t.Errorf("expected 1 image, got %d", len(got.Images))
	}

	_, err = env.items.Get(context.Background(), "missing")
	assertKind(t, err, KindNotFound)
}
