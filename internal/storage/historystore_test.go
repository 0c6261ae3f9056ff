package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/example/carpool-matching/internal/models"
)

func TestMemoryStoreNewestFirstPerUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Seed("me", []models.RideHistoryItem{{ID: "h1"}, {ID: "h2"}})

	if err := m.Append(ctx, "me", models.RideHistoryItem{ID: "new", Status: models.HistoryUpcoming}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.Append(ctx, "other", models.RideHistoryItem{ID: "x"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := m.List(ctx, "me")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "new" || got[1].ID != "h1" || got[2].ID != "h2" {
		t.Fatalf("list = %+v", got)
	}
	other, _ := m.List(ctx, "other")
	if len(other) != 1 {
		t.Fatalf("other user sees %d items", len(other))
	}
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	item := models.RideHistoryItem{ID: "h"}
	if err := m.Append(ctx, "me", item); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.Append(ctx, "me", item); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, _ := m.List(ctx, "me")
	if len(got) != 1 {
		t.Fatalf("list has %d items", len(got))
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_ = m.Append(ctx, "me", models.RideHistoryItem{ID: "h"})
	got, _ := m.List(ctx, "me")
	got[0].ID = "changed"
	again, _ := m.List(ctx, "me")
	if again[0].ID != "h" {
		t.Fatal("store mutated through list")
	}
}

func TestListUnknownUserEmpty(t *testing.T) {
	got, err := NewMemoryStore().List(context.Background(), "nobody")
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v %v", got, err)
	}
}
