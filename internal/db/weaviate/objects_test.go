package weaviate

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

const testID = "8f14e45f-ceea-4e7a-9f6b-000000000001"

func TestObject_Found(t *testing.T) {
	f := newFakeWeaviate()
	f.objects[testID] = map[string]any{
		"class":      "Resource",
		"id":         testID,
		"properties": map[string]any{"title": "Bail reform"},
	}
	c := newTestClient(t, f)

	rec, err := c.Object(context.Background(), "Resource", testID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != testID {
		t.Errorf("id = %s", rec.ID)
	}
	props, ok := rec.Fields["properties"].(map[string]any)
	if !ok || props["title"] != "Bail reform" {
		t.Errorf("fields = %+v", rec.Fields)
	}
}

func TestObject_NotFound(t *testing.T) {
	c := newTestClient(t, newFakeWeaviate())
	_, err := c.Object(context.Background(), "Resource", testID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	f := newFakeWeaviate()
	c := newTestClient(t, f)

	if err := c.Create(context.Background(), "Resource", testID, map[string]any{"title": "New"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mu.Lock()
	_, stored := f.objects[testID]
	f.mu.Unlock()
	if !stored {
		t.Fatal("object not stored")
	}

	err := c.Create(context.Background(), "Resource", testID, map[string]any{"title": "New"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	f := newFakeWeaviate()
	f.objects[testID] = map[string]any{"class": "Resource", "id": testID, "properties": map[string]any{}}
	c := newTestClient(t, f)

	if err := c.Merge(context.Background(), "Resource", testID, map[string]any{"imageUrl": "https://cdn/x.png"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mu.Lock()
	patch := f.patches[testID]
	f.mu.Unlock()
	props, _ := patch["properties"].(map[string]any)
	if props["imageUrl"] != "https://cdn/x.png" {
		t.Errorf("patch = %+v", patch)
	}
}

func TestMerge_Missing(t *testing.T) {
	c := newTestClient(t, newFakeWeaviate())
	err := c.Merge(context.Background(), "Resource", testID, map[string]any{"imageUrl": "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
