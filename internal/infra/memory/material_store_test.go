package memory

import (
	"context"
	"testing"
	"time"

	"campus-exam-service/internal/domain"
)

func TestMaterialStoreNewsVisibility(t *testing.T) {
	ctx := context.Background()
	store := NewMaterialStore()
	base := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	_ = store.CreateNews(ctx, domain.News{ID: "n1", Title: "Exams", IsPublic: true, CreatedAt: base})
	_ = store.CreateNews(ctx, domain.News{ID: "n2", Title: "Staff meeting", IsPublic: false, CreatedAt: base.Add(time.Hour)})

	all, _ := store.ListNews(ctx, false)
	if len(all) != 2 || all[0].ID != "n2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	public, _ := store.ListNews(ctx, true)
	if len(public) != 1 || public[0].ID != "n1" {
		t.Fatalf("expected only public news, got %+v", public)
	}
}
