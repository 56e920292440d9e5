package app_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/domain"
	"campus-exam-service/internal/infra/memory"
)

type recordingFiles struct {
	key         string
	contentType string
	body        string
	err         error
	deleted     []string
}

func (f *recordingFiles) Put(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.body = key, contentType, string(data)
	return "https://files.example.test/" + key, nil
}

func (f *recordingFiles) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type failingMaterials struct {
	*memory.MaterialStore
}

func (failingMaterials) CreateMaterial(context.Context, domain.StudyMaterial) error {
	return &domain.StorageError{Op: "insert material", Err: errors.New("connection reset")}
}

func TestPublishMaterialUploadsFile(t *testing.T) {
	files := &recordingFiles{}
	svc := app.NewMaterialService(memory.NewMaterialStore(), files)

	material, err := svc.PublishMaterial(context.Background(), faculty, domain.MaterialDraft{
		Title:   "Routing notes",
		Subject: "Networks",
	}, &app.Upload{Filename: "notes.PDF", Body: strings.NewReader("%PDF-1.4")})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.HasPrefix(files.key, "uploads/fac-1/") || !strings.HasSuffix(files.key, ".pdf") {
		t.Fatalf("unexpected key %q", files.key)
	}
	if files.contentType != "application/pdf" || files.body != "%PDF-1.4" {
		t.Fatalf("unexpected upload %+v", files)
	}
	if material.FileURL != "https://files.example.test/"+files.key {
		t.Fatalf("unexpected file url %q", material.FileURL)
	}

	list, _ := svc.ListMaterials(context.Background())
	if len(list) != 1 || list[0].ID != material.ID {
		t.Fatalf("expected stored material, got %+v", list)
	}
}

func TestPublishMaterialStorageFailure(t *testing.T) {
	svc := app.NewMaterialService(memory.NewMaterialStore(), &recordingFiles{err: errors.New("bucket unavailable")})
	_, err := svc.PublishMaterial(context.Background(), faculty, domain.MaterialDraft{
		Title:   "Routing notes",
		Subject: "Networks",
	}, &app.Upload{Filename: "notes.pdf", Body: strings.NewReader("x")})

	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestPublishMaterialRemovesUploadWhenRecordFails(t *testing.T) {
	files := &recordingFiles{}
	svc := app.NewMaterialService(failingMaterials{memory.NewMaterialStore()}, files)
	_, err := svc.PublishMaterial(context.Background(), faculty, domain.MaterialDraft{
		Title:   "Routing notes",
		Subject: "Networks",
	}, &app.Upload{Filename: "notes.pdf", Body: strings.NewReader("x")})

	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(files.deleted) != 1 || files.deleted[0] != files.key {
		t.Fatalf("expected uploaded file %q removed, deleted %v", files.key, files.deleted)
	}
}

func TestPublishMaterialRules(t *testing.T) {
	ctx := context.Background()
	svc := app.NewMaterialService(memory.NewMaterialStore(), &recordingFiles{})

	if _, err := svc.PublishMaterial(ctx, student, domain.MaterialDraft{Title: "x", Subject: "y"}, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	var vErr *domain.ValidationError
	if _, err := svc.PublishMaterial(ctx, faculty, domain.MaterialDraft{Title: "x"}, nil); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	material, err := svc.PublishMaterial(ctx, faculty, domain.MaterialDraft{Title: "Slides", Subject: "OS", ExternalLink: "https://example.test/os"}, nil)
	if err != nil {
		t.Fatalf("publish link: %v", err)
	}
	if err := svc.DeleteMaterial(ctx, grader, material.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-uploader, got %v", err)
	}
	if err := svc.DeleteMaterial(ctx, faculty, material.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteMaterial(ctx, faculty, material.ID); !errors.Is(err, domain.ErrMaterialNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewsVisibility(t *testing.T) {
	ctx := context.Background()
	svc := app.NewMaterialService(memory.NewMaterialStore(), &recordingFiles{})

	if _, err := svc.PostNews(ctx, student, domain.NewsDraft{Title: "a", Content: "b"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.PostNews(ctx, hod, domain.NewsDraft{Title: "Exams", Content: "Timetable out", IsPublic: true}); err != nil {
		t.Fatalf("post public: %v", err)
	}
	if _, err := svc.PostNews(ctx, hod, domain.NewsDraft{Title: "Staff", Content: "Meeting"}); err != nil {
		t.Fatalf("post internal: %v", err)
	}

	staffNews, _ := svc.ListNews(ctx, faculty)
	studentNews, _ := svc.ListNews(ctx, student)
	if len(staffNews) != 2 || len(studentNews) != 1 {
		t.Fatalf("expected 2 staff and 1 student items, got %d and %d", len(staffNews), len(studentNews))
	}
}
