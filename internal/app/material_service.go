package app

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/google/uuid"
)

// FileStore is the external object storage capability.
type FileStore interface {
	// Put stores body under key and returns a URL clients can fetch it from.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MaterialStore persists study materials and news.
type MaterialStore interface {
	CreateMaterial(ctx context.Context, m domain.StudyMaterial) error
	GetMaterial(ctx context.Context, id string) (domain.StudyMaterial, error)
	ListMaterials(ctx context.Context) ([]domain.StudyMaterial, error)
	DeleteMaterial(ctx context.Context, id string) error
	CreateNews(ctx context.Context, n domain.News) error
	// ListNews returns announcements newest first.
	ListNews(ctx context.Context, publicOnly bool) ([]domain.News, error)
}

// Upload is an optional file attached to a material.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MaterialService handles study materials and announcements.
type MaterialService struct {
	store MaterialStore
	files FileStore
	now   func() time.Time
}

func NewMaterialService(store MaterialStore, files FileStore) *MaterialService {
	return &MaterialService{store: store, files: files, now: time.Now}
}

// PublishMaterial stores material metadata, uploading file first when given.
func (s *MaterialService) PublishMaterial(ctx context.Context, actor domain.Actor, draft domain.MaterialDraft, file *Upload) (domain.StudyMaterial, error) {
	if !CanPublishMaterial(actor.Role) {
		return domain.StudyMaterial{}, deny(actor, "upload study materials")
	}
	if err := draft.Validate(); err != nil {
		return domain.StudyMaterial{}, err
	}

	material := domain.StudyMaterial{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(draft.Title),
		Description:  strings.TrimSpace(draft.Description),
		Subject:      strings.TrimSpace(draft.Subject),
		ExternalLink: strings.TrimSpace(draft.ExternalLink),
		UploadedBy:   actor.ID,
		CreatedAt:    s.now().UTC(),
	}

	var key string
	if file != nil {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		key = uploadKey(actor.ID, file.Filename)
		url, err := s.files.Put(ctx, key, file.Body, contentType)
		if err != nil {
			return domain.StudyMaterial{}, &domain.StorageError{Op: "put", Err: err}
		}
		material.FileURL = url
	}

	if err := s.store.CreateMaterial(ctx, material); err != nil {
		if key != "" {
			// best effort; an orphaned upload is harmless but wasted space
			_ = s.files.Delete(ctx, key)
		}
		return domain.StudyMaterial{}, err
	}
	return material, nil
}

func (s *MaterialService) ListMaterials(ctx context.Context) ([]domain.StudyMaterial, error) {
	return s.store.ListMaterials(ctx)
}

// DeleteMaterial is allowed to the uploader only.
func (s *MaterialService) DeleteMaterial(ctx context.Context, actor domain.Actor, id string) error {
	material, err := s.store.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	if !CanModifyMaterial(actor, material) {
		return deny(actor, "delete this material")
	}
	return s.store.DeleteMaterial(ctx, id)
}

func (s *MaterialService) PostNews(ctx context.Context, actor domain.Actor, draft domain.NewsDraft) (domain.News, error) {
	if !CanPublishNews(actor.Role) {
		return domain.News{}, deny(actor, "post news")
	}
	if err := draft.Validate(); err != nil {
		return domain.News{}, err
	}
	news := domain.News{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(draft.Title),
		Content:   strings.TrimSpace(draft.Content),
		CreatedBy: actor.ID,
		IsPublic:  draft.IsPublic,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateNews(ctx, news); err != nil {
		return domain.News{}, err
	}
	return news, nil
}

// ListNews hides non-public announcements from students.
func (s *MaterialService) ListNews(ctx context.Context, actor domain.Actor) ([]domain.News, error) {
	return s.store.ListNews(ctx, !actor.Role.IsStaff())
}

// uploadKey builds uploads/<user>/<uuid>.<ext>, defaulting the extension to pdf.
func uploadKey(userID, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "pdf"
	}
	return path.Join("uploads", userID, uuid.NewString()+"."+strings.ToLower(ext))
}
