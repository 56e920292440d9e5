package bundb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus-exam-service/internal/domain"
	"github.com/uptrace/bun"
)

// MaterialStore persists study materials and news.
type MaterialStore struct {
	db *bun.DB
}

func NewMaterialStore(db *bun.DB) *MaterialStore {
	return &MaterialStore{db: db}
}

func (s *MaterialStore) CreateMaterial(ctx context.Context, m domain.StudyMaterial) error {
	if _, err := s.db.NewInsert().Model(newMaterialModel(m)).Exec(ctx); err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

func (s *MaterialStore) GetMaterial(ctx context.Context, id string) (domain.StudyMaterial, error) {
	m := new(materialModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StudyMaterial{}, domain.ErrMaterialNotFound
	}
	if err != nil {
		return domain.StudyMaterial{}, fmt.Errorf("load material: %w", err)
	}
	return m.toDomain(), nil
}

func (s *MaterialStore) ListMaterials(ctx context.Context) ([]domain.StudyMaterial, error) {
	var models []materialModel
	if err := s.db.NewSelect().Model(&models).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out := make([]domain.StudyMaterial, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}

func (s *MaterialStore) DeleteMaterial(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*materialModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrMaterialNotFound
	}
	return nil
}

func (s *MaterialStore) CreateNews(ctx context.Context, n domain.News) error {
	if _, err := s.db.NewInsert().Model(newNewsModel(n)).Exec(ctx); err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	return nil
}

func (s *MaterialStore) ListNews(ctx context.Context, publicOnly bool) ([]domain.News, error) {
	var models []newsModel
	q := s.db.NewSelect().Model(&models).Order("created_at DESC")
	if publicOnly {
		q = q.Where("is_public = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	out := make([]domain.News, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}
