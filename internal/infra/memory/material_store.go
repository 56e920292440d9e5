package memory

import (
	"context"
	"sort"
	"sync"

	"campus-exam-service/internal/domain"
)

// MaterialStore keeps study materials and news in process memory.
type MaterialStore struct {
	mu        sync.RWMutex
	materials map[string]domain.StudyMaterial
	news      []domain.News
}

func NewMaterialStore() *MaterialStore {
	return &MaterialStore{materials: make(map[string]domain.StudyMaterial)}
}

func (s *MaterialStore) CreateMaterial(_ context.Context, m domain.StudyMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
	return nil
}

func (s *MaterialStore) GetMaterial(_ context.Context, id string) (domain.StudyMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return domain.StudyMaterial{}, domain.ErrMaterialNotFound
	}
	return m, nil
}

func (s *MaterialStore) ListMaterials(_ context.Context) ([]domain.StudyMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StudyMaterial, 0, len(s.materials))
	for _, m := range s.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MaterialStore) DeleteMaterial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return domain.ErrMaterialNotFound
	}
	delete(s.materials, id)
	return nil
}

func (s *MaterialStore) CreateNews(_ context.Context, n domain.News) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news = append(s.news, n)
	return nil
}

func (s *MaterialStore) ListNews(_ context.Context, publicOnly bool) ([]domain.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.News, 0, len(s.news))
	for _, n := range s.news {
		if publicOnly && !n.IsPublic {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
