package memory

import (
	"context"
	"sort"
	"sync"

	"campus-exam-service/internal/domain"
)

// CatalogStore keeps quiz definitions in process memory. When a Ledger is
// attached, deleting a quiz also drops its results.
type CatalogStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	ledger  *ResultLedger
}

func NewCatalogStore(ledger *ResultLedger) *CatalogStore {
	return &CatalogStore{
		quizzes: make(map[string]domain.Quiz),
		ledger:  ledger,
	}
}

func (s *CatalogStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *CatalogStore) ReplaceQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *CatalogStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	if s.ledger != nil {
		s.ledger.deleteQuiz(quizID)
	}
	return nil
}

func (s *CatalogStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		summary := cloneQuiz(quiz)
		summary.QuestionCount = len(quiz.Questions)
		summary.Questions = nil
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CatalogStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	out := q
	out.GraderIDs = append([]string(nil), q.GraderIDs...)
	out.Questions = append([]domain.Question(nil), q.Questions...)
	out.QuestionCount = len(q.Questions)
	return out
}
