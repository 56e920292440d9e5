package memory

import (
	"context"
	"sync"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/google/uuid"
)

// ResultLedger is an in-memory app.ResultLedger. The existence check and the
// insert happen under one lock, so a (user, quiz) pair is recorded at most once.
type ResultLedger struct {
	now func() time.Time

	mu     sync.RWMutex
	byID   map[string]domain.Result
	byPair map[pairKey]string
}

type pairKey struct {
	userID string
	quizID string
}

func NewResultLedger() *ResultLedger {
	return &ResultLedger{
		now:    time.Now,
		byID:   make(map[string]domain.Result),
		byPair: make(map[pairKey]string),
	}
}

func (l *ResultLedger) Record(_ context.Context, result domain.Result) (domain.Result, error) {
	key := pairKey{userID: result.UserID, quizID: result.QuizID}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existingID, ok := l.byPair[key]; ok {
		return domain.Result{}, &domain.DuplicateAttemptError{ResultID: existingID}
	}

	result.ID = uuid.NewString()
	result.CompletedAt = l.now().UTC()
	l.byID[result.ID] = result
	l.byPair[key] = result.ID
	return result, nil
}

func (l *ResultLedger) FindByUserAndQuiz(_ context.Context, userID, quizID string) (domain.Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byPair[pairKey{userID: userID, quizID: quizID}]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return l.byID[id], nil
}

func (l *ResultLedger) GetResult(_ context.Context, resultID string) (domain.Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.byID[resultID]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return r, nil
}

func (l *ResultLedger) ListByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	return l.filter(func(r domain.Result) bool { return r.QuizID == quizID }), nil
}

func (l *ResultLedger) ListByUser(_ context.Context, userID string) ([]domain.Result, error) {
	return l.filter(func(r domain.Result) bool { return r.UserID == userID }), nil
}

func (l *ResultLedger) filter(keep func(domain.Result) bool) []domain.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range l.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// deleteQuiz is the cascade used by CatalogStore.DeleteQuiz.
func (l *ResultLedger) deleteQuiz(quizID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, r := range l.byID {
		if r.QuizID == quizID {
			delete(l.byID, id)
			delete(l.byPair, pairKey{userID: r.UserID, quizID: r.QuizID})
		}
	}
}
