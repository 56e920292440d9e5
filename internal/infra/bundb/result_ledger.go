package bundb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResultLedger stores results behind the results_user_quiz_uniq index.
// The pre-check gives the common case a clean answer; the index decides
// races between concurrent submissions.
type ResultLedger struct {
	db  *bun.DB
	now func() time.Time
}

func NewResultLedger(db *bun.DB) *ResultLedger {
	return &ResultLedger{db: db, now: time.Now}
}

func (l *ResultLedger) Record(ctx context.Context, result domain.Result) (domain.Result, error) {
	existing, err := l.FindByUserAndQuiz(ctx, result.UserID, result.QuizID)
	if err == nil {
		return domain.Result{}, &domain.DuplicateAttemptError{ResultID: existing.ID}
	}
	if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.Result{}, err
	}

	result.ID = uuid.NewString()
	// postgres keeps microseconds; truncate so the returned value matches what is stored
	result.CompletedAt = l.now().UTC().Truncate(time.Microsecond)
	if _, err := l.db.NewInsert().Model(newResultModel(result)).Exec(ctx); err != nil {
		if !isUniqueViolation(err) {
			return domain.Result{}, fmt.Errorf("insert result: %w", err)
		}
		winner, findErr := l.FindByUserAndQuiz(ctx, result.UserID, result.QuizID)
		if findErr != nil {
			return domain.Result{}, fmt.Errorf("load conflicting result: %w", findErr)
		}
		return domain.Result{}, &domain.DuplicateAttemptError{ResultID: winner.ID}
	}
	return result, nil
}

func (l *ResultLedger) FindByUserAndQuiz(ctx context.Context, userID, quizID string) (domain.Result, error) {
	m := new(resultModel)
	err := l.db.NewSelect().
		Model(m).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Limit(1).
		Scan(ctx)
	return scanResult(m, err)
}

func (l *ResultLedger) GetResult(ctx context.Context, resultID string) (domain.Result, error) {
	m := new(resultModel)
	err := l.db.NewSelect().Model(m).Where("id = ?", resultID).Scan(ctx)
	return scanResult(m, err)
}

func (l *ResultLedger) ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return l.list(ctx, "quiz_id = ?", quizID)
}

func (l *ResultLedger) ListByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	return l.list(ctx, "user_id = ?", userID)
}

func (l *ResultLedger) list(ctx context.Context, where string, arg string) ([]domain.Result, error) {
	var models []resultModel
	if err := l.db.NewSelect().Model(&models).Where(where, arg).Order("completed_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}

func scanResult(m *resultModel, err error) (domain.Result, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("load result: %w", err)
	}
	return m.toDomain(), nil
}
