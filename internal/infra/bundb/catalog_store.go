package bundb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus-exam-service/internal/domain"
	"github.com/uptrace/bun"
)

// CatalogStore persists quizzes, their questions and grader assignments.
type CatalogStore struct {
	db *bun.DB
}

func NewCatalogStore(db *bun.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newQuizModel(quiz)).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		return insertChildren(ctx, tx, quiz)
	})
}

func (s *CatalogStore) ReplaceQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(newQuizModel(quiz)).
			Column("title", "description", "duration_minutes", "passing_score").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update quiz: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrQuizNotFound
		}
		if err := deleteChildren(ctx, tx, quiz.ID); err != nil {
			return err
		}
		return insertChildren(ctx, tx, quiz)
	})
}

// DeleteQuiz removes dependents explicitly so sqlite without foreign key
// enforcement behaves like postgres.
func (s *CatalogStore) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*resultModel)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
			return fmt.Errorf("delete results: %w", err)
		}
		if err := deleteChildren(ctx, tx, quizID); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*quizModel)(nil)).Where("id = ?", quizID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrQuizNotFound
		}
		return nil
	})
}

func (s *CatalogStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var models []quizModel
	if err := s.db.NewSelect().Model(&models).Order("created_at DESC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(models) == 0 {
		return []domain.Quiz{}, nil
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}

	var counts []struct {
		QuizID string `bun:"quiz_id"`
		Count  int    `bun:"question_count"`
	}
	if err := s.db.NewSelect().
		Model((*questionModel)(nil)).
		Column("quiz_id").
		ColumnExpr("COUNT(*) AS question_count").
		Where("quiz_id IN (?)", bun.In(ids)).
		Group("quiz_id").
		Scan(ctx, &counts); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	countByQuiz := make(map[string]int, len(counts))
	for _, c := range counts {
		countByQuiz[c.QuizID] = c.Count
	}

	var graders []graderModel
	if err := s.db.NewSelect().
		Model(&graders).
		Where("quiz_id IN (?)", bun.In(ids)).
		Order("user_id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list graders: %w", err)
	}
	gradersByQuiz := make(map[string][]string)
	for _, g := range graders {
		gradersByQuiz[g.QuizID] = append(gradersByQuiz[g.QuizID], g.UserID)
	}

	out := make([]domain.Quiz, 0, len(models))
	for i := range models {
		quiz := models[i].toDomain()
		quiz.QuestionCount = countByQuiz[quiz.ID]
		if graderIDs, ok := gradersByQuiz[quiz.ID]; ok {
			quiz.GraderIDs = graderIDs
		}
		out = append(out, quiz)
	}
	return out, nil
}

func (s *CatalogStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	m := new(quizModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz := m.toDomain()

	var questions []questionModel
	if err := s.db.NewSelect().
		Model(&questions).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Scan(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	quiz.Questions = make([]domain.Question, 0, len(questions))
	for i := range questions {
		quiz.Questions = append(quiz.Questions, questions[i].toDomain())
	}
	quiz.QuestionCount = len(quiz.Questions)

	var graders []graderModel
	if err := s.db.NewSelect().
		Model(&graders).
		Where("quiz_id = ?", quizID).
		Order("user_id ASC").
		Scan(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("load graders: %w", err)
	}
	for _, g := range graders {
		quiz.GraderIDs = append(quiz.GraderIDs, g.UserID)
	}
	return quiz, nil
}

func insertChildren(ctx context.Context, db bun.IDB, quiz domain.Quiz) error {
	if questions := newQuestionModels(quiz); len(questions) > 0 {
		if _, err := db.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
	}
	if graders := newGraderModels(quiz); len(graders) > 0 {
		if _, err := db.NewInsert().Model(&graders).Exec(ctx); err != nil {
			return fmt.Errorf("insert graders: %w", err)
		}
	}
	return nil
}

func deleteChildren(ctx context.Context, db bun.IDB, quizID string) error {
	if _, err := db.NewDelete().Model((*questionModel)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	if _, err := db.NewDelete().Model((*graderModel)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
		return fmt.Errorf("delete graders: %w", err)
	}
	return nil
}
