package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-exam-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads quizzes with their questions and graders straight from
// Postgres through a pgx pool. It backs the quiz cache on the attempt path.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID, GraderIDs: []string{}}
	err := l.pool.QueryRow(ctx, `
		SELECT title, description, duration_minutes, passing_score, creator_id, created_at
		FROM quizzes WHERE id = $1`, quizID).
		Scan(&quiz.Title, &quiz.Description, &quiz.DurationMinutes, &quiz.PassingScore, &quiz.CreatorID, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.CreatedAt = quiz.CreatedAt.UTC()

	if quiz.Questions, err = l.loadQuestions(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	quiz.QuestionCount = len(quiz.Questions)

	rows, err := l.pool.Query(ctx, `SELECT user_id FROM quiz_graders WHERE quiz_id = $1 ORDER BY user_id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load graders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan grader: %w", err)
		}
		quiz.GraderIDs = append(quiz.GraderIDs, id)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load graders: %w", err)
	}
	return quiz, nil
}

func (l *QuizLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, prompt, option_1, option_2, option_3, option_4, correct_option, marks
		FROM questions WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		q := domain.Question{QuizID: quizID}
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.CorrectOption, &q.Marks); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
