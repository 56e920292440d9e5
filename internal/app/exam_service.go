package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/google/uuid"
)

// QuizRepository loads quiz content through a cache in front of the catalog.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// CatalogStore persists quiz definitions.
type CatalogStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	// ReplaceQuiz overwrites quiz fields, graders and the full question list.
	ReplaceQuiz(ctx context.Context, quiz domain.Quiz) error
	// DeleteQuiz removes the quiz with its questions, graders and results.
	DeleteQuiz(ctx context.Context, quizID string) error
	// ListQuizzes returns quizzes newest first, without questions.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultLedger records at most one result per (user, quiz).
type ResultLedger interface {
	// Record stores result or returns *domain.DuplicateAttemptError.
	Record(ctx context.Context, result domain.Result) (domain.Result, error)
	FindByUserAndQuiz(ctx context.Context, userID, quizID string) (domain.Result, error)
	GetResult(ctx context.Context, resultID string) (domain.Result, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Result, error)
}

// ResultPublisher announces newly recorded results.
type ResultPublisher interface {
	Publish(ctx context.Context, event domain.ResultEvent) error
}

// QuizView is a quiz as seen by one actor.
type QuizView struct {
	Quiz     domain.Quiz    `json:"quiz"`
	MyResult *domain.Result `json:"myResult,omitempty"`
}

// ExamService contains the quiz catalog and attempt use cases.
type ExamService struct {
	catalog   CatalogStore
	quizzes   QuizRepository
	ledger    ResultLedger
	publisher ResultPublisher
	feeds     *Broadcaster
	now       func() time.Time
}

func NewExamService(catalog CatalogStore, quizzes QuizRepository, ledger ResultLedger, publisher ResultPublisher, feeds *Broadcaster) *ExamService {
	return &ExamService{
		catalog:   catalog,
		quizzes:   quizzes,
		ledger:    ledger,
		publisher: publisher,
		feeds:     feeds,
		now:       time.Now,
	}
}

// CreateQuiz validates the draft and stores a new quiz owned by actor.
func (s *ExamService) CreateQuiz(ctx context.Context, actor domain.Actor, draft domain.QuizDraft) (domain.Quiz, error) {
	if !CanCreateQuiz(actor.Role) {
		return domain.Quiz{}, deny(actor, "create quizzes")
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	quiz := buildQuiz(uuid.NewString(), actor.ID, s.now().UTC(), draft)
	if err := s.catalog.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// UpdateQuiz replaces the quiz fields and its whole question list.
func (s *ExamService) UpdateQuiz(ctx context.Context, actor domain.Actor, quizID string, draft domain.QuizDraft) (domain.Quiz, error) {
	existing, err := s.catalog.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !CanModifyQuiz(actor, existing) {
		return domain.Quiz{}, deny(actor, "edit this quiz")
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	quiz := buildQuiz(existing.ID, existing.CreatorID, existing.CreatedAt, draft)
	if err := s.catalog.ReplaceQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz together with its questions and results.
func (s *ExamService) DeleteQuiz(ctx context.Context, actor domain.Actor, quizID string) error {
	existing, err := s.catalog.LoadQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if !CanModifyQuiz(actor, existing) {
		return deny(actor, "delete this quiz")
	}
	if err := s.catalog.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.feeds.Close(quizID)
	return s.quizzes.Invalidate(ctx, quizID)
}

// GetQuiz returns the quiz for display. Students get no answer keys and
// see their own result, if any.
func (s *ExamService) GetQuiz(ctx context.Context, actor domain.Actor, quizID string) (QuizView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizView{}, err
	}
	if !CanSeeQuiz(actor, quiz) {
		return QuizView{}, deny(actor, "view this quiz")
	}
	if actor.Role != domain.RoleStudent {
		return QuizView{Quiz: quiz}, nil
	}

	view := QuizView{Quiz: quiz.WithoutAnswers()}
	existing, err := s.findExisting(ctx, actor.ID, quizID)
	if err != nil {
		return QuizView{}, err
	}
	view.MyResult = existing
	return view, nil
}

// ListQuizzes lists the quizzes visible to actor.
func (s *ExamService) ListQuizzes(ctx context.Context, actor domain.Actor) ([]QuizView, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	var own map[string]domain.Result
	if actor.Role == domain.RoleStudent {
		results, err := s.ledger.ListByUser(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		own = make(map[string]domain.Result, len(results))
		for _, r := range results {
			own[r.QuizID] = r
		}
	}

	views := make([]QuizView, 0, len(quizzes))
	for _, quiz := range quizzes {
		if !CanSeeQuiz(actor, quiz) {
			continue
		}
		view := QuizView{Quiz: quiz}
		if r, ok := own[quiz.ID]; ok {
			r := r
			view.MyResult = &r
		}
		views = append(views, view)
	}
	return views, nil
}

// SubmitAttempt scores a submission and records the result. A student who
// already has a result gets *domain.DuplicateAttemptError pointing at it.
func (s *ExamService) SubmitAttempt(ctx context.Context, actor domain.Actor, quizID string, submission domain.Submission) (domain.Result, domain.Evaluation, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Result{}, domain.Evaluation{}, err
	}

	var existing *domain.Result
	if actor.Role == domain.RoleStudent {
		existing, err = s.findExisting(ctx, actor.ID, quizID)
		if err != nil {
			return domain.Result{}, domain.Evaluation{}, err
		}
	}
	if !CanAttempt(actor, quiz, existing) {
		if existing != nil {
			return domain.Result{}, domain.Evaluation{}, &domain.DuplicateAttemptError{ResultID: existing.ID}
		}
		return domain.Result{}, domain.Evaluation{}, deny(actor, "attempt quizzes")
	}
	if len(quiz.Questions) == 0 {
		return domain.Result{}, domain.Evaluation{}, &domain.ValidationError{Field: "quiz", Reason: "quiz has no questions"}
	}
	if submission.Reason == "" {
		submission.Reason = domain.ReasonManual
	}

	eval := Evaluate(quiz, submission)
	result, err := s.ledger.Record(ctx, domain.Result{
		UserID:       actor.ID,
		QuizID:       quiz.ID,
		Score:        eval.Score,
		Passed:       eval.Passed,
		Reason:       submission.Reason,
		SecurityData: submission.SecurityData,
	})
	if err != nil {
		return domain.Result{}, domain.Evaluation{}, err
	}

	// the result is already durable; a lost feed event is not an attempt failure
	_ = s.publisher.Publish(ctx, domain.EventFromResult(result))
	return result, eval, nil
}

// GetResult returns a result to its owner.
func (s *ExamService) GetResult(ctx context.Context, actor domain.Actor, resultID string) (domain.Result, error) {
	result, err := s.ledger.GetResult(ctx, resultID)
	if err != nil {
		return domain.Result{}, err
	}
	if !CanViewResult(actor, result) {
		return domain.Result{}, deny(actor, "view this result")
	}
	return result, nil
}

// ListResults returns the standings of a quiz: score desc, then earliest
// completion, then user ID.
func (s *ExamService) ListResults(ctx context.Context, actor domain.Actor, quizID string) ([]domain.Result, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !CanViewResults(actor, quiz) {
		return nil, deny(actor, "view results of this quiz")
	}
	results, err := s.ledger.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	sortStandings(results)
	return results, nil
}

// SubscribeResults streams results recorded after the call.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ExamService) SubscribeResults(ctx context.Context, actor domain.Actor, quizID string) (<-chan domain.ResultEvent, func(), error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if !CanViewResults(actor, quiz) {
		return nil, nil, deny(actor, "watch results of this quiz")
	}
	ch, cancel := s.feeds.Subscribe(quizID)
	return ch, cancel, nil
}

func (s *ExamService) findExisting(ctx context.Context, userID, quizID string) (*domain.Result, error) {
	r, err := s.ledger.FindByUserAndQuiz(ctx, userID, quizID)
	if errors.Is(err, domain.ErrResultNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func buildQuiz(id, creatorID string, createdAt time.Time, draft domain.QuizDraft) domain.Quiz {
	quiz := domain.Quiz{
		ID:              id,
		Title:           draft.Title,
		Description:     draft.Description,
		DurationMinutes: draft.DurationMinutes,
		PassingScore:    draft.Passing(),
		CreatorID:       creatorID,
		GraderIDs:       dedupe(draft.GraderIDs),
		CreatedAt:       createdAt,
		Questions:       make([]domain.Question, 0, len(draft.Questions)),
		QuestionCount:   len(draft.Questions),
	}
	for _, q := range draft.Questions {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            uuid.NewString(),
			QuizID:        id,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Marks:         q.Marks,
		})
	}
	return quiz
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortStandings(results []domain.Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CompletedAt.Equal(results[j].CompletedAt) {
			return results[i].CompletedAt.Before(results[j].CompletedAt)
		}
		return results[i].UserID < results[j].UserID
	})
}
