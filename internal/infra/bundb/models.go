package bundb

import (
	"encoding/json"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID              string    `bun:"id,pk"`
	Title           string    `bun:"title"`
	Description     string    `bun:"description"`
	DurationMinutes int       `bun:"duration_minutes"`
	PassingScore    int       `bun:"passing_score"`
	CreatorID       string    `bun:"creator_id"`
	CreatedAt       time.Time `bun:"created_at"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            string `bun:"id,pk"`
	QuizID        string `bun:"quiz_id"`
	Position      int    `bun:"position"`
	Prompt        string `bun:"prompt"`
	Option1       string `bun:"option_1"`
	Option2       string `bun:"option_2"`
	Option3       string `bun:"option_3"`
	Option4       string `bun:"option_4"`
	CorrectOption int    `bun:"correct_option"`
	Marks         int    `bun:"marks"`
}

type graderModel struct {
	bun.BaseModel `bun:"table:quiz_graders,alias:g"`

	QuizID string `bun:"quiz_id,pk"`
	UserID string `bun:"user_id,pk"`
}

type resultModel struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id"`
	QuizID       string    `bun:"quiz_id"`
	Score        float64   `bun:"score"`
	Passed       bool      `bun:"passed"`
	Reason       string    `bun:"reason"`
	SecurityData string    `bun:"security_data"`
	CompletedAt  time.Time `bun:"completed_at"`
}

type materialModel struct {
	bun.BaseModel `bun:"table:study_materials,alias:m"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title"`
	Description  string    `bun:"description"`
	Subject      string    `bun:"subject"`
	FileURL      string    `bun:"file_url"`
	ExternalLink string    `bun:"external_link"`
	UploadedBy   string    `bun:"uploaded_by"`
	CreatedAt    time.Time `bun:"created_at"`
}

type newsModel struct {
	bun.BaseModel `bun:"table:news,alias:n"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	Content   string    `bun:"content"`
	CreatedBy string    `bun:"created_by"`
	IsPublic  bool      `bun:"is_public"`
	CreatedAt time.Time `bun:"created_at"`
}

func newQuizModel(q domain.Quiz) *quizModel {
	return &quizModel{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		DurationMinutes: q.DurationMinutes,
		PassingScore:    q.PassingScore,
		CreatorID:       q.CreatorID,
		CreatedAt:       q.CreatedAt.UTC(),
	}
}

func (m *quizModel) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		DurationMinutes: m.DurationMinutes,
		PassingScore:    m.PassingScore,
		CreatorID:       m.CreatorID,
		GraderIDs:       []string{},
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

func newQuestionModels(q domain.Quiz) []questionModel {
	out := make([]questionModel, 0, len(q.Questions))
	for i, question := range q.Questions {
		out = append(out, questionModel{
			ID:            question.ID,
			QuizID:        q.ID,
			Position:      i,
			Prompt:        question.Prompt,
			Option1:       question.Options[0],
			Option2:       question.Options[1],
			Option3:       question.Options[2],
			Option4:       question.Options[3],
			CorrectOption: question.CorrectOption,
			Marks:         question.Marks,
		})
	}
	return out
}

func (m *questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:            m.ID,
		QuizID:        m.QuizID,
		Prompt:        m.Prompt,
		Options:       [domain.OptionCount]string{m.Option1, m.Option2, m.Option3, m.Option4},
		CorrectOption: m.CorrectOption,
		Marks:         m.Marks,
	}
}

func newGraderModels(q domain.Quiz) []graderModel {
	out := make([]graderModel, 0, len(q.GraderIDs))
	for _, id := range q.GraderIDs {
		out = append(out, graderModel{QuizID: q.ID, UserID: id})
	}
	return out
}

func newResultModel(r domain.Result) *resultModel {
	return &resultModel{
		ID:           r.ID,
		UserID:       r.UserID,
		QuizID:       r.QuizID,
		Score:        r.Score,
		Passed:       r.Passed,
		Reason:       string(r.Reason),
		SecurityData: string(r.SecurityData),
		CompletedAt:  r.CompletedAt,
	}
}

func (m *resultModel) toDomain() domain.Result {
	r := domain.Result{
		ID:          m.ID,
		UserID:      m.UserID,
		QuizID:      m.QuizID,
		Score:       m.Score,
		Passed:      m.Passed,
		Reason:      domain.SubmissionReason(m.Reason),
		CompletedAt: m.CompletedAt.UTC(),
	}
	if m.SecurityData != "" {
		r.SecurityData = json.RawMessage(m.SecurityData)
	}
	return r
}

func newMaterialModel(s domain.StudyMaterial) *materialModel {
	return &materialModel{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Subject:      s.Subject,
		FileURL:      s.FileURL,
		ExternalLink: s.ExternalLink,
		UploadedBy:   s.UploadedBy,
		CreatedAt:    s.CreatedAt.UTC(),
	}
}

func (m *materialModel) toDomain() domain.StudyMaterial {
	return domain.StudyMaterial{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Subject:      m.Subject,
		FileURL:      m.FileURL,
		ExternalLink: m.ExternalLink,
		UploadedBy:   m.UploadedBy,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func newNewsModel(n domain.News) *newsModel {
	return &newsModel{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedBy: n.CreatedBy,
		IsPublic:  n.IsPublic,
		CreatedAt: n.CreatedAt.UTC(),
	}
}

func (m *newsModel) toDomain() domain.News {
	return domain.News{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedBy: m.CreatedBy,
		IsPublic:  m.IsPublic,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
