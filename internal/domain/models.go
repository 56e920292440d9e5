package domain

import (
	"encoding/json"
	"time"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// DefaultPassingScore mirrors the portal's historical default threshold.
const DefaultPassingScore = 40

// Quiz is a gradable set of questions owned by its creator.
type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes"`
	PassingScore    int        `json:"passingScore"`
	CreatorID       string     `json:"creatorId"`
	GraderIDs       []string   `json:"graderIds"`
	CreatedAt       time.Time  `json:"createdAt"`
	Questions       []Question `json:"questions,omitempty"`
	QuestionCount   int        `json:"questionCount"`
}

// TotalMarks sums the marks of every question.
func (q Quiz) TotalMarks() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Marks
	}
	return total
}

// HasGrader reports whether userID is one of the assigned graders.
func (q Quiz) HasGrader(userID string) bool {
	for _, id := range q.GraderIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// WithoutAnswers returns a copy safe to show to students.
func (q Quiz) WithoutAnswers() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectOption = 0
		out.Questions[i] = question
	}
	return out
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string              `json:"id"`
	QuizID        string              `json:"quizId"`
	Prompt        string              `json:"prompt"`
	Options       [OptionCount]string `json:"options"`
	CorrectOption int                 `json:"correctOption,omitempty"` // 1..4, zero when hidden
	Marks         int                 `json:"marks"`
}

// SubmissionReason tags how an attempt was handed in.
type SubmissionReason string

const (
	ReasonManual             SubmissionReason = "manual"
	ReasonTimeUp             SubmissionReason = "time_up"
	ReasonTabSwitchViolation SubmissionReason = "tab_switch_violation"
)

// ParseSubmissionReason maps a wire value onto a known reason; empty means manual.
func ParseSubmissionReason(raw string) (SubmissionReason, error) {
	switch SubmissionReason(raw) {
	case "", ReasonManual:
		return ReasonManual, nil
	case ReasonTimeUp:
		return ReasonTimeUp, nil
	case ReasonTabSwitchViolation:
		return ReasonTabSwitchViolation, nil
	}
	return "", &ValidationError{Field: "reason", Reason: "unknown submission reason " + raw}
}

// Submission is one user's answer set for one attempt. It is never persisted.
// Selections maps question ID to the chosen option; 0 means unanswered.
type Submission struct {
	Selections   map[string]int
	Reason       SubmissionReason
	SecurityData json.RawMessage
}

// Evaluation is the scored outcome of a submission.
type Evaluation struct {
	Score   float64 `json:"score"`
	Passed  bool    `json:"passed"`
	Earned  int     `json:"earned"`
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
}

// Result is the persisted, immutable outcome of one user's attempt at one quiz.
type Result struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	QuizID       string           `json:"quizId"`
	Score        float64          `json:"score"`
	Passed       bool             `json:"passed"`
	Reason       SubmissionReason `json:"reason"`
	SecurityData json.RawMessage  `json:"securityData,omitempty"`
	CompletedAt  time.Time        `json:"completedAt"`
}

// ResultEvent is what the live feed pushes to subscribed staff.
type ResultEvent struct {
	ResultID    string           `json:"resultId"`
	QuizID      string           `json:"quizId"`
	UserID      string           `json:"userId"`
	Score       float64          `json:"score"`
	Passed      bool             `json:"passed"`
	Reason      SubmissionReason `json:"reason"`
	CompletedAt time.Time        `json:"completedAt"`
}

// EventFromResult builds the feed event for a stored result.
func EventFromResult(r Result) ResultEvent {
	return ResultEvent{
		ResultID:    r.ID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Score:       r.Score,
		Passed:      r.Passed,
		Reason:      r.Reason,
		CompletedAt: r.CompletedAt,
	}
}

// StudyMaterial is a document or link shared by staff.
type StudyMaterial struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Subject      string    `json:"subject"`
	FileURL      string    `json:"fileUrl,omitempty"`
	ExternalLink string    `json:"externalLink,omitempty"`
	UploadedBy   string    `json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// News is an announcement.
type News struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}
