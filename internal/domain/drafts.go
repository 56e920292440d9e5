package domain

import (
	"fmt"
	"strings"
)

// QuestionDraft is one structured question supplied by the caller.
type QuestionDraft struct {
	Prompt        string              `json:"prompt"`
	Options       [OptionCount]string `json:"options"`
	CorrectOption int                 `json:"correctOption"`
	Marks         int                 `json:"marks"`
}

// QuizDraft is the input for creating or replacing a quiz.
type QuizDraft struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"durationMinutes"`
	// PassingScore defaults to DefaultPassingScore when omitted.
	PassingScore    *int            `json:"passingScore"`
	GraderIDs       []string        `json:"graderIds"`
	Questions       []QuestionDraft `json:"questions"`
}

// Normalize trims text and applies the defaults: one mark per question and
// the portal passing threshold.
func (d QuizDraft) Normalize() QuizDraft {
	out := d
	if out.PassingScore == nil {
		passing := DefaultPassingScore
		out.PassingScore = &passing
	}
	out.Title = strings.TrimSpace(d.Title)
	out.Description = strings.TrimSpace(d.Description)
	out.Questions = make([]QuestionDraft, len(d.Questions))
	for i, q := range d.Questions {
		q.Prompt = strings.TrimSpace(q.Prompt)
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
		if q.Marks == 0 {
			q.Marks = 1
		}
		out.Questions[i] = q
	}
	return out
}

// Passing returns the threshold, falling back to DefaultPassingScore.
func (d QuizDraft) Passing() int {
	if d.PassingScore == nil {
		return DefaultPassingScore
	}
	return *d.PassingScore
}

// Validate rejects structurally broken quizzes before they are stored.
func (d QuizDraft) Validate() error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if d.DurationMinutes < 1 {
		return &ValidationError{Field: "durationMinutes", Reason: "must be at least 1"}
	}
	if d.PassingScore != nil && (*d.PassingScore < 0 || *d.PassingScore > 100) {
		return &ValidationError{Field: "passingScore", Reason: "must be between 0 and 100"}
	}
	if len(d.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "at least one question is required"}
	}
	for i, q := range d.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if q.Prompt == "" {
			return &ValidationError{Field: field + ".prompt", Reason: "required"}
		}
		for j, opt := range q.Options {
			if opt == "" {
				return &ValidationError{Field: fmt.Sprintf("%s.options[%d]", field, j), Reason: "required"}
			}
		}
		if q.CorrectOption < 1 || q.CorrectOption > OptionCount {
			return &ValidationError{Field: field + ".correctOption", Reason: "must be between 1 and 4"}
		}
		if q.Marks < 1 {
			return &ValidationError{Field: field + ".marks", Reason: "must be positive"}
		}
	}
	return nil
}

// MaterialDraft is the metadata of a study material upload.
type MaterialDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Subject      string `json:"subject"`
	ExternalLink string `json:"externalLink"`
}

func (d MaterialDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(d.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "required"}
	}
	return nil
}

// NewsDraft is the input for an announcement.
type NewsDraft struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

func (d NewsDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(d.Content) == "" {
		return &ValidationError{Field: "content", Reason: "required"}
	}
	return nil
}
