package domain

import (
	"errors"
	"testing"
)

func validDraft() QuizDraft {
	return QuizDraft{
		Title:           " Algorithms ",
		DurationMinutes: 45,
		Questions: []QuestionDraft{
			{Prompt: " Big-O of binary search? ", Options: [OptionCount]string{"n", "log n", "1", "n log n"}, CorrectOption: 2},
		},
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	d := validDraft().Normalize()
	if d.Title != "Algorithms" || d.Questions[0].Prompt != "Big-O of binary search?" {
		t.Fatalf("expected trimmed text, got %+v", d)
	}
	if d.Questions[0].Marks != 1 {
		t.Fatalf("expected default marks 1, got %d", d.Questions[0].Marks)
	}
	if d.Passing() != DefaultPassingScore {
		t.Fatalf("expected default passing score, got %d", d.Passing())
	}

	zero := 0
	explicit := validDraft()
	explicit.PassingScore = &zero
	if got := explicit.Normalize().Passing(); got != 0 {
		t.Fatalf("explicit zero threshold must survive, got %d", got)
	}
}

func TestValidateFields(t *testing.T) {
	cases := map[string]func(*QuizDraft){
		"title":                      func(d *QuizDraft) { d.Title = "" },
		"durationMinutes":            func(d *QuizDraft) { d.DurationMinutes = 0 },
		"passingScore":               func(d *QuizDraft) { v := 101; d.PassingScore = &v },
		"questions":                  func(d *QuizDraft) { d.Questions = nil },
		"questions[0].prompt":        func(d *QuizDraft) { d.Questions[0].Prompt = "" },
		"questions[0].options[3]":    func(d *QuizDraft) { d.Questions[0].Options[3] = "" },
		"questions[0].correctOption": func(d *QuizDraft) { d.Questions[0].CorrectOption = 0 },
		"questions[0].marks":         func(d *QuizDraft) { d.Questions[0].Marks = -2 },
	}
	for field, mutate := range cases {
		d := validDraft().Normalize()
		mutate(&d)
		var vErr *ValidationError
		if err := d.Validate(); !errors.As(err, &vErr) || vErr.Field != field {
			t.Fatalf("%s: expected validation error on field, got %v", field, err)
		}
	}
	if err := validDraft().Normalize().Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestParseRoleAndReason(t *testing.T) {
	if r, err := ParseRole(" faculty "); err != nil || r != RoleFaculty {
		t.Fatalf("expected faculty, got %q %v", r, err)
	}
	if _, err := ParseRole("admin"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
	if r, err := ParseSubmissionReason(""); err != nil || r != ReasonManual {
		t.Fatalf("empty reason should be manual, got %q %v", r, err)
	}
	if _, err := ParseSubmissionReason("bored"); err == nil {
		t.Fatalf("expected unknown reason to fail")
	}
}
