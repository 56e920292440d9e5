package app

import "campus-exam-service/internal/domain"

// Evaluate scores a submission against the quiz's questions.
// A question contributes its marks to the total whether or not it was
// answered; only an exact option match earns them. A quiz with no marks
// at all scores 0 and never passes.
func Evaluate(quiz domain.Quiz, submission domain.Submission) domain.Evaluation {
	var eval domain.Evaluation
	for _, question := range quiz.Questions {
		eval.Total += question.Marks
		selected, ok := submission.Selections[question.ID]
		if !ok || selected == 0 {
			continue
		}
		if selected == question.CorrectOption {
			eval.Earned += question.Marks
			eval.Correct++
		}
	}

	if eval.Total == 0 {
		return eval
	}
	eval.Score = float64(eval.Earned) / float64(eval.Total) * 100
	eval.Passed = eval.Score >= float64(quiz.PassingScore)
	return eval
}
