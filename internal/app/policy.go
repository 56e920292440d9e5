package app

import "campus-exam-service/internal/domain"

// CanCreateQuiz is true for every staff role.
func CanCreateQuiz(role domain.Role) bool {
	switch role {
	case domain.RoleHeadOfDepartment, domain.RoleFaculty:
		return true
	case domain.RoleStudent:
		return false
	}
	return false
}

// CanModifyQuiz covers both editing and deleting.
func CanModifyQuiz(actor domain.Actor, quiz domain.Quiz) bool {
	switch actor.Role {
	case domain.RoleHeadOfDepartment:
		return true
	case domain.RoleFaculty, domain.RoleStudent:
		return actor.ID != "" && actor.ID == quiz.CreatorID
	}
	return false
}

// CanAttempt allows a single attempt per student. existing is the student's
// prior result for the quiz, if any.
func CanAttempt(actor domain.Actor, _ domain.Quiz, existing *domain.Result) bool {
	switch actor.Role {
	case domain.RoleStudent:
		return existing == nil
	case domain.RoleHeadOfDepartment, domain.RoleFaculty:
		return false
	}
	return false
}

// CanSeeQuiz hides quizzes without assigned graders from students.
func CanSeeQuiz(actor domain.Actor, quiz domain.Quiz) bool {
	switch actor.Role {
	case domain.RoleHeadOfDepartment, domain.RoleFaculty:
		return true
	case domain.RoleStudent:
		return len(quiz.GraderIDs) > 0
	}
	return false
}

// CanViewResults gates the standings and live feed of a quiz.
func CanViewResults(actor domain.Actor, quiz domain.Quiz) bool {
	switch actor.Role {
	case domain.RoleHeadOfDepartment:
		return true
	case domain.RoleFaculty:
		return actor.ID == quiz.CreatorID || quiz.HasGrader(actor.ID)
	case domain.RoleStudent:
		return false
	}
	return false
}

// CanViewResult restricts a single result to its owner.
func CanViewResult(actor domain.Actor, result domain.Result) bool {
	if !actor.Role.Valid() {
		return false
	}
	return actor.ID != "" && actor.ID == result.UserID
}

// CanPublishMaterial gates uploads of study materials.
func CanPublishMaterial(role domain.Role) bool {
	return CanCreateQuiz(role)
}

// CanPublishNews gates announcements.
func CanPublishNews(role domain.Role) bool {
	return CanCreateQuiz(role)
}

// CanModifyMaterial is reserved to the uploader.
func CanModifyMaterial(actor domain.Actor, material domain.StudyMaterial) bool {
	if !actor.Role.Valid() {
		return false
	}
	return actor.ID != "" && actor.ID == material.UploadedBy
}

func deny(actor domain.Actor, action string) error {
	return &domain.AuthorizationError{Action: action, Role: actor.Role}
}
