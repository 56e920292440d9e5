package http

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// QuizHandler exposes the quiz catalog, attempts and results.
type QuizHandler struct {
	exams *app.ExamService
}

func NewQuizHandler(exams *app.ExamService) *QuizHandler {
	return &QuizHandler{exams: exams}
}

type attemptRequest struct {
	Answers      map[string]json.RawMessage `json:"answers"`
	Reason       string                     `json:"reason"`
	SecurityData json.RawMessage            `json:"security_data"`
}

type attemptResponse struct {
	Result     domain.Result     `json:"result"`
	Evaluation domain.Evaluation `json:"evaluation"`
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var draft domain.QuizDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid quiz payload")
		return
	}
	quiz, err := h.exams.CreateQuiz(r.Context(), actor, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	views, err := h.exams.ListQuizzes(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	view, err := h.exams.GetQuiz(r.Context(), actor, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var draft domain.QuizDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid quiz payload")
		return
	}
	quiz, err := h.exams.UpdateQuiz(r.Context(), actor, chi.URLParam(r, "quizID"), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if err := h.exams.DeleteQuiz(r.Context(), actor, chi.URLParam(r, "quizID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit records an attempt. Answers that are not option numbers count as
// unanswered rather than failing the request.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid attempt payload")
		return
	}
	reason, err := domain.ParseSubmissionReason(req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}

	submission := domain.Submission{
		Selections: make(map[string]int, len(req.Answers)),
		Reason:     reason,
	}
	for questionID, raw := range req.Answers {
		submission.Selections[questionID] = parseSelection(raw)
	}
	if len(req.SecurityData) > 0 && !bytes.Equal(req.SecurityData, []byte("null")) {
		submission.SecurityData = req.SecurityData
	}

	result, eval, err := h.exams.SubmitAttempt(r.Context(), actor, chi.URLParam(r, "quizID"), submission)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attemptResponse{Result: result, Evaluation: eval})
}

func (h *QuizHandler) Standings(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	results, err := h.exams.ListResults(r.Context(), actor, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *QuizHandler) Result(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	result, err := h.exams.GetResult(r.Context(), actor, chi.URLParam(r, "resultID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseSelection accepts 3 or "3"; anything else means unanswered.
func parseSelection(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == math.Trunc(n) && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int(n)
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}
