package http

import (
	"net/http"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// FeedHandler streams newly recorded results of one quiz to staff.
type FeedHandler struct {
	exams    *app.ExamService
	upgrader websocket.Upgrader
}

func NewFeedHandler(exams *app.ExamService) *FeedHandler {
	return &FeedHandler{
		exams: exams,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks are handled by the CORS layer and the bearer token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID string `json:"quizId"`
}

// ServeWS authorizes the subscription before upgrading, so denied or
// unknown quizzes get a plain HTTP error.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	events, cancel, err := h.exams.SubscribeResults(r.Context(), actor, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cancel()

	log := config.WithContext(r.Context()).WithField("quiz_id", quizID)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// the client sends nothing; reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	// this goroutine is the only writer
	if err := conn.WriteJSON(outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{QuizID: quizID}}); err != nil {
		return
	}
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "result", Payload: event}); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		case <-closed:
			return
		}
	}
}
