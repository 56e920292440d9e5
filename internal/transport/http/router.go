package http

import (
	"net/http"
	"strings"
	"time"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Exams     *app.ExamService
	Materials *app.MaterialService
	Tokens    *Tokens
	// Files serves stored uploads under FilesPath when set.
	Files       http.Handler
	FilesPath   string
	CORSOrigins []string
}

// NewRouter builds the chi router with every route of the service.
func NewRouter(deps Deps) http.Handler {
	quizzes := NewQuizHandler(deps.Exams)
	materials := NewMaterialHandler(deps.Materials)
	feed := NewFeedHandler(deps.Exams)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if deps.Files != nil {
		prefix := "/" + strings.Trim(deps.FilesPath, "/")
		if prefix == "/" {
			prefix = "/files"
		}
		r.Handle(prefix+"/*", http.StripPrefix(prefix, deps.Files))
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireActor(deps.Tokens))

		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/", quizzes.Create)
			r.Get("/", quizzes.List)
			r.Route("/{quizID}", func(r chi.Router) {
				r.Get("/", quizzes.Get)
				r.Put("/", quizzes.Update)
				r.Delete("/", quizzes.Delete)
				r.Post("/attempts", quizzes.Submit)
				r.Get("/results", quizzes.Standings)
				r.Get("/feed", feed.ServeWS)
			})
		})
		r.Get("/results/{resultID}", quizzes.Result)

		r.Route("/materials", func(r chi.Router) {
			r.Post("/", materials.Upload)
			r.Get("/", materials.List)
			r.Delete("/{materialID}", materials.Delete)
		})
		r.Route("/news", func(r chi.Router) {
			r.Post("/", materials.PostNews)
			r.Get("/", materials.ListNews)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		config.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}
