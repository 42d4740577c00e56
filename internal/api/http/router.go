package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	auth "github.com/adriian-oc/oposiciones-app/internal/auth/middleware"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	"github.com/adriian-oc/oposiciones-app/internal/storage"
	syncx "github.com/adriian-oc/oposiciones-app/internal/sync"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

const ServiceName = "oposiciones-api"

type Deps struct {
	Auth        *auth.AuthService
	Users       *users.Store
	Catalog     *catalog.Store
	Exams       *exam.Service
	Analytics   *analytics.Service
	Blobs       storage.BlobStore
	Events      *syncx.EventRepo
	CORSOrigins []string
	// RequestLog toggles chi's request logger.
	RequestLog bool
}

// NewRouter mounts every /api route behind the middleware stack.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandler(ServiceName))
		r.Post("/auth/register", auth.RegisterHandler(d.Users))
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users))

		// JWT -> principal in context -> RBAC
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(d.Auth, d.Users))

			pr.Get("/auth/me", auth.MeHandler(d.Users))
			pr.Post("/auth/logout", auth.LogoutHandler(d.Auth))

			pr.With(rbac.Require("users:list")).Get("/users", ListUsersHandler(d.Users))
			pr.With(rbac.Require("users:update_role")).Patch("/users/{userID}/role", UpdateUserRoleHandler(d.Users))

			pr.With(rbac.Require("theme:view")).Get("/themes", ListThemesHandler(d.Catalog))
			pr.With(rbac.Require("theme:view")).Get("/themes/{themeID}", GetThemeHandler(d.Catalog))
			pr.With(rbac.Require("theme:create")).Post("/themes", CreateThemeHandler(d.Catalog))

			pr.Route("/questions", func(qr chi.Router) {
				qr.With(rbac.Require("question:view")).Get("/", ListQuestionsHandler(d.Catalog))
				qr.With(rbac.Require("question:create")).Post("/", CreateQuestionHandler(d.Catalog))
				qr.With(rbac.Require("question:create")).Post("/upload/bulk", BulkUploadQuestionsHandler(d.Catalog, d.Blobs))
				qr.With(rbac.Require("question:update")).Put("/{questionID}", UpdateQuestionHandler(d.Catalog))
				qr.With(rbac.Require("question:delete")).Delete("/{questionID}", DeleteQuestionHandler(d.Catalog))
			})

			pr.Route("/practical-sets", func(sr chi.Router) {
				sr.With(rbac.Require("practical_set:view")).Get("/", ListPracticalSetsHandler(d.Catalog))
				sr.With(rbac.Require("practical_set:create")).Post("/", CreatePracticalSetHandler(d.Catalog))
				sr.With(rbac.Require("practical_set:view")).Get("/random/one", RandomPracticalSetHandler(d.Catalog))
				sr.With(rbac.Require("practical_set:view")).Get("/by-theme/{themeID}", PracticalSetsByThemeHandler(d.Catalog))
				sr.With(rbac.Require("practical_set:view")).Get("/{setID}", GetPracticalSetHandler(d.Catalog))
				sr.With(rbac.Require("practical_set:delete")).Delete("/{setID}", DeletePracticalSetHandler(d.Catalog))
			})

			pr.Route("/exams", func(er chi.Router) {
				er.With(rbac.Require("exam:generate")).Post("/generate", GenerateExamHandler(d.Exams))
				er.With(rbac.Require("attempt:create")).Post("/start", StartAttemptHandler(d.Exams))
				er.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/history", HistoryHandler(d.Exams))
				er.With(rbac.Require("attempt:answer")).Post("/attempts/{attemptID}/answer", SubmitAnswerHandler(d.Exams))
				er.With(rbac.Require("attempt:finish")).Post("/attempts/{attemptID}/finish", FinishAttemptHandler(d.Exams))
				er.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts/{attemptID}/results", AttemptResultsHandler(d.Exams))
				er.With(rbac.RequireAny("exam:view-own", "exam:view-all")).Get("/{examID}", GetExamHandler(d.Exams))
			})

			pr.Route("/admin", func(ar chi.Router) {
				if d.Events != nil {
					ar.With(rbac.Require("events:view")).Get("/events", EventsHandler(d.Events))
				}
				if d.Blobs != nil {
					ar.With(rbac.Require("uploads:view")).Get("/uploads/*", UploadArchiveHandler(d.Blobs))
				}
			})

			pr.Route("/analytics", func(ar chi.Router) {
				ar.Use(rbac.Require("analytics:view-own"))
				ar.Get("/failures", FailuresHandler(d.Analytics))
				ar.Get("/study-plan", StudyPlanHandler(d.Analytics))
				ar.Get("/overall-stats", OverallStatsHandler(d.Analytics))
			})
		})
	})
	return r
}
