package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/bitjob/backend/internal/application/project"
	"github.com/bitjob/backend/internal/application/user"
	"github.com/bitjob/backend/internal/application/verification"
	"github.com/bitjob/backend/internal/config"
	"github.com/bitjob/backend/internal/domain"
	"github.com/bitjob/backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/bitjob/backend/internal/infrastructure/jwt"
	"github.com/bitjob/backend/internal/infrastructure/mailqueue"
	redisinfra "github.com/bitjob/backend/internal/infrastructure/redis"
	s3infra "github.com/bitjob/backend/internal/infrastructure/s3"
	"github.com/bitjob/backend/internal/transport/http/handler"
	appmiddleware "github.com/bitjob/backend/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	ProjectRepo  *dynamo.ProjectRepo
	CategoryRepo *dynamo.CategoryRepo
	TagRepo      *dynamo.TagRepo
	FileRepo     *dynamo.ProjectFileRepo
	CodeStore    *redisinfra.CodeStore
	S3Store      *s3infra.Store
	MailQueue    *mailqueue.Queue
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 for the public code and credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verificationSvc := verification.NewService(deps.CodeStore, deps.UserRepo, deps.MailQueue, verification.Config{
		CodeLength:     cfg.CodeLength,
		CodeExpiry:     cfg.CodeExpiry(),
		VerifiedExpiry: cfg.VerifiedExpiry(),
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: deps.UserRepo,
		Verifier: verificationSvc,
		Tokens:   deps.JWTProvider,
	})
	projectSvc := project.NewService(project.ServiceDeps{
		ProjectRepo:  deps.ProjectRepo,
		CategoryRepo: deps.CategoryRepo,
		TagRepo:      deps.TagRepo,
		FileRepo:     deps.FileRepo,
		ObjectStore:  deps.S3Store,
	})

	healthH := handler.NewHealthHandler()
	verificationH := handler.NewVerificationHandler(verificationSvc)
	userH := handler.NewUserHandler(userSvc)
	authH := handler.NewAuthHandler(userSvc)
	projectH := handler.NewProjectHandler(projectSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/users/check-email", verificationH.CheckEmail)
		r.With(sensitiveRL.Limit).Post("/users/send-registration-code", verificationH.SendRegistrationCode)
		r.With(sensitiveRL.Limit).Post("/users/verify-registration-code", verificationH.VerifyRegistrationCode)
		r.With(sensitiveRL.Limit).Post("/users/send-forget-password-code", verificationH.SendForgetPasswordCode)
		r.With(sensitiveRL.Limit).Post("/users/verify-forget-password-code", verificationH.VerifyForgetPasswordCode)
		r.With(sensitiveRL.Limit).Post("/users/reset-password", userH.ResetPassword)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/authenticate/login", authH.Login)
		r.Post("/authenticate/refresh", authH.Refresh)

		r.Get("/projects", projectH.List)
		r.Get("/projects/categories", projectH.ListCategories)
		r.Get("/projects/tags", projectH.ListTags)
		r.Get("/projects/{slug}", projectH.Get)
		r.Get("/projects/{slug}/files", projectH.ListFiles)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/profile", userH.Profile)
			r.Patch("/users/{id}/change-password", userH.ChangePassword)
			r.Patch("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)

			r.Post("/projects", projectH.Create)
			r.Put("/projects/{slug}", projectH.Update)
			r.Patch("/projects/{slug}", projectH.Update)
			r.Delete("/projects/{slug}", projectH.Delete)
			r.Post("/projects/{slug}/files", projectH.UploadFile)
			r.Get("/projects/files/{id}", projectH.DownloadFile)
			r.Delete("/projects/files/{id}", projectH.DeleteFile)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/projects/categories", projectH.CreateCategory)
				r.Patch("/projects/categories/{slug}", projectH.UpdateCategory)
			})
		})
	})

	return r
}
