package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"ilumina-bknd/internal/auth"
	"ilumina-bknd/internal/config"
	"ilumina-bknd/internal/handlers"
	"ilumina-bknd/internal/logger"
	mdlwr "ilumina-bknd/internal/middleware"
	"ilumina-bknd/internal/services"
)

func NewRouter(db *bun.DB, cfg *config.Config, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, "iluminacity")
	if err != nil {
		logr.Fatal("failed to init jwt manager", zap.Error(err))
	}

	authSvc := services.NewAuthService(db, jwtMgr, cfg, logr)
	poleSvc := services.NewPoleService(db)
	occurrenceSvc := services.NewOccurrenceService(db)

	authMW := mdlwr.NewAuthMiddleware(jwtMgr, authSvc, logr.Logger)

	authHandler := handlers.NewAuthHandler(authSvc, logr, cfg)
	poleHandler := handlers.NewPoleHandler(poleSvc, logr.Logger)
	occurrenceHandler := handlers.NewOccurrenceHandler(occurrenceSvc, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Post("/login", authHandler.Login)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(authMW.JWTAuth)
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/poles", func(r chi.Router) {
			r.Get("/", poleHandler.QueryPoles)
			r.Get("/nearest", poleHandler.Nearest)
			r.Get("/external/{externalId}", poleHandler.GetPoleByExternalID)
			r.Get("/{id}", poleHandler.GetPoleByID)
		})

		r.Route("/occurrences", func(r chi.Router) {
			// Public: citizens report and track without an account
			r.Post("/", occurrenceHandler.Create)
			r.Get("/protocol/{protocol}", occurrenceHandler.TrackByProtocol)

			// Staff only
			r.Group(func(r chi.Router) {
				r.Use(authMW.JWTAuth)
				r.Get("/", occurrenceHandler.Query)
				r.Patch("/{id}/status", occurrenceHandler.UpdateStatus)
			})
		})
	})

	return r
}
