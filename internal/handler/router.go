package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/eventgate/internal/metrics"
	"github.com/hitoshi/eventgate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.IdentityVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// インフラ
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	AuthService      AuthServiceInterface
	EventService     EventPermissionServiceInterface
	SpeakerService   SpeakerServiceInterface
	ReferenceService ReferenceServiceInterface
	Resolver         RelationResolver
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → SecurityHeaders → CORS → Auth → Logging → StatusMetrics → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- インフラ ---
	r.Get("/health", Health(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService)
	epHandler := NewEventPermissionHandler(deps.EventService, deps.Resolver)
	speakerHandler := NewSpeakerHandler(deps.SpeakerService)
	refHandler := NewReferenceHandler(deps.ReferenceService)

	// 匿名の呼び出しも通す。認可はサービス層のポリシーが判定する。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		r.Use(middleware.NewLoggingMiddleware(logger))
		if deps.Metrics != nil {
			r.Use(middleware.NewStatusMetricsMiddleware(deps.Metrics))
		}
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.Get("/me", authHandler.Me)
		})

		r.Get("/api/provinces", refHandler.ListProvinces)
		r.Get("/api/provinces/{id}/cities", refHandler.ListCities)
		r.Get("/api/categories", refHandler.ListCategories)

		r.Route("/api/event-permissions", func(r chi.Router) {
			r.Get("/", epHandler.List)
			r.Post("/", epHandler.Create)
			r.Get("/verification", epHandler.ListForVerification)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", epHandler.Get)
				r.Put("/", epHandler.Update)
				r.Delete("/", epHandler.Delete)
				r.Post("/verify", epHandler.Verify)

				r.Route("/speakers", func(r chi.Router) {
					r.Get("/", speakerHandler.List)
					r.Post("/", speakerHandler.Create)
					r.Put("/{speakerID}", speakerHandler.Update)
					r.Delete("/{speakerID}", speakerHandler.Delete)
				})
			})
		})
	})

	return r
}
