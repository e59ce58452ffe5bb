package handler

import (
	"log/slog"
	"net/http"

	"github.com/arnoldmoya/newsroom/internal/metrics"
	"github.com/arnoldmoya/newsroom/internal/middleware"
	"github.com/arnoldmoya/newsroom/internal/ratelimit"
	"github.com/go-chi/chi/v5"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *ratelimit.Limiter
	RateLimiterConfig middleware.RateLimiterConfig
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	CSRFConfig  middleware.CSRFConfig

	// コンテンツ
	ArticleService ArticleServiceInterface
	NewsService    NewsServiceInterface

	// 購読
	SubscriberService SubscriberServiceInterface

	// 配信
	Dispatcher DispatcherInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging → Metrics
//
// /api/配下の全ルートにIPベースのレート制限を適用し、
// 管理ルート（/api/admin/*）にはさらにセッション認証とCSRF検証を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	articleHandler := NewArticleHandler(deps.ArticleService)
	newsHandler := NewNewsHandler(deps.NewsService, deps.Dispatcher, deps.Metrics)
	subHandler := NewSubscriberHandler(deps.SubscriberService, deps.Metrics)

	rateLimit := middleware.NewRateLimitMiddleware(deps.RateLimiter, deps.RateLimiterConfig)

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	// Prometheusスクレイプ用エンドポイント
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証不要の公開ルート ---
	// ミドルウェアスタック: RateLimit
	r.Group(func(r chi.Router) {
		r.Use(rateLimit)

		// 認証
		r.Post("/api/login", authHandler.Login)
		r.Post("/api/logout", authHandler.Logout)
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// 購読フロー
		r.Post("/api/subscribe", subHandler.Subscribe)
		r.Get("/api/subscribe/confirm/{id}", subHandler.Confirm)
		r.Route("/api/unsubscribe/{id}", func(r chi.Router) {
			r.Get("/", subHandler.Unsubscribe)
			// RFC 8058 ワンクリック解除
			r.Post("/", subHandler.UnsubscribeOneClick)
		})

		// 公開コンテンツ
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListPublished)
			r.Get("/{slug}", articleHandler.GetBySlug)
		})
		r.Route("/api/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListPublished)
			r.Get("/{slug}", newsHandler.GetBySlug)
		})
	})

	// --- 管理ルート ---
	// ミドルウェアスタック: RateLimit → Session → CSRF
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(middleware.NewAPISessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListAll)
			r.Post("/", articleHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", articleHandler.Get)
				r.Put("/", articleHandler.Update)
				r.Delete("/", articleHandler.Delete)
				r.Post("/publish", articleHandler.SetPublished)
			})
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListAll)
			r.Post("/", newsHandler.Create)

			// テスト配信（配信済みフラグは変更されない）
			r.Post("/test-send/{slug}", newsHandler.SendTest)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", newsHandler.Get)
				r.Put("/", newsHandler.Update)
				r.Delete("/", newsHandler.Delete)
				r.Post("/publish", newsHandler.SetPublished)
				r.Post("/send", newsHandler.Send)
			})
		})

		r.Get("/subscribers", subHandler.ListSubscribers)
	})

	return r
}
