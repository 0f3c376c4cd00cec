package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/techscope/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	News   NewsReader
	Facts  FactReader
	Stocks StockReader

	// MetricsHandler はGET /metricsで公開するPrometheusハンドラー。
	// nilの場合は/metricsを登録しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → RateLimit
//
// /healthと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	newsHandler := NewNewsHandler(deps.News, deps.Logger)
	factHandler := NewFactHandler(deps.Facts, deps.Logger)
	stockHandler := NewStockHandler(deps.Stocks, deps.Logger)

	// --- レート制限の外のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- レート制限付きのAPIルート ---

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListDaily)
			r.Get("/latest", newsHandler.ListLatest)
			r.Get("/critical", newsHandler.ListCritical)
			r.Get("/trending", newsHandler.ListTrending)
			r.Get("/{id}", newsHandler.Get)
		})

		r.Get("/api/facts/today", factHandler.Today)
		r.Get("/api/stocks", stockHandler.List)
	})

	return r
}
