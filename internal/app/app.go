// Package app はアプリケーションの起動とワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/techscope/internal/analysis"
	"github.com/hitoshi/techscope/internal/config"
	"github.com/hitoshi/techscope/internal/database"
	"github.com/hitoshi/techscope/internal/enrich"
	"github.com/hitoshi/techscope/internal/facts"
	"github.com/hitoshi/techscope/internal/handler"
	"github.com/hitoshi/techscope/internal/logger"
	"github.com/hitoshi/techscope/internal/metrics"
	"github.com/hitoshi/techscope/internal/middleware"
	"github.com/hitoshi/techscope/internal/pipeline"
	"github.com/hitoshi/techscope/internal/repository"
	"github.com/hitoshi/techscope/internal/security"
	"github.com/hitoshi/techscope/internal/source"
	"github.com/hitoshi/techscope/internal/stocks"
	"github.com/hitoshi/techscope/internal/worker/schedule"
)

// externalAPITimeout はOpenAI・Alpha Vantage呼び出しのタイムアウト。
const externalAPITimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// .envファイル（存在する場合）と環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	// .envは開発用。存在しなくてもエラーにしない
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe は読み取り専用APIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	newsRepo := repository.NewPostgresNewsRepo(db)
	factRepo := repository.NewPostgresFactRepo(db)
	stockRepo := repository.NewPostgresStockRepo(db)

	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.RequestsPerMinute = cfg.RateLimitGeneral
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		News:   newsRepo,
		Facts:  factRepo,
		Stocks: stockRepo,

		MetricsHandler: metrics.Handler(prometheus.DefaultGatherer),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker は取り込みワーカーモードで起動する。
// パイプライン・豆知識・株価の各ジョブをスケジューラに登録し、
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// ソース設定の読み込み
	sourcesCfg, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return fmt.Errorf("failed to load sources config: %w", err)
	}

	// メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// リポジトリ
	newsRepo := repository.NewPostgresNewsRepo(db)
	factRepo := repository.NewPostgresFactRepo(db)
	stockRepo := repository.NewPostgresStockRepo(db)

	// セキュリティサービス
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewBodySanitizer()

	// ソースアダプタ
	enabled := sourcesCfg.EnabledSources()
	adapters := make([]source.Adapter, 0, len(enabled))
	for _, s := range enabled {
		adapters = append(adapters, source.NewRSSAdapter(
			s.Name, s.URL, ssrfGuard,
			slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize, cfg.FetchMaxItems,
		))
	}

	// 本文補完
	enricher := enrich.NewEnricher(
		ssrfGuard, slog.Default(),
		cfg.FetchTimeout, cfg.FetchMaxSize,
		cfg.EnrichMaxConcurrent, cfg.EnrichRatePerSec,
	)

	// 分析戦略: APIキーがあれば外部モデル優先、なければルールエンジンのみ
	var primary analysis.Analyzer
	if cfg.OpenAIAPIKey != "" {
		primary = analysis.NewOpenAIAnalyzer("", cfg.OpenAIModel, cfg.OpenAIAPIKey, externalAPITimeout)
	}
	analyzer := analysis.NewFallbackAnalyzer(primary, collector, slog.Default())

	// パイプライン
	pipe := pipeline.NewPipeline(
		adapters, enricher, analyzer, sanitizer,
		newsRepo, collector, slog.Default(), cfg.FetchMaxConcurrent,
	)

	// 豆知識ローテーション
	var factGen facts.Generator
	if cfg.OpenAIAPIKey != "" {
		factGen = facts.NewOpenAIGenerator("", cfg.OpenAIModel, cfg.OpenAIAPIKey, externalAPITimeout)
	}
	factService := facts.NewService(factRepo, factGen, slog.Default())

	// 株価リフレッシュ
	quoteClient := stocks.NewAlphaVantageClient("", cfg.AlphaVantageAPIKey, externalAPITimeout)
	stockService := stocks.NewService(stockRepo, quoteClient, sourcesCfg.Stocks, slog.Default())

	// ジョブ登録
	scheduler := schedule.NewScheduler(collector, slog.Default())

	ingestJob := schedule.Job{Name: "news:ingest", Run: func(ctx context.Context) error {
		_, err := pipe.Run(ctx)
		return err
	}}
	if err := scheduler.AddFixed(ingestJob, "06:00", "12:00"); err != nil {
		return fmt.Errorf("failed to register ingest job: %w", err)
	}
	if err := scheduler.AddInterval(ingestJob, cfg.IngestInterval); err != nil {
		return fmt.Errorf("failed to register ingest job: %w", err)
	}

	backfillJob := schedule.Job{Name: "news:backfill", Run: func(ctx context.Context) error {
		_, err := pipe.Backfill(ctx)
		return err
	}}
	if err := scheduler.AddInterval(backfillJob, cfg.BackfillInterval); err != nil {
		return fmt.Errorf("failed to register backfill job: %w", err)
	}

	factsJob := schedule.Job{Name: "facts:daily", Run: factService.RotateDaily}
	if err := scheduler.AddFixed(factsJob, "00:00"); err != nil {
		return fmt.Errorf("failed to register facts job: %w", err)
	}

	stocksJob := schedule.Job{Name: "stocks:refresh", Run: func(ctx context.Context) error {
		_, err := stockService.RefreshAll(ctx)
		return err
	}}
	if err := scheduler.AddFixed(stocksJob, "09:00"); err != nil {
		return fmt.Errorf("failed to register stocks job: %w", err)
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	// ワーカーのメトリクス・ヘルスチェック用HTTPサーバー
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler(registry))
	metricsMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker starting",
		slog.Int("sources", len(adapters)),
		slog.Duration("ingest_interval", cfg.IngestInterval),
		slog.Duration("backfill_interval", cfg.BackfillInterval),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
