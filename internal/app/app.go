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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnoldmoya/newsroom/internal/auth"
	"github.com/arnoldmoya/newsroom/internal/config"
	"github.com/arnoldmoya/newsroom/internal/content"
	"github.com/arnoldmoya/newsroom/internal/database"
	"github.com/arnoldmoya/newsroom/internal/handler"
	"github.com/arnoldmoya/newsroom/internal/logger"
	"github.com/arnoldmoya/newsroom/internal/mail"
	"github.com/arnoldmoya/newsroom/internal/metrics"
	"github.com/arnoldmoya/newsroom/internal/middleware"
	"github.com/arnoldmoya/newsroom/internal/notify"
	"github.com/arnoldmoya/newsroom/internal/ratelimit"
	"github.com/arnoldmoya/newsroom/internal/repository"
	"github.com/arnoldmoya/newsroom/internal/security"
	"github.com/arnoldmoya/newsroom/internal/subscriber"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// metricsMailer はメール送信結果をメトリクスとして記録するMailerラッパー。
type metricsMailer struct {
	inner     mail.Mailer
	collector metrics.MetricsCollector
}

func (m *metricsMailer) Send(ctx context.Context, msg mail.Message) error {
	err := m.inner.Send(ctx, msg)
	if err != nil {
		m.collector.RecordMailFailure()
		return err
	}
	m.collector.RecordMailSent()
	return nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	articleRepo := repository.NewPostgresArticleRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. メール送信の初期化
	smtpMailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
	mailer := &metricsMailer{inner: smtpMailer, collector: collector}

	// 5. ドメインサービスの初期化
	authService := auth.NewService(sessionRepo, auth.ServiceConfig{
		PasswordHash:  cfg.AdminPasswordHash,
		SessionMaxAge: cfg.SessionMaxAge,
	})

	articleService := content.NewArticleService(articleRepo)
	newsService := content.NewNewsService(newsRepo)

	sanitizer := security.NewEmailSanitizer()
	dispatcher := notify.NewDispatcher(
		newsRepo, subscriberRepo, mailer, sanitizer,
		cfg.BaseURL, cfg.MailFrom, cfg.TestMailTo, cfg.MailRatePerSec,
	)

	subscriberService := subscriber.NewService(
		subscriberRepo, mailer, nil, cfg.MailFromOnboarding, cfg.BaseURL,
	)
	// ウェルカム配信はDispatcherが担う。相互参照のため生成後に接続する。
	subscriberService.SetWelcomeSender(dispatcher)

	// 6. レート制限の初期化
	limiter := ratelimit.New(time.Now)
	limiter.StartSweep(cfg.RateLimitWindow)
	defer limiter.Stop()

	rateLimiterCfg := middleware.RateLimiterConfig{
		Limit:  cfg.RateLimitRequests,
		Window: cfg.RateLimitWindow,
	}

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		RateLimiterConfig: rateLimiterCfg,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		ArticleService: articleService,
		NewsService:    newsService,

		SubscriberService: subscriberService,
		Dispatcher:        dispatcher,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
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
