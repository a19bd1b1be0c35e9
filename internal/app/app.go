package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/todoshare/internal/auth"
	"github.com/hitoshi/todoshare/internal/config"
	"github.com/hitoshi/todoshare/internal/database"
	"github.com/hitoshi/todoshare/internal/feed"
	"github.com/hitoshi/todoshare/internal/handler"
	"github.com/hitoshi/todoshare/internal/logger"
	"github.com/hitoshi/todoshare/internal/metrics"
	"github.com/hitoshi/todoshare/internal/middleware"
	"github.com/hitoshi/todoshare/internal/repository"
	"github.com/hitoshi/todoshare/internal/security"
	"github.com/hitoshi/todoshare/internal/todo"
	"github.com/hitoshi/todoshare/internal/user"
	"github.com/hitoshi/todoshare/internal/worker/cleanup"
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
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	root.SetOut(w)
	root.SetErr(w)
	return root.Execute()
}

// start は設定を読み込み、modeに対応する処理を起動する。
func start(w io.Writer, mode Command) error {
	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(mode)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch mode {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// newMailer はSMTP_HOSTが設定されていればSMTPMailerを、なければ開発用のLogMailerを返す。
func newMailer(cfg *config.Config, log *slog.Logger) auth.Mailer {
	if !cfg.SMTPEnabled() {
		log.Warn("SMTP_HOST is not set; magic links will only be logged")
		return auth.NewLogMailer(log)
	}
	return auth.NewSMTPMailer(auth.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}

// buildRouter は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 戻り値のstopはレートリミッターのバックグラウンド処理を止める。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry, log *slog.Logger) (http.Handler, func()) {
	// 1. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	magicLinkRepo := repository.NewPostgresMagicLinkRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	listRepo := repository.NewPostgresListRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)

	// 2. 計測とセキュリティ
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()
	guard := security.NewURLGuard(cfg.ImportTimeout)

	// 3. ドメインサービス
	authService := auth.NewService(newMailer(cfg, log), userRepo, magicLinkRepo, sessionRepo, auth.ServiceConfig{
		BaseURL:       cfg.BaseURL,
		MagicLinkTTL:  cfg.MagicLinkTTL,
		SessionMaxAge: cfg.SessionMaxAge,
	})
	userService := user.NewService(userRepo)
	todoService := todo.NewService(listRepo, taskRepo, collector)
	importer := feed.NewImporter(guard, todoService, sanitizer, collector, feed.Config{
		MaxBodySize: cfg.ImportMaxSize,
		MaxItems:    cfg.ImportMaxItems,
	}, log)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitMagicLink),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:         log,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		HealthChecker:  db,

		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		UserService:   userService,
		ListService:   todoService,
		TaskService:   todoService,
		ImportService: handler.NewImportServiceAdapter(userService, importer),
	})

	return router, rateLimiter.Stop
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, stopRouter := buildRouter(cfg, db, reg, slog.Default())
	defer stopRouter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ImportTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 認証データのクリーンアップジョブを起動直後と日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.LogRetentionDays

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("worker starting", slog.Int("retention_days", cfg.LogRetentionDays))

	cleanupJob.Start(ctx, 24*time.Hour)

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
