// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/eventgate/internal/auth"
	"github.com/hitoshi/eventgate/internal/backend"
	"github.com/hitoshi/eventgate/internal/config"
	"github.com/hitoshi/eventgate/internal/database"
	"github.com/hitoshi/eventgate/internal/eventpermission"
	"github.com/hitoshi/eventgate/internal/handler"
	"github.com/hitoshi/eventgate/internal/logger"
	"github.com/hitoshi/eventgate/internal/metrics"
	"github.com/hitoshi/eventgate/internal/middleware"
	"github.com/hitoshi/eventgate/internal/repository"
	"github.com/hitoshi/eventgate/internal/resolver"
	"github.com/hitoshi/eventgate/internal/security"
)

const (
	dbPingTimeout   = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数のConfigを読み込み、
// LOG_LEVELに合わせてロガーを再設定する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込みのエラーもJSONで出力できるよう、先にINFOで初期化する
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "4000"
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
		slog.String("backend_mode", cfg.BackendMode),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// gateway はバックエンドの各ケイパビリティの実装をまとめたもの。
// 参照データは常にPostgreSQLから読む。
type gateway struct {
	users    repository.UserRepository
	refs     repository.ReferenceRepository
	events   repository.EventPermissionRepository
	speakers repository.SpeakerRepository
}

// newGateway はBACKEND_MODEに応じてゲートウェイを構築する。
func newGateway(cfg *config.Config, db *sql.DB) (*gateway, error) {
	gw := &gateway{refs: repository.NewPostgresReferenceRepo(db)}

	switch cfg.BackendMode {
	case config.BackendREST:
		client, err := backend.NewClient(
			&http.Client{Timeout: cfg.BackendTimeout},
			cfg.BackendBaseURL,
			slog.Default(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		gw.users = client.Users()
		gw.events = client
		gw.speakers = client.Speakers()
	default:
		gw.users = repository.NewPostgresUserRepo(db)
		gw.events = repository.NewPostgresEventPermissionRepo(db)
		gw.speakers = repository.NewPostgresSpeakerRepo(db)
	}
	return gw, nil
}

// rateLimiterConfig は「window内にn回」の設定をトークンバケットに換算する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	rl.GeneralRate = middleware.PerWindow(cfg.RateLimitGeneral, cfg.RateLimitWindow)
	rl.GeneralBurst = cfg.RateLimitGeneral
	rl.LoginRate = middleware.PerWindow(cfg.RateLimitLogin, cfg.RateLimitWindow)
	rl.LoginBurst = cfg.RateLimitLogin
	return rl
}

func tokenConfig(cfg *config.Config) auth.TokenConfig {
	return auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	}
}

// buildRouter は全依存関係をワイヤリングしたHTTPハンドラーを返す。
func buildRouter(cfg *config.Config, db *sql.DB, gw *gateway, reg *prometheus.Registry, limiter *middleware.RateLimiter) http.Handler {
	collector := metrics.NewCollector(reg)

	dispatcher := eventpermission.NewDispatcher(
		gw.events, gw.speakers, gw.refs,
		security.NewDescriptionSanitizer(),
		collector,
	)
	authService := auth.NewService(gw.users, auth.NewTokenIssuer(tokenConfig(cfg)))

	deps := &handler.RouterDeps{
		Verifier:          auth.NewTokenVerifier(tokenConfig(cfg)),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		Logger:            slog.Default(),
		Metrics:           collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService:      authService,
		EventService:     dispatcher,
		SpeakerService:   dispatcher,
		ReferenceService: dispatcher,
		Resolver:         resolver.New(gw.refs, gw.speakers),
	}
	return handler.NewRouter(deps)
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	gw, err := newGateway(cfg, db)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter := middleware.NewRateLimiter(rateLimiterConfig(cfg), nil)
	defer limiter.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           buildRouter(cfg, db, gw, reg, limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はすべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runSeed は参照データとサンプルアカウントを投入する。繰り返し実行できる。
func runSeed(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.SeedReferenceData(ctx, db); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	slog.Info("reference data seeded")

	gw, err := newGateway(cfg, db)
	if err != nil {
		return err
	}
	created, err := seedUsers(ctx, gw.users, cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed", slog.Int("users_created", created))
	return nil
}

func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// runHealthcheck はdistroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
