// Package app はアプリケーションの初期化と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/propertypulse/internal/agreement"
	"github.com/hitoshi/propertypulse/internal/announcement"
	"github.com/hitoshi/propertypulse/internal/auth"
	"github.com/hitoshi/propertypulse/internal/config"
	"github.com/hitoshi/propertypulse/internal/coupon"
	"github.com/hitoshi/propertypulse/internal/database"
	"github.com/hitoshi/propertypulse/internal/handler"
	"github.com/hitoshi/propertypulse/internal/listing"
	"github.com/hitoshi/propertypulse/internal/logger"
	"github.com/hitoshi/propertypulse/internal/metrics"
	"github.com/hitoshi/propertypulse/internal/middleware"
	"github.com/hitoshi/propertypulse/internal/payment"
	"github.com/hitoshi/propertypulse/internal/policy"
	"github.com/hitoshi/propertypulse/internal/repository"
	"github.com/hitoshi/propertypulse/internal/security"
	"github.com/hitoshi/propertypulse/internal/user"
	"github.com/hitoshi/propertypulse/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
)

// shutdownTimeout はグレースフルシャットダウンの猶予時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	level, err := logger.ParseLevel(cfg.LogLevel)
	logger.SetupDefault(w, level)
	if err != nil {
		slog.Warn("falling back to info log level", slog.String("error", err.Error()))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	if args == nil {
		// nilの場合cobraはos.Argsを読むため、空スライスに置き換える
		args = []string{}
	}
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.Execute()
}

// server はワイヤリング済みのHTTPハンドラーと、停止時に解放するリソースを保持する。
type server struct {
	handler http.Handler
	limiter *middleware.RateLimiter
}

func (s *server) Close() {
	s.limiter.Stop()
}

// newServer は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
func newServer(cfg *config.Config, db *sql.DB, log *slog.Logger, reg *prometheus.Registry) *server {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	apartmentRepo := repository.NewPostgresApartmentRepo(db)
	agreementRepo := repository.NewPostgresAgreementRepo(db)
	announcementRepo := repository.NewPostgresAnnouncementRepo(db)
	couponRepo := repository.NewPostgresCouponRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)

	// 2. 横断的なサービスの初期化
	collector := metrics.NewCollector(reg)
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	roles := user.NewRoleStore(userRepo)

	// 3. 決済プロバイダ。キー未設定の場合はnilのままにして決済を無効化する
	var provider payment.IntentProvider
	if cfg.PaymentsEnabled() {
		provider = payment.NewClient(
			ssrfGuard.NewSafeClient(cfg.PaymentTimeout),
			log,
			cfg.PaymentAPIURL,
			cfg.PaymentSecretKey,
			cfg.PaymentCurrency,
		)
	} else {
		slog.Warn("PAYMENT_SECRET_KEY is not set; payment intents are disabled")
	}

	// 4. ルーターの構築
	limiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSensitive),
	)

	deps := &handler.RouterDeps{
		Logger:             log,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      db,
		TokenVerifier:      tokens,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,

		TokenIssuer: tokens,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		Authorizer: policy.New(roles),

		UserService:         user.NewService(userRepo, roles, ssrfGuard),
		ListingService:      listing.NewService(apartmentRepo),
		AgreementService:    agreement.NewLedger(agreementRepo, apartmentRepo, roles, collector),
		AnnouncementService: announcement.NewService(announcementRepo, sanitizer),
		CouponService:       coupon.NewService(couponRepo, sanitizer),
		PaymentService:      payment.NewService(provider, paymentRepo, cartRepo, collector),
		CartService:         payment.NewCarts(cartRepo, apartmentRepo),

		SiteURL: cfg.SiteURL,
	}

	return &server{
		handler: handler.NewRouter(deps),
		limiter: limiter,
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := newServer(cfg, db, slog.Default(), prometheus.NewRegistry())
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 放置されたカート項目の定期削除
	cartJob := cleanup.NewCartExpiryJob(db, slog.Default(), cfg.CartRetentionDays)
	go cartJob.Start(ctx, cfg.CartCleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
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

// healthcheckPort はフル初期化を行わずにSERVER_PORTを読む。
func healthcheckPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8000"
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
