package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/metrics"
	"github.com/hitoshi/propertypulse/internal/middleware"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Metrics            metrics.Recorder
	MetricsHandler     http.Handler
	HealthChecker      repository.HealthChecker
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter

	// 認証
	TokenIssuer TokenIssuer
	AuthConfig  AuthHandlerConfig

	// 認可
	Authorizer Authorizer

	// ドメインサービス
	UserService         UserServiceInterface
	ListingService      ListingServiceInterface
	AgreementService    AgreementServiceInterface
	AnnouncementService AnnouncementServiceInterface
	CouponService       CouponServiceInterface
	PaymentService      PaymentServiceInterface
	CartService         CartServiceInterface

	// RSSのリンクの基点
	SiteURL string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Authenticate → Logging → RateLimit(General) → CSRF
//
// トークンの検証は全ルートで行い、保護ルートのみRequireAuthで未認証を拒否する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewAuthenticateMiddleware(deps.TokenVerifier))
	r.Use(middleware.NewLoggingMiddleware(logger, rec))
	r.Use(deps.RateLimiter.GeneralMiddleware())
	r.Use(middleware.NewCSRFMiddleware(csrfConfig))

	authHandler := NewAuthHandler(deps.TokenIssuer, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, deps.Authorizer)
	apartmentHandler := NewApartmentHandler(deps.ListingService)
	agreementHandler := NewAgreementHandler(deps.AgreementService, deps.Authorizer)
	announcementHandler := NewAnnouncementHandler(deps.AnnouncementService, deps.Authorizer, deps.SiteURL)
	couponHandler := NewCouponHandler(deps.CouponService, deps.Authorizer)
	paymentHandler := NewPaymentHandler(deps.PaymentService, deps.CartService, deps.Authorizer)
	sensitive := deps.RateLimiter.SensitiveMiddleware()

	// --- 認証不要のルート ---
	r.Get("/", Root)
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	r.With(sensitive).Post("/jwt", authHandler.IssueToken)
	r.Post("/logout", authHandler.Logout)
	r.With(sensitive).Post("/users", userHandler.Register)

	r.Get("/apartment", apartmentHandler.List)
	r.Get("/apartment/{id}", apartmentHandler.Get)

	r.Get("/announcements", announcementHandler.List)
	r.Get("/announcements/feed.xml", announcementHandler.Feed)

	r.Get("/coupons", couponHandler.List)
	r.Get("/coupons/available", couponHandler.ListAvailable)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware())

		r.Get("/users", userHandler.List)
		r.Get("/users/admin/{email}", userHandler.CheckAdmin)
		r.Get("/users/member/{email}", userHandler.CheckMember)
		r.Patch("/users/admin/{id}", userHandler.MakeAdmin)
		r.Patch("/users/member/{id}", userHandler.MakeMember)
		r.Patch("/users/remove-role/{id}", userHandler.RemoveRole)
		r.Patch("/users/role/{id}", userHandler.SetRole)

		r.Post("/agreements", agreementHandler.Create)
		r.Get("/agreements", agreementHandler.List)
		r.Patch("/agreements/status/{id}", agreementHandler.Accept)
		r.Get("/agreements/{email}", agreementHandler.ListByUser)
		r.Delete("/agreements/{id}", agreementHandler.Delete)

		r.Post("/announcements", announcementHandler.Create)

		r.Post("/coupons", couponHandler.Create)
		r.Patch("/coupons/{id}", couponHandler.SetAvailability)

		r.Post("/carts", paymentHandler.AddToCart)
		r.Get("/carts/{email}", paymentHandler.ListCart)

		r.With(sensitive).Post("/payment-intent", paymentHandler.CreateIntent)
		r.Post("/payments", paymentHandler.Record)
		r.Get("/payments/{email}", paymentHandler.ListPayments)
	})

	return r
}
