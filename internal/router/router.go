package router

import (
	"fmt"
	"strings"

	"github.com/employer-pool/internal/cache"
	"github.com/employer-pool/internal/config"
	businesshandlers "github.com/employer-pool/internal/http/handlers/business"
	publichandlers "github.com/employer-pool/internal/http/handlers/public"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/provider"

	"github.com/gin-gonic/gin"
)

const defaultMetricsPath = "/metrics"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	businessHandler := businesshandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ep"
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	connectRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:connect", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	redisClient := cache.Client()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if c.HTTPMetrics != nil {
		r.Use(c.HTTPMetrics.Middleware())
	}

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			public.POST("/auth/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.Register)
			public.POST("/workers/connect", RateLimitMiddleware(redisClient, connectRule, KeyByIP), publicHandler.ConnectWorkerWallet)
			public.POST("/signer/callback", publicHandler.HandleSignerCallback)
		}

		// 账号接口只需登录
		account := apiV1.Group("/account")
		account.Use(OperatorJWTMiddleware(cfg.JWT.SecretKey, c.AuthService))
		{
			account.GET("/me", businessHandler.GetProfile)
			account.POST("/password", businessHandler.ChangePassword)
		}

		business := apiV1.Group("/business")
		business.Use(OperatorJWTMiddleware(cfg.JWT.SecretKey, c.AuthService), BusinessRBACMiddleware(c.AuthzService))
		{
			// 付款发起
			business.POST("/payments/contractor", businessHandler.PayContractor)
			business.POST("/payments/payroll", businessHandler.RunPayroll)
			business.POST("/payments/deposit", businessHandler.DepositToPool)
			business.POST("/payments/withdrawal", businessHandler.WithdrawFromPool)

			// 付款意图与对账
			business.GET("/intents", businessHandler.ListIntents)
			business.GET("/intents/:id", businessHandler.GetIntent)
			business.POST("/intents/:id/outcome", businessHandler.ReportOutcome)
			business.POST("/intents/:id/check", businessHandler.CheckIntent)
			business.POST("/intents/sweep", businessHandler.SweepStale)

			// 历史与资金池流水
			business.GET("/history", businessHandler.ListHistory)
			business.GET("/wallet/transactions", businessHandler.ListWalletTransactions)

			// 收款方
			business.GET("/workers", businessHandler.ListWorkers)
			business.GET("/workers/:id", businessHandler.GetWorker)
			business.POST("/workers", businessHandler.AddWorker)
			business.GET("/contractors", businessHandler.ListContractors)
			business.GET("/contractors/:id", businessHandler.GetContractor)
			business.POST("/contractors", businessHandler.InviteContractor)
			business.POST("/contractors/:id/activate", businessHandler.ActivateContractor)

			// 权限
			business.GET("/authz/roles", businessHandler.ListRoles)
			business.GET("/authz/roles/:role/policies", businessHandler.GetRolePolicies)
		}
	}

	if cfg.Metrics.Enabled && c.Registry != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = defaultMetricsPath
		}
		r.GET(path, gin.WrapH(metrics.Handler(c.Registry)))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
