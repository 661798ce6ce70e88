package provider

import (
	"time"

	"github.com/employer-pool/internal/authz"
	"github.com/employer-pool/internal/cache"
	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/payment/signer"
	"github.com/employer-pool/internal/queue"
	"github.com/employer-pool/internal/repository"
	"github.com/employer-pool/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Metrics
	Registry       *prometheus.Registry
	PaymentMetrics *metrics.PaymentMetrics
	JobMetrics     *metrics.JobMetrics
	HTTPMetrics    *metrics.HTTPMetrics

	// Repositories
	BusinessRepo   repository.BusinessRepository
	OperatorRepo   repository.OperatorRepository
	WorkerRepo     repository.WorkerRepository
	ContractorRepo repository.ContractorRepository
	IntentRepo     repository.IntentRepository
	HistoryRepo    repository.HistoryRepository

	// Payment saga
	SignerClient  *signer.Client
	Invoker       service.Invoker
	RecordSchema  *service.RecordSchema
	Strategies    map[string]service.FlowStrategy
	IntentWriter  *service.IntentWriter
	Reconciler    *service.Reconciler
	PaymentFlow   *service.PaymentFlowService
	SweepService  *service.SweepService
	PaymentQuery  *service.PaymentQueryService
	SignerOptions signer.Config

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	CaptchaService    *service.CaptchaService
	ContractorService *service.ContractorService
	WorkerService     *service.WorkerService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	c.initMetrics()
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initMetrics() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.PaymentMetrics = metrics.NewPaymentMetrics(c.Registry)
	c.JobMetrics = metrics.NewJobMetrics(c.Registry)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
}

func (c *Container) initRepositories() {
	db := c.DB
	c.BusinessRepo = repository.NewBusinessRepository(db)
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.WorkerRepo = repository.NewWorkerRepository(db)
	c.ContractorRepo = repository.NewContractorRepository(db)
	c.IntentRepo = repository.NewIntentRepository(db)
	c.HistoryRepo = repository.NewHistoryRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo, c.BusinessRepo)

	c.initPaymentSaga()

	c.ContractorService = service.NewContractorService(c.ContractorRepo, c.RecordSchema)
	c.WorkerService = service.NewWorkerService(c.WorkerRepo, c.RecordSchema)
}

func (c *Container) initPaymentSaga() {
	signerCfg := c.Config.Signer
	c.SignerOptions = signer.Config{
		GatewayURL:      signerCfg.GatewayURL,
		AuthToken:       signerCfg.AuthToken,
		CallbackSecret:  signerCfg.CallbackSecret,
		NotifyURL:       signerCfg.NotifyURL,
		ChainID:         signerCfg.ChainID,
		Timeout:         time.Duration(signerCfg.TimeoutSeconds) * time.Second,
		RatePerSecond:   signerCfg.RatePerSecond,
		RateBurst:       signerCfg.RateBurst,
		QueryMaxRetries: signerCfg.QueryMaxRetries,
	}
	client, err := signer.NewClient(&c.SignerOptions)
	if err != nil {
		// 未配置网关时所有提交都会被拒绝并结算为失败
		logger.Warnw("provider_init_signer_failed", "error", err)
	} else {
		c.SignerClient = client
	}
	c.Invoker = service.NewSignerInvoker(c.SignerClient)

	c.RecordSchema = service.NewRecordSchema(c.PaymentMetrics)
	c.Strategies = service.NewFlowStrategies(c.ContractorRepo, c.WorkerRepo, c.RecordSchema, signerCfg.ContractAddress)
	c.IntentWriter = service.NewIntentWriter(c.IntentRepo, c.PaymentMetrics)
	c.Reconciler = service.NewReconciler(c.IntentRepo, c.HistoryRepo, c.Strategies, c.RecordSchema, c.PaymentMetrics)
	c.PaymentFlow = service.NewPaymentFlowService(service.PaymentFlowOptions{
		Writer:          c.IntentWriter,
		Reconciler:      c.Reconciler,
		Invoker:         c.Invoker,
		Strategies:      c.Strategies,
		BusinessRepo:    c.BusinessRepo,
		IntentRepo:      c.IntentRepo,
		QueueClient:     c.QueueClient,
		ContractAddress: signerCfg.ContractAddress,
		CheckDelay:      c.Config.Reconcile.CheckDelay(),
		Metrics:         c.PaymentMetrics,
	})
	c.SweepService = service.NewSweepService(
		c.IntentRepo,
		c.Invoker,
		c.Reconciler,
		c.RecordSchema,
		c.Config.Reconcile.StaleAfter(),
		c.Config.Reconcile.BatchLimit,
	)
	c.PaymentQuery = service.NewPaymentQueryService(c.IntentRepo, c.HistoryRepo, c.RecordSchema)
}
