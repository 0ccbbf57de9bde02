package container

import (
	"github.com/redis/go-redis/v9"

	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/cmd/salesapi/service"
	"github.com/helcity/homesales/common/bootstrap"
	"github.com/helcity/homesales/common/ratelimit"
	rediscommon "github.com/helcity/homesales/common/redis"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client
	RedisRaw   *redis.Client
	Limiter    *ratelimit.Limiter

	// Repositories
	ReservationRepo *repository.ReservationRepository
	ApplicationRepo *repository.ApplicationRepository
	UnitRepo        *repository.UnitRepository
	AuditRepo       *repository.AuditRepository

	// Services
	ListingService     *service.ListingService
	AuditService       *service.AuditService
	QueueService       *service.QueueService
	StateService       *service.StateService
	LotteryService     *service.LotteryService
	ApplicationService *service.ApplicationService
	Contracts          service.ContractGenerator
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Create Redis client (raw) from config
	redisRaw := redis.NewClient(&redis.Options{
		Addr:     components.Config.RedisAddr(),
		Password: components.Config.Redis.Password,
		DB:       components.Config.Redis.DB,
	})

	// Wrap with common redis client for instrumentation and common operations
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)

	limiter := ratelimit.NewLimiter(redisRaw, components.Logger)

	// Initialize repositories
	reservationRepo := repository.NewReservationRepository(components.DB)
	applicationRepo := repository.NewApplicationRepository(components.DB)
	unitRepo := repository.NewUnitRepository(components.DB)
	auditRepo := repository.NewAuditRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	listingService := service.NewListingService(
		components.Config.Listing,
		redisClient,
		components.Cache,
		components.Logger,
	)
	auditService := service.NewAuditService(auditRepo, components.Logger)
	queueService := service.NewQueueService(reservationRepo, components.Queue, components.Logger)
	stateService := service.NewStateService(reservationRepo, queueService, components.Queue, components.Logger)
	lotteryService := service.NewLotteryService(
		reservationRepo,
		listingService,
		components.Queue,
		components.Config.Lottery,
		components.Logger,
	)
	applicationService := service.NewApplicationService(
		applicationRepo,
		unitRepo,
		listingService,
		queueService,
		components.Logger,
	)

	return &Container{
		Components:         components,
		Redis:              redisClient,
		RedisRaw:           redisRaw,
		Limiter:            limiter,
		ReservationRepo:    reservationRepo,
		ApplicationRepo:    applicationRepo,
		UnitRepo:           unitRepo,
		AuditRepo:          auditRepo,
		ListingService:     listingService,
		AuditService:       auditService,
		QueueService:       queueService,
		StateService:       stateService,
		LotteryService:     lotteryService,
		ApplicationService: applicationService,
		Contracts:          service.NewTextContractGenerator(),
	}, nil
}
