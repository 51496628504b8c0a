package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rete.backend/internal/config"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/infrastructure/blockchain"
	pgsource "rete.backend/internal/infrastructure/datasources/postgres"
	"rete.backend/internal/infrastructure/jobs"
	"rete.backend/internal/infrastructure/metrics"
	"rete.backend/internal/infrastructure/realtime"
	"rete.backend/internal/infrastructure/repositories"
	"rete.backend/internal/infrastructure/signer"
	"rete.backend/internal/interfaces/http/handlers"
	"rete.backend/internal/interfaces/http/middleware"
	"rete.backend/internal/usecases"
	vault "rete.backend/pkg/crypto"
	"rete.backend/pkg/jwt"
	"rete.backend/pkg/logger"
	"rete.backend/pkg/redis"
	"rete.backend/pkg/utils"
)

var (
	loadDotenv      = godotenv.Load
	loadCfg         = config.Load
	initLog         = logger.Init
	initRedis       = redis.Init
	openDB          = pgsource.Open
	migrateDB       = pgsource.Migrate
	newSessionStore = redis.NewSessionStore
	newKeyVault     = vault.NewKeyVault
	runServer       = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	dbReady := sqlDB.Ping() == nil
	if !dbReady {
		logger.Warn(context.Background(), "Database not available, endpoints will return errors")
	} else {
		logger.Info(context.Background(), "Connected to PostgreSQL")
		if cfg.Database.AutoMigrate {
			if err := migrateDB(db); err != nil {
				return err
			}
			logger.Info(context.Background(), "Database schema migrated")
		}
	}

	keyVault, err := newKeyVault(cfg.Security.KeyVaultSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize key vault: %w", err)
	}

	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	tokenRepo := repositories.NewCommunityTokenRepository(db)
	profileRepo := repositories.NewChainProfileRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	productRepo := repositories.NewProductRepository(db)
	uow := repositories.NewUnitOfWork(db)

	if dbReady {
		if err := seedChainProfile(context.Background(), profileRepo, keyVault, cfg.Blockchain); err != nil {
			return fmt.Errorf("failed to seed chain profile: %w", err)
		}
	}

	appMetrics := metrics.NewDefault()

	// Chain access: one queue so signing lanes and the relay lane share ordering
	queue := utils.NewKeyedQueue()
	clientFactory := blockchain.NewClientFactory()
	defer clientFactory.Close()
	gateway := blockchain.NewGateway(clientFactory, queue, appMetrics, blockchain.GatewayConfig{
		ConfirmationTimeout: cfg.Blockchain.ConfirmationTimeout,
		ReceiptPollInterval: cfg.Blockchain.ReceiptPollInterval,
	})
	authSigner := signer.NewSigner(gateway, appMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime fan-out goes through Redis when available so every instance
	// relays into its own hub.
	hub := realtime.NewHub(appMetrics)
	var broadcaster realtime.Broadcaster = hub
	if redis.GetClient() != nil {
		redisBroadcaster := realtime.NewRedisBroadcaster(hub)
		broadcaster = redisBroadcaster
		go func() {
			if err := redisBroadcaster.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "Realtime relay stopped", zap.Error(err))
			}
		}()
	}
	notifier := realtime.NewNotifier(broadcaster)

	// Usecases
	settlementUsecase := usecases.NewSettlementUsecase(usecases.SettlementDeps{
		Accounts:    accountRepo,
		Wallets:     walletRepo,
		Tokens:      tokenRepo,
		Profiles:    profileRepo,
		Settlements: settlementRepo,
		Products:    productRepo,
		UnitOfWork:  uow,
		Gateway:     gateway,
		Signer:      authSigner,
		Vault:       keyVault,
		Notifier:    notifier,
		Queue:       queue,
		Metrics:     appMetrics,
	}, usecases.SettlementConfig{
		AuthorizationWindow: cfg.Settlement.AuthorizationWindow,
		ReconcileMinAge:     cfg.Settlement.ReconcileMinAge,
	})
	walletUsecase := usecases.NewWalletUsecase(accountRepo, walletRepo, uow, keyVault)
	tokenUsecase := usecases.NewCommunityTokenUsecase(accountRepo, walletRepo, tokenRepo, profileRepo, gateway, keyVault, cfg.Blockchain.ChainID)

	// Handlers
	authenticator := middleware.NewAuthenticator(jwtService, sessionStore)
	reconcilePolicy := entities.ReconcilePolicy(cfg.Settlement.ReconcilePolicy)

	reconcileJob := jobs.NewSettlementReconcileJob(settlementUsecase, reconcilePolicy, cfg.Settlement.ReconcileInterval, cfg.Settlement.ReconcileBatch)
	go reconcileJob.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r, handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database": func(ctx context.Context) error { return pgsource.Ping(ctx, db) },
		"redis":    pingRedis,
	}))
	registerMetricsRoute(r, appMetrics)
	registerAPIV1Routes(r, routeDeps{
		settlementHandler: handlers.NewSettlementHandler(settlementUsecase),
		walletHandler:     handlers.NewWalletHandler(walletUsecase),
		tokenHandler:      handlers.NewTokenHandler(tokenUsecase),
		adminHandler:      handlers.NewAdminHandler(settlementUsecase, reconcilePolicy),
		realtimeHandler:   handlers.NewRealtimeHandler(authenticator, accountRepo, hub, cfg.Realtime.AllowedOrigins, cfg.Realtime.ClientBuffer),
		authMiddleware:    middleware.AuthMiddleware(authenticator),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "Shutting down server")
		reconcileJob.Stop()
		cancel()
	}()

	logger.Info(ctx, "Rete backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int64("chain_id", cfg.Blockchain.ChainID),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func pingRedis(ctx context.Context) error {
	client := redis.GetClient()
	if client == nil {
		return errors.New("redis not initialized")
	}
	return client.Ping(ctx).Err()
}
