package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/api"
	"tapcard-backend/internal/config"
	"tapcard-backend/internal/core"
	"tapcard-backend/internal/db"
	"tapcard-backend/internal/middleware"
	"tapcard-backend/pkg/cache"
	"tapcard-backend/pkg/mailer"
	"tapcard-backend/pkg/messagequeue"
	"tapcard-backend/pkg/storage"
)

func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// --- 1. Configuration and logger ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := newLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	plans, err := config.LoadPlanCatalog(appConfig.PlansFile)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load plan catalog", zap.Error(err))
	}

	// --- 2. Firebase Admin SDK (Firestore and Auth) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	clients, err := db.InitFirestore(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()

	userRepo := db.NewFirestoreUserRepository(clients.Firestore)
	subscriptionRepo := db.NewFirestoreSubscriptionRepository(clients.Firestore)
	cardRepo := db.NewFirestoreCardRepository(clients.Firestore)
	scannedRepo := db.NewFirestoreScannedCardRepository(clients.Firestore)

	// --- 3. Optional collaborators ---
	cardCache := newCardCache(initCtx, appConfig, zapLogger)
	defer cardCache.Close()

	events := core.NopEventPublisher()
	if appConfig.RabbitMQURL != "" {
		mq, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.RabbitMQURL})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mq.Close()
		events = core.NewQueueEventPublisher(mq, appConfig.EventsQueue, zapLogger)
		zapLogger.Info("Domain events enabled", zap.String("queue", appConfig.EventsQueue))
	}

	var mail core.MailSender
	if appConfig.MailEnabled() {
		m, err := mailer.New(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.MailFrom,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Invalid SMTP configuration", zap.Error(err))
		}
		mail = m
	}

	var images core.ImageStore
	if appConfig.UploadsEnabled() {
		s3Store, err := storage.NewS3Storage(initCtx, storage.S3Config{
			Region:          appConfig.S3Region,
			Bucket:          appConfig.S3Bucket,
			AccessKeyID:     appConfig.S3AccessKeyID,
			SecretAccessKey: appConfig.S3SecretAccessKey,
			Endpoint:        appConfig.S3Endpoint,
			PublicBaseURL:   appConfig.S3PublicBaseURL,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize image storage", zap.Error(err))
		}
		images = s3Store
	}

	// --- 4. Services ---
	resolver := core.NewResolverService(cardRepo, cardCache, appConfig.CardCacheTTL, zapLogger)
	share := core.NewShareBuilder(appConfig.PublicBaseURL, appConfig.QRRendererURL, appConfig.QRSize)
	entitlement := core.NewEntitlementService(cardRepo, plans, events, zapLogger)
	services := api.Services{
		Users:         core.NewUserService(userRepo, subscriptionRepo, plans, entitlement, clients.Auth, mail, zapLogger),
		Entitlement:   entitlement,
		Cards:         core.NewCardService(cardRepo, subscriptionRepo, plans, resolver, share, events, zapLogger),
		Resolver:      resolver,
		Subscriptions: core.NewSubscriptionService(subscriptionRepo, plans, events, zapLogger),
		Wallet:        core.NewWalletService(scannedRepo, resolver, events, zapLogger),
		Images:        images,
	}

	// --- 5. HTTP engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured. API might not be accessible from a web frontend.")
	}

	api.SetupRoutes(router, appConfig, zapLogger, clients.Auth, services)

	// --- 6. Serve with graceful shutdown ---
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zapLogger.Info("Server exiting gracefully.")
}

// newCardCache prefers Redis and falls back to an in-process LRU when Redis
// is not configured or unreachable.
func newCardCache(ctx context.Context, appConfig *config.Config, logger *zap.Logger) cache.Cache {
	if appConfig.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.NewRedisCacheConfig{
			Address:   appConfig.RedisAddr,
			Password:  appConfig.RedisPassword,
			DB:        appConfig.RedisDB,
			KeyPrefix: "tapcard:",
		})
		if err == nil {
			logger.Info("Public card cache: redis", zap.String("address", appConfig.RedisAddr))
			return rc
		}
		logger.Warn("Redis unavailable, falling back to in-process card cache", zap.Error(err))
	}
	lc, err := cache.NewLRUCache(appConfig.CardCacheSize)
	if err != nil {
		logger.Fatal("CRITICAL_ERROR: Failed to create in-process card cache", zap.Error(err))
	}
	logger.Info("Public card cache: in-process LRU", zap.Int("size", appConfig.CardCacheSize))
	return lc
}
