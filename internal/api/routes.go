package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/core"
	"tapcard-backend/internal/middleware"
)

// Services bundles the core services the HTTP layer dispatches to.
type Services struct {
	Users         core.UserService
	Entitlement   core.EntitlementService
	Cards         core.CardService
	Resolver      core.ResolverService
	Subscriptions core.SubscriptionService
	Wallet        core.WalletService
	// Images is nil when no image host is configured; POST /uploads is then
	// not registered.
	Images core.ImageStore
}

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is applied by the
// caller.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	svc Services,
) {
	// Request bodies are strict: a misspelled field is an error, not a no-op.
	binding.EnableDecoderDisallowUnknownFields = true

	authMW := middleware.NewAuthMiddleware(verifier, logger)
	requireAuth := authMW.VerifyToken()

	authHandler := NewAuthHandler(svc.Users, logger, !appConfig.IsRelease())
	userHandler := NewUserHandler(svc.Users, svc.Subscriptions, svc.Cards, logger)
	cardHandler := NewCardHandler(svc.Entitlement, svc.Cards, svc.Resolver, logger)
	vcardHandler := NewVCardHandler(svc.Users, svc.Resolver, logger)
	walletHandler := NewWalletHandler(svc.Wallet, logger)
	subscriptionHandler := NewSubscriptionHandler(svc.Subscriptions, logger)

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			users.POST("/initialize", requireAuth, authHandler.InitializeUserProfile)
			users.POST("/register", requireAuth, authHandler.Register)
			users.POST("/forgot-password", authHandler.ForgotPassword)
			users.GET("/me", requireAuth, userHandler.GetCurrentUserProfile)
			users.PUT("/me", requireAuth, userHandler.UpdateCurrentUserProfile)
		}

		// Public lookups need no identity.
		apiV1.GET("/cards/public/*link", cardHandler.GetPublicCard)
		apiV1.GET("/vcard", vcardHandler.GetVCard)

		cards := apiV1.Group("/cards", requireAuth)
		{
			cards.POST("", cardHandler.CreateCard)
			cards.GET("/me", cardHandler.ListMyCards)
			cards.GET("/:cardId", cardHandler.GetCard)
			cards.GET("/:cardId/share", cardHandler.ShareCard)
			cards.PUT("/:cardId", cardHandler.UpdateCard)
			cards.DELETE("/:cardId", cardHandler.DeleteCard)
		}

		scanned := apiV1.Group("/scanned", requireAuth)
		{
			scanned.POST("", walletHandler.SaveScannedCard)
			scanned.GET("/me", walletHandler.GetMyScannedCards)
		}

		subscription := apiV1.Group("/subscription", requireAuth)
		{
			subscription.GET("", subscriptionHandler.GetSubscription)
			subscription.GET("/plans", subscriptionHandler.ListPlans)
			subscription.POST("/select", subscriptionHandler.SelectPlan)
			subscription.POST("/confirm-payment", subscriptionHandler.ConfirmPayment)
		}

		if svc.Images != nil {
			uploadHandler := NewUploadHandler(svc.Images, appConfig.UploadMaxBytes, logger)
			apiV1.POST("/uploads", requireAuth, uploadHandler.UploadImage)
		} else {
			logger.Info("Image uploads disabled: no image host configured")
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Card backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
