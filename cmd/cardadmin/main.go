package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/core"
	"tapcard-backend/internal/db"
)

var (
	verbose bool
	timeout time.Duration

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cardadmin",
	Short: "Operator tooling for the card backend",
	Long: `cardadmin performs operator tasks against the card backend's
Firestore project: changing a user's plan without payment and bulk
importing team profiles.

It reads the same environment (or .env file) as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	importProfilesCmd.Flags().StringVar(&importPassword, "password", "", "Initial password for newly created accounts (required)")
	importProfilesCmd.Flags().StringVar(&importPlan, "plan", "", "Plan to assign to every imported user")
	_ = importProfilesCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(setPlanCmd)
	rootCmd.AddCommand(importProfilesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// backend is the slice of the server's wiring the admin commands need.
type backend struct {
	clients       *db.Clients
	users         core.UserService
	subscriptions core.SubscriptionService
}

func (b *backend) Close() {
	if b.clients != nil {
		b.clients.Close()
	}
}

func openBackend(ctx context.Context) (*backend, error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	plans, err := config.LoadPlanCatalog(appConfig.PlansFile)
	if err != nil {
		return nil, err
	}
	clients, err := db.InitFirestore(ctx, appConfig, logger)
	if err != nil {
		return nil, err
	}

	cardRepo := db.NewFirestoreCardRepository(clients.Firestore)
	subscriptionRepo := db.NewFirestoreSubscriptionRepository(clients.Firestore)
	userRepo := db.NewFirestoreUserRepository(clients.Firestore)
	events := core.NopEventPublisher()
	entitlement := core.NewEntitlementService(cardRepo, plans, events, logger)

	return &backend{
		clients:       clients,
		users:         core.NewUserService(userRepo, subscriptionRepo, plans, entitlement, clients.Auth, nil, logger),
		subscriptions: core.NewSubscriptionService(subscriptionRepo, plans, events, logger),
	}, nil
}
