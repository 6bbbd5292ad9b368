package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setPlanCmd changes a user's plan without a payment step
var setPlanCmd = &cobra.Command{
	Use:   "set-plan <uid> <plan>",
	Short: "Assign a plan to a user without payment",
	Long: `Assign a plan to a user directly. Any pending plan is cleared and the
user's card counter is left untouched, so a downgrade below the number of
cards already created blocks further creation until an upgrade.`,
	Args: cobra.ExactArgs(2),
	RunE: runSetPlan,
}

func runSetPlan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	sub, err := b.subscriptions.SetPlan(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("set-plan %s: %w", args[0], err)
	}
	logger.Info("Plan assigned", zap.String("uid", sub.UID), zap.String("plan", sub.Plan), zap.Int("maxCards", sub.MaxCards))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: plan=%s maxCards=%d cardsCreated=%d\n", sub.UID, sub.Plan, sub.MaxCards, sub.CardsCreated)
	return nil
}
