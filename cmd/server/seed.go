package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redcloud442/aurora/internal/adapter/repository/postgres"
	"github.com/redcloud442/aurora/internal/config"
	"github.com/redcloud442/aurora/internal/usecase/seeder"
)

var seedMember string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo packages and an earnings row for a member",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedMember, "member", "", "member id")
	_ = seedCmd.MarkFlagRequired("member")
}

func runSeed(cmd *cobra.Command, args []string) error {
	memberID, err := uuid.Parse(seedMember)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := postgres.NewDB(ctx, cfg.DB.ConnString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	demoSeeder := seeder.NewDemoSeeder(
		postgres.NewPositionRepository(db),
		postgres.NewPositionWriter(db),
		postgres.NewEarningsRepository(db),
		postgres.NewEarningsWriter(db),
		logger,
	)
	return demoSeeder.Seed(ctx, memberID)
}
