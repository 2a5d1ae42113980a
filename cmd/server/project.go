package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/projector"
)

var (
	projectPrincipal string
	projectProfit    string
	projectStart     string
	projectMaturity  string
	projectAt        string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Print the projection of a package position at an instant",
	Example: `  aurora project --principal 1000 --profit 300 \
    --start 2026-01-01T00:00:00Z --maturity 2026-01-31T00:00:00Z --at 2026-01-16T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projectPrincipal, "principal", "", "amount invested")
	projectCmd.Flags().StringVar(&projectProfit, "profit", "", "profit promised at maturity")
	projectCmd.Flags().StringVar(&projectStart, "start", "", "start time (RFC 3339)")
	projectCmd.Flags().StringVar(&projectMaturity, "maturity", "", "maturity time (RFC 3339)")
	projectCmd.Flags().StringVar(&projectAt, "at", "", "instant to project at (RFC 3339, default now)")
	for _, name := range []string{"principal", "profit", "start", "maturity"} {
		_ = projectCmd.MarkFlagRequired(name)
	}
}

func runProject(cmd *cobra.Command, args []string) error {
	principal, err := decimal.NewFromString(projectPrincipal)
	if err != nil {
		return fmt.Errorf("invalid principal: %w", err)
	}
	profit, err := decimal.NewFromString(projectProfit)
	if err != nil {
		return fmt.Errorf("invalid profit: %w", err)
	}
	start, err := time.Parse(time.RFC3339, projectStart)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	maturity, err := time.Parse(time.RFC3339, projectMaturity)
	if err != nil {
		return fmt.Errorf("invalid maturity: %w", err)
	}
	at := time.Now()
	if projectAt != "" {
		if at, err = time.Parse(time.RFC3339, projectAt); err != nil {
			return fmt.Errorf("invalid at: %w", err)
		}
	}

	position, err := domain.NewPackagePosition(uuid.New(), uuid.Nil, "", principal, profit, start, maturity, "")
	if err != nil {
		return err
	}

	p := projector.Project(position, at)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "percent_complete: %s\n", p.PercentComplete.StringFixed(2))
	fmt.Fprintf(out, "current_value:    %s\n", p.CurrentValue.StringFixed(2))
	fmt.Fprintf(out, "ready_to_claim:   %t\n", p.ReadyToClaim)
	return nil
}
