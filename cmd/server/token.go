package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redcloud442/aurora/internal/adapter/auth"
	"github.com/redcloud442/aurora/internal/config"
)

var (
	tokenMember string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a member access token signed with AURORA_JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenMember, "member", "", "member id")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("member")
}

func runToken(cmd *cobra.Command, args []string) error {
	memberID, err := uuid.Parse(tokenMember)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return err
	}

	token, err := verifier.Issue(memberID, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
