package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stake-plus/trustek/src/auth"
	"github.com/stake-plus/trustek/src/data"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for a user",
	Long: `Mints an HS256 token signed with the configured JWT secret. When a redis
URL is configured the session is also registered so it can be revoked.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id placed in the sub claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	signed, sessionID, err := auth.IssueToken([]byte(cfg.Server.JWTSecret), tokenUser, "", tokenTTL)
	if err != nil {
		return err
	}

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		if err := auth.NewRedisSessions(rdb).Create(ctx, sessionID, tokenUser, tokenTTL); err != nil {
			return fmt.Errorf("register session: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
