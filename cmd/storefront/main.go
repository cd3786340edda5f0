package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nashcompany/storefront/internal/cart"
	"github.com/nashcompany/storefront/internal/config"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/nashcompany/storefront/internal/storage"
)

// Version is set at build time.
var Version = "dev"

const sessionTTL = 24 * time.Hour

// app is the state shared by every subcommand: one storefront "page load".
type app struct {
	cfg     *config.Storefront
	log     *slog.Logger
	local   storage.Storage
	session storage.Storage
	store   *cart.Store
	view    *cart.View
	redis   *redis.Client
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "NASH COMPANY storefront cart and checkout",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.AddCommand(cartCmd(a))
	rootCmd.AddCommand(checkoutCmd(a))
	rootCmd.AddCommand(countdownCmd(a))
	rootCmd.AddCommand(popupCmd(a))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) open(cmd *cobra.Command) error {
	config.Load()
	cfg, err := config.LoadStorefront()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(os.Stderr, cfg.LogLevel)

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := a.redis.Ping(cmd.Context()).Err(); err != nil {
			return fmt.Errorf("redis storage unavailable: %w", err)
		}
		a.local = storage.NewRedisStorage(a.redis, "local", 0)
		a.session = storage.NewRedisStorage(a.redis, "session", sessionTTL)
	} else {
		a.local = storage.NewFileStorage(cfg.StoragePath)
		a.session = storage.NewFileStorage(cfg.SessionPath)
	}

	a.store = cart.NewStore(a.local, a.log)
	a.view = cart.NewView(a.store, cmd.OutOrStdout())
	a.store.Load(cmd.Context())
	return nil
}

func (a *app) close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
