// Package main is the operator CLI for CivicDesk. It talks to Postgres
// directly and skips Redis, so changes made here are not pushed live.
package main

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/assignment"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/dashboard"
	"civicdesk/backend/internal/logger"
	"civicdesk/backend/internal/storage"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	actorID    string
	password   string
)

// app holds the services a command needs.
type app struct {
	store       *storage.Service
	auth        *auth.Service
	complaints  *complaint.Service
	assignments *assignment.Service
	dashboard   *dashboard.Service
	logger      *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "CivicDesk administration commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CIVICDESK_CONFIG"), "path to the config file")
	setStatusCmd.Flags().StringVar(&actorID, "actor", "", "id of the administrator recorded as resolver")
	_ = setStatusCmd.MarkFlagRequired("actor")
	createGodCmd.Flags().StringVar(&password, "password", "", "initial password, falls back to $CIVICDESK_ADMIN_PASSWORD")

	rootCmd.AddCommand(assignCmd, unassignCmd, setStatusCmd, leaderboardCmd, scoreCmd, createGodCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.New("warn", cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenPostgres(cfg.Database.URL, false)
	if err != nil {
		return nil, err
	}

	store := storage.NewStorageService(db, nil, cfg.Redis.ChangeChannel) // No redis needed for admin CLI
	complaints := complaint.NewService(store, zl)
	return &app{
		store:       store,
		auth:        auth.NewService(store, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, cfg.Auth.Issuer),
		complaints:  complaints,
		assignments: assignment.NewService(store, zl),
		dashboard:   dashboard.NewService(store, complaints, analysis.NewVaderScorer(), cfg.Heatmap.Resolution),
		logger:      zl,
	}, nil
}
