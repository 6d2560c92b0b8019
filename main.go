// Package main provides the main entry point for the demo catalog service
//
// @title Demo Catalog API
// @version 1.0
// @description CRUD service over the demo collection with atomically allocated ids.
// @BasePath /
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirphl/crud-project/config"
	"github.com/amirphl/crud-project/migrations"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crud-project",
	Short: "Demo catalog CRUD service",
	Long: `crud-project serves CRUD endpoints over the demo collection. Demo ids come from
a durable named counter that is incremented atomically in PostgreSQL or Redis.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting demo catalog application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logOutput, closeLogs := initializeLogging(cfg.Logging)
	defer closeLogs()

	app, err := initializeApplication(cfg, logOutput)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		address := cfg.Server.Address()
		log.Printf("Server starting on %s", address)
		serverErr <- app.router.Start(address)
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required to run migrations")
	}

	if err := migrations.ApplyURL(cfg.Database.URL); err != nil {
		return err
	}
	log.Println("Migrations applied")
	return nil
}
