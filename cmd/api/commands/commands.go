package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/taskboardx/core/internal/adapters/repository"
	"github.com/taskboardx/core/internal/application/services"
	"github.com/taskboardx/core/internal/infrastructure/config"
	"github.com/taskboardx/core/internal/infrastructure/database"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/infrastructure/server"
	"github.com/taskboardx/core/internal/infrastructure/storage"
	"github.com/taskboardx/core/internal/ports"
)

// app is everything a command needs after startup
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	store    ports.KeyValueStore
	repos    *repository.Repositories
	services *services.Services
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warnw("Failed to close storage")
	}
	_ = a.logger.Close()
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store, err := storage.Open(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(store, appLogger, m, ports.SystemClock)
	svc := services.New(repos.Projects, repos.Tasks, repos.Profile, ports.SystemClock, appLogger, m)

	return &app{cfg: cfg, logger: appLogger, metrics: m, store: store, repos: repos, services: svc}, nil
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskBoardX API server",
		Long:  "Start the TaskBoardX API server with all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

func runServer() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	srv := server.New(a.cfg, a.services, a.store, a.logger, a.metrics)

	a.logger.Infow("Starting TaskBoardX API server",
		"port", a.cfg.Server.Port,
		"environment", a.cfg.App.Environment,
		"storage", a.store.Driver(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorw("Server failed", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the kv_store schema of the postgres and sqlite storage drivers (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

func openMigrator() (*migrate.Migrate, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres && cfg.Storage.Driver != config.DriverSQLite {
		log.Fatalf("Migrations apply to the postgres and sqlite drivers only, storage driver is %q", cfg.Storage.Driver)
	}

	db, err := database.New(cfg.Storage.Driver, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	m, err := db.Migrator()
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	return m, func() { db.Close() }
}

func runMigration(direction string) {
	m, closeDB := openMigrator()
	defer closeDB()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m, closeDB := openMigrator()
	defer closeDB()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return
	}
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

// NewProjectCommand creates the project management command
func NewProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	projectCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.services.Projects.ListProjects(ctx)
		}),
	})

	projectCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.services.Projects.DeleteProject(ctx, args[0])
		}),
	})

	return projectCmd
}

// NewTaskCommand creates the task command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task commands",
	}

	taskCmd.AddCommand(&cobra.Command{
		Use:   "move <id> <target>",
		Short: "Move a task to a status lane or to the lane of another task",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.services.Board.Move(ctx, args[0], args[1])
		}),
	})

	return taskCmd
}

// NewProfileCommand creates the profile command
func NewProfileCommand() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Local profile commands",
	}

	profileCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the local profile",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.services.Profile.GetProfile(ctx)
		}),
	})

	return profileCmd
}

// NewRepairCommand creates the repair command
func NewRepairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rebuild project task indexes and delete orphaned tasks",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.services.Projects.Repair(ctx)
		}),
	}
}

// NewStoreCommand creates the storage inspection command
func NewStoreCommand() *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and reset the configured storage backend",
	}

	storeCmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the keys present in the storage backend",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			return a.repos.Keys(ctx)
		}),
	})

	storeCmd.AddCommand(&cobra.Command{
		Use:       "reset <key>...",
		Short:     "Delete collections so they are seeded again on next load",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: repository.CollectionKeys(),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (interface{}, error) {
			if err := a.repos.Reset(ctx, args...); err != nil {
				return nil, err
			}
			return map[string][]string{"reset": args}, nil
		}),
	})

	return storeCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskBoardX version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", cfg.App.Name, cfg.App.Version)
		},
	}
}

// withApp boots the application, runs fn and prints its result as JSON
func withApp(fn func(ctx context.Context, a *app, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := fn(ctx, a, args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}
