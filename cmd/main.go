package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"clinic-management-api/cmd/bootstrap"
	"clinic-management-api/config"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/infrastructure/database"
	"clinic-management-api/pkg/validator"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Multi-tenant clinic management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(superuserCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := bootstrap.NewLogger(cfg.App)
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(m *database.Migrator, log *logrus.Logger) error) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := database.NewMigrator(cfg.DB, log)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m, log)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator, _ *logrus.Logger) error {
				return m.Up()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			return withMigrator(func(m *database.Migrator, _ *logrus.Logger) error {
				return m.Down(steps)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator, log *logrus.Logger) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Schema version")
				return nil
			})
		},
	})

	return cmd
}

func superuserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superuser",
		Short: "Manage platform superusers",
	}

	var req dto.CreateSuperuserRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a superuser that is not bound to any clinic",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validator.NewValidator()
			if err := v.Validate(&req); err != nil {
				return fmt.Errorf("invalid superuser: %v", v.FormatValidationErrors(err))
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Scheduler.Enabled = false

			ctx := cmd.Context()
			app, err := bootstrap.New(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Close()

			user, err := app.Usecases.User.CreateSuperuser(ctx, &req)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"id": user.ID, "username": user.Username}).Info("Superuser created")
			return nil
		},
	}
	create.Flags().StringVar(&req.Username, "username", "", "Login username")
	create.Flags().StringVar(&req.Email, "email", "", "Login email")
	create.Flags().StringVar(&req.Password, "password", "", "Initial password")
	create.MarkFlagRequired("username")
	create.MarkFlagRequired("email")
	create.MarkFlagRequired("password")
	cmd.AddCommand(create)

	return cmd
}
