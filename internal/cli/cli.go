package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/app"
	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/dto"
	"github.com/Additional-Code/brewbar/internal/migration"
	"github.com/Additional-Code/brewbar/internal/provision"
	"github.com/Additional-Code/brewbar/internal/seeder"
	menusvc "github.com/Additional-Code/brewbar/internal/service/menu"
	statssvc "github.com/Additional-Code/brewbar/internal/service/stats"
)

// NewRootCommand builds the root brewbar CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "brewbar",
		Short:         "Brewbar café ledger toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newProvisionCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newMenuCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the brewbar CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Module)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				v, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migration version %d\n", v)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func newProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create and seed the ledger tables if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			var prov *provision.Provisioner
			opts := fx.Options(app.Core, fx.Populate(&prov))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				res, err := prov.Provision(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"source":        res.Source,
					"seeded":        res.Seeded,
					"already_ready": res.AlreadyReady,
				})
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Place demo orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				placed, err := seed.Orders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seed data applied (%d orders)\n", placed)
				return nil
			})
		},
	}
}

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Print the menu catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var menu *menusvc.Service
			opts := fx.Options(app.Core, fx.Populate(&menu))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				items, err := menu.List(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), dto.FromMenu(items))
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print today's order statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats *statssvc.Service
			opts := fx.Options(app.Core, fx.Populate(&stats))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				snapshot, err := stats.Compute(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), snapshot)
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-application.Done():
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

// runWithApp starts a short-lived graph for one-shot commands. Provisioning
// warm-up is turned off so each command controls when the ledger is touched.
func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.Decorate(oneShotConfig), fx.NopLogger)
	if err := application.Err(); err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}

func oneShotConfig(cfg config.Config) config.Config {
	cfg.Ledger.ProvisionOnStart = false
	cfg.Messaging.Workers.Enabled = false
	return cfg
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
