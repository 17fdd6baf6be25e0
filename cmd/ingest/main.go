// Command ingest is the Progol data ingestion CLI.
//
// Usage:
//
//	progol-ingest refresh run
//	progol-ingest refresh watch
//	progol-ingest quinielas list --user local
//	progol-ingest quinielas import --file jornada.csv --name "Jornada 12"
//	progol-ingest matches list --league "Liga MX"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quinielago/progol-data/internal/config"
	"github.com/quinielago/progol-data/internal/db"
	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/metrics"
	"github.com/quinielago/progol-data/internal/notify"
	"github.com/quinielago/progol-data/internal/provider/sofascore"
	"github.com/quinielago/progol-data/internal/quiniela"
	"github.com/quinielago/progol-data/internal/refresh"
	"github.com/quinielago/progol-data/internal/scheduler"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "progol-ingest",
		Short: "Progol data ingestion CLI",
	}

	root.AddCommand(refreshCmd())
	root.AddCommand(quinielasCmd())
	root.AddCommand(matchesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// refresh command
// --------------------------------------------------------------------------

func refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run the fetch-diff-update pipeline",
	}
	cmd.AddCommand(refreshRunCmd())
	cmd.AddCommand(refreshWatchCmd())
	return cmd
}

func refreshRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a single refresh cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				start := time.Now()
				result, err := buildEngine(cfg, pool).RunCycle(ctx)
				if err != nil {
					return err
				}
				logger.Info("Refresh finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				for _, f := range result.LeaguesFailed {
					logger.Error("league failed", "league", f.League, "kind", f.Kind, "error", f.Error)
				}
				for _, e := range result.Errors {
					logger.Error("cycle error", "error", e)
				}
				return nil
			})
		},
	}
}

func refreshWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the refresh scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				quinielaStore := quiniela.NewStore(pool.Pool, cfg.MaxQuinielas)
				evaluator := quiniela.NewEvaluator(quinielaStore, quiniela.Mode(cfg.EvaluationMode), logger)

				publisher, err := notify.NewStreamPublisher(cfg.RedisURL, logger)
				if err != nil {
					return fmt.Errorf("connect to redis: %w", err)
				}
				if publisher != nil {
					defer publisher.Close()
				}
				deliverer := notify.NewDeliverer(pool.Pool, publisher, logger)

				sched := scheduler.New(buildEngine(cfg, pool), evaluator, deliverer,
					cfg.UpdateInterval, metrics.NewRecorder(), logger)
				sched.Run(ctx)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// quinielas command
// --------------------------------------------------------------------------

func quinielasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quinielas",
		Short: "Manage quinielas",
	}
	cmd.AddCommand(quinielasListCmd())
	cmd.AddCommand(quinielasImportCmd())
	return cmd
}

func quinielasListCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's quinielas with their score tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := quiniela.NewStore(pool.Pool, cfg.MaxQuinielas)
				qs, err := store.List(ctx, user)
				if err != nil {
					return err
				}
				if len(qs) == 0 {
					fmt.Println("no quinielas")
					return nil
				}
				for _, q := range qs {
					t := quiniela.TallyOf(&q)
					fmt.Printf("%s  %-30q entries=%d correct=%d/%d accuracy=%.1f%%\n",
						q.ID, q.Name, t.Total, t.Correct, t.Decided, t.Accuracy)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "local", "User ID")
	return cmd
}

func quinielasImportCmd() *cobra.Command {
	var (
		file string
		name string
		user string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create quinielas from a CSV fixture list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" || name == "" {
				return fmt.Errorf("--file and --name are required")
			}
			return runWith(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()

				matchStore := match.NewStore(pool.Pool)
				regular, revancha, res, err := quiniela.NewImporter(matchStore).Parse(ctx, f)
				if err != nil {
					return err
				}
				logger.Info("Import parsed", "summary", res.Summary())
				for _, e := range res.Errors {
					logger.Warn("import row skipped", "error", e)
				}

				store := quiniela.NewStore(pool.Pool, cfg.MaxQuinielas)
				if len(regular) > 0 {
					q, err := store.Create(ctx, user, name, false, regular)
					if err != nil {
						return err
					}
					logger.Info("Quiniela created", "id", q.ID, "name", q.Name, "entries", len(q.Entries))
				}
				if len(revancha) > 0 {
					q, err := store.Create(ctx, user, name+" (revancha)", true, revancha)
					if err != nil {
						return err
					}
					logger.Info("Revancha created", "id", q.ID, "name", q.Name, "entries", len(q.Entries))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file (fecha,hora,local,visitante,liga,revancha)")
	cmd.Flags().StringVar(&name, "name", "", "Quiniela name")
	cmd.Flags().StringVar(&user, "user", "local", "User ID")
	return cmd
}

// --------------------------------------------------------------------------
// matches command
// --------------------------------------------------------------------------

func matchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Inspect stored matches",
	}
	cmd.AddCommand(matchesListCmd())
	return cmd
}

func matchesListCmd() *cobra.Command {
	var league string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored matches for a league",
		RunE: func(cmd *cobra.Command, args []string) error {
			if league == "" {
				return fmt.Errorf("--league is required")
			}
			return runWith(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				matches, err := match.NewStore(pool.Pool).ListByLeague(ctx, league)
				if err != nil {
					return err
				}
				for _, m := range matches {
					score := "-"
					if m.Score != nil {
						score = fmt.Sprintf("%d-%d", m.Score.Home, m.Score.Away)
					}
					fmt.Printf("%s  %-50s %-12s %s\n", m.ID, m.Fixture(), m.Status, score)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&league, "league", "", "League name")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildEngine(cfg *config.Config, pool *db.Pool) *refresh.Engine {
	client := sofascore.NewClient("", cfg.FetchTimeout, cfg.FetchPerMinute, logger)
	fetcher := sofascore.NewFetcher(client)
	return refresh.New(fetcher, match.NewStore(pool.Pool), cfg.Leagues, cfg.CurrentSeason, logger)
}

// runWith handles config loading, DB connection, and context cancellation.
func runWith(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
