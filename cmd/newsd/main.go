// newsd ingests news, scores its likely market impact and serves the
// results to the dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/query"
	"news-impact-engine/internal/store"
	"news-impact-engine/internal/trace"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *store.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "newsd",
	Short:         "News-to-market impact pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := initializeSystem(); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = loadConfig(cmd.Context(), path)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsd %s (%s)\n", version, commit)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled pipeline and the HTTP/WebSocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := initializeApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		go app.engine.Start(ctx, cfg.Pipeline.Interval.D())

		logger.Info(ctx, "News impact engine started",
			"addr", cfg.HTTP.Addr,
			"interval", cfg.Pipeline.Interval.D().String(),
			"version", version,
		)
		if err := app.server.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
			logger.ErrorWithErr(ctx, "HTTP server stopped", err)
			return err
		}
		logger.Info(ctx, "Shutting down...")
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single cycle and print the sentiment summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := initializeApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := app.pipeline.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("cycle failed: %w", err)
		}

		svc := query.NewService(app.pipeline)
		summary, err := svc.SentimentSummary()
		if err != nil {
			return err
		}
		feed, err := svc.Feed("", query.DefaultLimit)
		if err != nil {
			return err
		}

		out := map[string]any{
			"cycle_id":   snap.CycleID,
			"source":     snap.Source,
			"degraded":   snap.Degraded,
			"recoveries": len(snap.Recoveries),
			"summary":    summary,
			"articles":   feed.Articles,
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}
