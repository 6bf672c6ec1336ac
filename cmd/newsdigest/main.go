package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/newsdigest/newsdigest/internal/pipeline"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "newsdigest",
		Short: "newsdigest — RSS news to AI-curated email newsletter",
		Long: "Collects articles from RSS feeds, categorizes them by keyword,\n" +
			"selects and summarizes the strongest stories with Gemini, and\n" +
			"emails the rendered newsletter.",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage: true,
	}

	root.AddCommand(
		collectCmd(),
		buildCmd(),
		sendCmd(),
		runCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch feeds and write the article file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return p.Collect(ctx)
		},
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Select, summarize, and render the newsletter documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return p.Build(ctx)
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Email the rendered newsletter to the recipients",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New()
			if err != nil {
				return err
			}
			return p.Send()
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run collect, build, and send once",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return p.Run(ctx)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the full pipeline on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			c := cron.New()
			if _, err := c.AddFunc(p.Config.CronSchedule, func() {
				log.Printf("🕐 Scheduled run starting")
				if err := p.Run(ctx); err != nil {
					log.Printf("❌ Scheduled run failed: %v", err)
				} else {
					log.Printf("✅ Scheduled run completed")
				}
			}); err != nil {
				return fmt.Errorf("invalid cron schedule %q: %w", p.Config.CronSchedule, err)
			}

			c.Start()
			defer c.Stop()
			log.Printf("📅 Scheduled pipeline with cron: %s", p.Config.CronSchedule)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan
			log.Println("🛑 Shutting down...")

			cancel()
			c.Stop()
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsdigest %s\n", Version)
			fmt.Printf("Commit: %s\n", Commit)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	}
}
