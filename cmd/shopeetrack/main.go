package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mdherunjalal99/ShopeeTracker/internal/config"
	"github.com/mdherunjalal99/ShopeeTracker/internal/job"
	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
	"github.com/mdherunjalal99/ShopeeTracker/internal/shopee"
	"github.com/mdherunjalal99/ShopeeTracker/internal/store"
	"github.com/mdherunjalal99/ShopeeTracker/internal/workbook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "shopeetrack",
		Usage: "track Shopee product prices in an Excel workbook",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "fetch today's prices and update the workbook in place",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to the workbook",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "threads",
						Aliases: []string{"t"},
						Usage:   "number of concurrent fetch workers",
						Value:   job.DefaultWorkers,
					},
				},
				Action: runAction,
			},
			{
				Name:  "sample",
				Usage: "generate a sample workbook in the expected layout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "output path",
						Value:   "shopee_sample.xlsx",
					},
				},
				Action: sampleAction,
			},
			{
				Name:  "runs",
				Usage: "list recent runs from the run history",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "number of runs to show",
						Value:   20,
					},
				},
				Action: runsAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("workbook %s: %w", path, err)
	}
	workers := int(cmd.Int("threads"))
	if workers <= 0 {
		return errors.New("threads must be a positive integer")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Warn("load config failed, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	history := openHistory(cfg)
	if history != nil {
		defer history.Close()
	}

	fetcher := shopee.NewFetcher(cfg.Fetch.BaseURL, cfg.Fetch.Timeout(), slog.Default())
	registry := job.NewRegistry(1, time.Minute)
	engine := job.NewEngine(fetcher, registry, history, slog.Default())

	status := job.NewStatus("cli")
	registry.Add(status)

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx, status, path, workers)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			snap := status.Snapshot()
			if err != nil {
				return fmt.Errorf("run failed after %d/%d rows: %w", snap.Progress, snap.Total, err)
			}
			fmt.Printf("done: %d/%d rows, workbook updated at %s\n", snap.Progress, snap.Total, path)
			printResults(snap.Results)
			return nil
		case <-ticker.C:
			snap := status.Snapshot()
			if snap.State == model.JobRunning {
				fmt.Printf("fetching prices... %d/%d\n", snap.Progress, snap.Total)
			}
		}
	}
}

func printResults(results []model.RowResult) {
	for _, r := range results {
		price := "N/A"
		if r.Price != nil {
			price = fmt.Sprintf("%d", *r.Price)
		}
		fmt.Printf("  %-10s %s\n", price, r.Link)
	}
}

func sampleAction(_ context.Context, cmd *cli.Command) error {
	out := cmd.String("out")
	if err := workbook.WriteSample(out, time.Now()); err != nil {
		return err
	}
	fmt.Printf("sample workbook written to %s\n", out)
	return nil
}

func runsAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	history := openHistory(cfg)
	if history == nil {
		return errors.New("run history is not available")
	}
	defer history.Close()

	runs, err := history.ListRuns(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-9s  %3d/%-3d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Processed, r.Total, filepath.Base(r.Workbook))
	}
	return nil
}

func openHistory(cfg *config.AppConfig) *store.Store {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		slog.Warn("data directory unavailable, run history disabled", "error", err)
		return nil
	}
	history, err := store.New(filepath.Join(dataDir, "shopeetracker.db"))
	if err != nil {
		slog.Warn("run history unavailable", "error", err)
		return nil
	}
	return history
}
