// Copyright 2025 The kagent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/QuantumByte-01/kagent"
	"github.com/QuantumByte-01/kagent/index"
	"github.com/QuantumByte-01/kagent/pipeline"
	"github.com/QuantumByte-01/kagent/preprocess"
)

func main() {
	app := &cli.App{
		Name:  "kagent",
		Usage: "Harvest and preprocess neuroscience dataset metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "harvest",
				Usage:  "Extract, preprocess and persist records for one or more datasources",
				Action: harvestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the checkpoint database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "bucket",
						Aliases:  []string{"b"},
						Usage:    "Object storage bucket for raw and processed payloads",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "config-dir",
						Aliases:  []string{"c"},
						Usage:    "Directory of datasource config YAML files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "index",
						Usage: "Index name to extract from (defaults to the datasource ID)",
					},
					&cli.StringSliceFlag{
						Name:    "datasource",
						Aliases: []string{"s"},
						Usage:   "Datasource ID to harvest (repeatable; default: all configured)",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Records per index page",
						Value: index.DefaultPageSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size for per-record processing",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "parallel",
						Usage: "Number of datasources harvested concurrently",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for storage writes",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
				},
			},
			{
				Name:   "sources",
				Usage:  "List the datasources configured in a config directory",
				Action: sourcesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config-dir",
						Aliases:  []string{"c"},
						Usage:    "Directory of datasource config YAML files",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func harvestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Int("page-size") <= 0 {
		return fmt.Errorf("page-size must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	parallel := c.Int("parallel")
	if parallel < 1 {
		parallel = 1
	}

	harvester, err := kagent.NewHarvester(ctx, c.String("db"), c.String("bucket"),
		kagent.WithPageSize(c.Int("page-size")))
	if err != nil {
		return fmt.Errorf("failed to open harvester: %w", err)
	}
	defer harvester.Close()

	if err := harvester.LoadConfigs(c.String("config-dir")); err != nil {
		return fmt.Errorf("failed to load datasource configs: %w", err)
	}

	datasources := c.StringSlice("datasource")
	if len(datasources) == 0 {
		datasources = harvester.Registry().IDs()
	}
	if len(datasources) == 0 {
		return fmt.Errorf("no datasources configured in %s", c.String("config-dir"))
	}

	runConfig := &pipeline.Config{
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		ReportInterval: c.Int("report-interval"),
	}

	fmt.Fprintf(os.Stderr, "Checkpoint database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Bucket: %s\n", c.String("bucket"))
	fmt.Fprintf(os.Stderr, "Datasources: %s\n", strings.Join(datasources, ", "))
	fmt.Fprintln(os.Stderr)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for _, datasourceID := range datasources {
		group.Go(func() error {
			indexName := c.String("index")
			if indexName == "" {
				indexName = datasourceID
			}

			runner, err := harvester.NewRunner(
				pipeline.WithWorkers(c.Int("workers")),
				pipeline.WithConfig(runConfig),
				pipeline.WithProgress(os.Stderr),
			)
			if err != nil {
				return fmt.Errorf("failed to create runner for %s: %w", datasourceID, err)
			}
			defer runner.Release()

			summary, err := runner.Run(ctx, datasourceID, indexName)
			if err != nil {
				return fmt.Errorf("harvest of %s failed: %w", datasourceID, err)
			}

			fmt.Fprintf(os.Stderr, "%s: %d pages, %d extracted, %d processed, %d skipped\n",
				datasourceID, summary.Pages, summary.Extracted, summary.Processed, summary.Skipped())
			return nil
		})
	}
	return group.Wait()
}

func sourcesCommand(c *cli.Context) error {
	registry := preprocess.NewRegistry()
	if err := registry.LoadDir(c.String("config-dir")); err != nil {
		return fmt.Errorf("failed to load datasource configs: %w", err)
	}

	ids := registry.IDs()
	if len(ids) == 0 {
		fmt.Println("No datasources configured")
		return nil
	}
	for _, id := range ids {
		config, err := registry.Resolve(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", id, config.Name)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
