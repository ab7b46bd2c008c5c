package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/app"
	"github.com/andresuchdata/dialfa-analytics/internal/config"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/andresuchdata/dialfa-analytics/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const appKeyName = "app"

func initApp(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(os.Stderr, true)
	logger.SetLevel(c.String("log-level"))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	c.App.Metadata[appKeyName] = a
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.App.Metadata[appKeyName].(*app.App); ok && a != nil {
		a.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app.App {
	return c.App.Metadata[appKeyName].(*app.App)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	windowFlag := &cli.IntFlag{
		Name:  "window",
		Usage: "Demand window in days (30, 90, 180 or 365); 0 uses the configured default",
	}

	cliApp := &cli.App{
		Name:  "analytics",
		Usage: "Run dashboard analytics from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Metadata: map[string]interface{}{},
		Before:   initApp,
		After:    closeApp,
		Commands: []*cli.Command{
			{
				Name:  "reorder",
				Usage: "Print the reorder analysis, or its summary with --summary",
				Flags: []cli.Flag{
					windowFlag,
					&cli.BoolFlag{Name: "summary", Usage: "Print the summary only"},
				},
				Action: func(c *cli.Context) error {
					purchase := fromContext(c).Purchase
					if c.Bool("summary") {
						summary, err := purchase.ReorderSummary(c.Context, c.Int("window"))
						if err != nil {
							return err
						}
						return printJSON(summary)
					}
					records, err := purchase.ReorderAnalysis(c.Context, c.Int("window"))
					if err != nil {
						return err
					}
					return printJSON(records)
				},
			},
			{
				Name:  "forecast",
				Usage: "Print a monthly forecast for the payments or revenue series",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "series", Value: domain.RevenueSource.Name, Usage: "payments or revenue"},
					&cli.IntFlag{Name: "months", Usage: "Forecast horizon; 0 uses the configured default"},
					&cli.StringFlag{Name: "order", Value: string(analytics.OrderAscending), Usage: "asc or desc"},
				},
				Action: func(c *cli.Context) error {
					source, err := domain.ParseSeriesSource(c.String("series"))
					if err != nil {
						return err
					}
					records, err := fromContext(c).Financial.Forecast(c.Context, source, c.Int("months"), analytics.ParseSortOrder(c.String("order")))
					if err != nil {
						return err
					}
					return printJSON(records)
				},
			},
			{
				Name:  "warm",
				Usage: "Recompute cached datasets now",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "dataset", Usage: "Only warm these datasets (repeatable)"},
				},
				Action: func(c *cli.Context) error {
					run, err := fromContext(c).WarmupRunner().Run(c.Context, c.StringSlice("dataset")...)
					if err != nil {
						return err
					}
					for _, res := range run.Results {
						log.Info().Str("dataset", res.Name).Str("status", string(res.Status)).Int("attempts", res.Attempts).Dur("duration", res.Duration).Msg("warm-up result")
					}
					if failed := run.Failed(); len(failed) > 0 {
						names := make([]string, 0, len(failed))
						for _, f := range failed {
							names = append(names, f.Name)
						}
						return fmt.Errorf("warm-up failed for %s", strings.Join(names, ", "))
					}
					return nil
				},
			},
			{
				Name:   "export-reorder",
				Usage:  "Upload the reorder analysis as CSV to object storage",
				Flags:  []cli.Flag{windowFlag},
				Action: func(c *cli.Context) error {
					key, err := fromContext(c).ExportReorder(c.Context, c.Int("window"))
					if err != nil {
						return err
					}
					fmt.Println(key)
					return nil
				},
			},
			{
				Name:      "clear-cache",
				Usage:     "Drop cached results for one dataset, or all with no argument",
				ArgsUsage: "[dataset]",
				Action:    func(c *cli.Context) error {
					a := fromContext(c)
					var (
						deleted int64
						err     error
					)
					if dataset := c.Args().First(); dataset != "" {
						if !service.KnownDataset(dataset) {
							return fmt.Errorf("unknown dataset %q", dataset)
						}
						deleted, err = a.Cache.InvalidateDataset(c.Context, dataset)
					} else {
						deleted, err = a.Cache.InvalidateAll(c.Context)
					}
					if err != nil {
						return err
					}
					log.Info().Int64("deleted", deleted).Msg("cache cleared")
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analytics command failed")
	}
}
