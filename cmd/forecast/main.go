// cmd/forecast/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
	"github.com/supawave/pos-ecosystem/backend-go/pkg/logger"
)

func main() {
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "forecast",
		Usage: "Demand forecasts and reorder recommendations from the command line",
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "recommend",
				Usage: "Rank reorder recommendations for a business",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Only show these priorities (comma-separated: critical,high,medium)",
					},
				},
				Action: runRecommend,
			},
			{
				Name:  "forecast",
				Usage: "Forecast daily demand for one product",
				Flags: []cli.Flag{
					productFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Forecast horizon in days",
						Value: 14,
					},
				},
				Action: runForecast,
			},
			{
				Name:   "trend",
				Usage:  "Classify the sales trend of one product",
				Flags:  []cli.Flag{productFlag()},
				Action: runTrend,
			},
			{
				Name:  "dashboard",
				Usage: "Summarize recommendations by priority and cost",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore and replace the cached dashboard",
					},
				},
				Action: runDashboard,
			},
			{
				Name:   "export",
				Usage:  "Write recommendations as CSV to object storage or the export dir",
				Action: runExport,
			},
			{
				Name:  "cache",
				Usage: "Manage the Redis dashboard cache",
				Subcommands: []*cli.Command{
					{
						Name:  "flush",
						Usage: "Drop the cached dashboard of --business, or of every business with --all",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "all", Usage: "Flush every business"},
						},
						Action: runCacheFlush,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func productFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "product",
		Usage:    "Product id",
		Required: true,
	}
}

func runRecommend(c *cli.Context) error {
	priorities, err := domain.ParsePriorities(c.String("priority"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.service.RecommendReorders(c.Context, rt.businessID)
	if report != nil {
		if encErr := printJSON(report.WithPriorities(priorities)); encErr != nil {
			return encErr
		}
	}
	return err
}

func runForecast(c *cli.Context) error {
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.service.ForecastProduct(c.Context, rt.businessID, c.String("product"), c.Int("days"))
	if err != nil {
		if forecast.IsInvalidInput(err) {
			return cli.Exit(err.Error(), 2)
		}
		return err
	}
	return printJSON(result)
}

func runTrend(c *cli.Context) error {
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.service.AnalyzeProductTrend(c.Context, rt.businessID, c.String("product"))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runDashboard(c *cli.Context) error {
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	load := rt.service.GetDashboard
	if c.Bool("refresh") {
		load = rt.service.RefreshDashboard
	}
	dashboard, err := load(c.Context, rt.businessID)
	if dashboard != nil {
		if encErr := printJSON(dashboard); encErr != nil {
			return encErr
		}
	}
	return err
}

func runExport(c *cli.Context) error {
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.service.ExportRecommendations(c.Context, rt.businessID)
	if result != nil {
		if encErr := printJSON(result); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func runCacheFlush(c *cli.Context) error {
	dashboards, err := dashboardCache(c)
	if err != nil {
		return err
	}
	if dashboards == nil {
		return cli.Exit("--redis-url is required to flush the dashboard cache", 2)
	}

	scope := c.String("business")
	if c.Bool("all") {
		scope = "*"
		err = dashboards.InvalidateAll(c.Context)
	} else {
		err = dashboards.Invalidate(c.Context, scope)
	}
	if err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}
	return printJSON(map[string]string{"flushed": scope})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
