package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"offer-dispatch/internal/allocation"
	"offer-dispatch/internal/config"
	"offer-dispatch/internal/data"
	"offer-dispatch/internal/engine"
	"offer-dispatch/internal/indexer"
	"offer-dispatch/internal/model"
	"offer-dispatch/internal/result"
)

func main() {
	app := &cli.App{
		Name:  "offerctl",
		Usage: "Evaluate energy supply offers and allocate them to demand",
		Commands: []*cli.Command{
			allocateCmd,
			projectCmd,
			statsCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

var allocateCmd = &cli.Command{
	Name:    "allocate",
	Usage:   "Run the full pipeline: catalog, eligibility, allocation, report",
	Aliases: []string{"a"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "demand",
			Required: true,
			Usage:    "path to the demand JSON",
		},
		&cli.StringFlag{
			Name:     "offers",
			Required: true,
			Usage:    "path to the offers JSON",
		},
		&cli.StringFlag{
			Name:  "indexers",
			Usage: "path to the indexer series JSON (required for indexed offers)",
		},
		&cli.StringFlag{
			Name:  "references",
			Usage: "path to the reference price JSON (required for the k-factor rule)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to the YAML run config",
		},
		&cli.StringFlag{
			Name:  "out",
			Value: "results",
			Usage: "output directory for the CSV tables",
		},
	},
	Action: runAllocate,
}

func runAllocate(c *cli.Context) error {
	log := newLogger()

	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	demand, grid, err := data.LoadDemandJSON(c.String("demand"))
	if err != nil {
		return fmt.Errorf("load demand: %w", err)
	}

	offers, err := data.LoadOffersJSON(c.String("offers"))
	if err != nil {
		return fmt.Errorf("load offers: %w", err)
	}

	var indexers *model.IndexerTable
	if path := c.String("indexers"); path != "" {
		indexers, err = data.LoadIndexersJSON(path)
		if err != nil {
			return fmt.Errorf("load indexers: %w", err)
		}
		if cfg.Projection.AnnualGrowthPct > 0 {
			projected, err := indexer.Project(*indexers, cfg.Projection.AnnualGrowthPct, grid.LastMonth())
			if err != nil {
				return fmt.Errorf("project indexers: %w", err)
			}
			indexers = &projected
		}
	}

	var refs *model.ReferencePrices
	if path := c.String("references"); path != "" {
		refs, err = data.LoadReferencesJSON(path)
		if err != nil {
			return fmt.Errorf("load references: %w", err)
		}
	}

	rule, err := cfg.Rule(refs)
	if err != nil {
		return err
	}

	eng := engine.New(log, cfg.Options())
	rs, failures, err := eng.Run(c.Context, engine.Inputs{
		Grid:     grid,
		Demand:   demand,
		Offers:   offers,
		Indexers: indexers,
		Rule:     rule,
	})
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := result.WriteAssignmentCSV(filepath.Join(outDir, "assignment.csv"), rs, grid); err != nil {
		return err
	}
	if err := result.WriteOfferStatsCSV(filepath.Join(outDir, "offer_stats.csv"), rs); err != nil {
		return err
	}
	if err := result.WritePeriodStatsCSV(filepath.Join(outDir, "period_stats.csv"), rs); err != nil {
		return err
	}
	if err := result.WriteDeficitCSV(filepath.Join(outDir, "deficit.csv"), rs); err != nil {
		return err
	}

	for _, f := range failures {
		fmt.Printf("skipped: %v\n", f)
	}
	fmt.Printf("Run %s: assigned %.2f kWh, deficit %.2f kWh, cost $%s (avg $%s/kWh)\n",
		rs.RunID,
		rs.Global.TotalAssigned,
		rs.Global.TotalDeficit,
		rs.Global.TotalCost.StringFixed(2),
		rs.Global.AvgPrice.StringFixed(6),
	)
	fmt.Printf("Wrote tables to %s\n", outDir)
	return nil
}

var projectCmd = &cli.Command{
	Name:    "project",
	Usage:   "Extend an indexer series over the planning horizon",
	Aliases: []string{"p"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "indexers",
			Required: true,
			Usage:    "path to the indexer series JSON",
		},
		&cli.StringFlag{
			Name:     "until",
			Required: true,
			Usage:    "last month to cover (YYYY-MM)",
		},
		&cli.Float64Flag{
			Name:  "growth",
			Value: 0.0,
			Usage: "compound annual growth rate in percent",
		},
		&cli.StringFlag{
			Name:     "out",
			Required: true,
			Usage:    "path for the projected series JSON",
		},
	},
	Action: runProject,
}

func runProject(c *cli.Context) error {
	table, err := data.LoadIndexersJSON(c.String("indexers"))
	if err != nil {
		return fmt.Errorf("load indexers: %w", err)
	}
	until, err := data.ParseYearMonth(c.String("until"))
	if err != nil {
		return err
	}

	projected, err := indexer.Project(*table, c.Float64("growth"), until)
	if err != nil {
		return err
	}

	out := data.IndexersFile{}
	for _, pt := range projected.Observed {
		out.Observed = append(out.Observed, pointEntry(pt))
	}
	for _, pt := range projected.Projected {
		out.Projected = append(out.Projected, pointEntry(pt))
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out"), raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("Projected %d months to %s\n", len(out.Projected), c.String("out"))
	return nil
}

var statsCmd = &cli.Command{
	Name:  "stats",
	Usage: "Re-aggregate statistics from an assignment CSV",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "assignment",
			Required: true,
			Usage:    "path to an assignment CSV written by allocate",
		},
		&cli.StringFlag{
			Name:     "demand",
			Required: true,
			Usage:    "path to the demand JSON the run used",
		},
		&cli.StringFlag{
			Name:  "out",
			Value: "results",
			Usage: "output directory for the stats tables",
		},
	},
	Action: runStats,
}

func runStats(c *cli.Context) error {
	assignment, err := result.ReadAssignmentCSV(c.String("assignment"))
	if err != nil {
		return fmt.Errorf("read assignment: %w", err)
	}
	demand, grid, err := data.LoadDemandJSON(c.String("demand"))
	if err != nil {
		return fmt.Errorf("load demand: %w", err)
	}

	var ids []string
	for id := range assignment.Cells {
		ids = append(ids, id)
	}
	iterations := []allocation.Iteration{{Index: 1, Assignment: assignment}}
	rs := result.Aggregate(iterations, demand, grid, ids, nil)

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := result.WriteOfferStatsCSV(filepath.Join(outDir, "offer_stats.csv"), rs); err != nil {
		return err
	}
	if err := result.WritePeriodStatsCSV(filepath.Join(outDir, "period_stats.csv"), rs); err != nil {
		return err
	}
	if err := result.WriteDeficitCSV(filepath.Join(outDir, "deficit.csv"), rs); err != nil {
		return err
	}

	fmt.Printf("Assigned %.2f kWh, deficit %.2f kWh, cost $%s\n",
		rs.Global.TotalAssigned, rs.Global.TotalDeficit, rs.Global.TotalCost.StringFixed(2))
	return nil
}

func pointEntry(pt model.IndexerPoint) data.IndexerPointEntry {
	return data.IndexerPointEntry{
		Month:             pt.Month.String(),
		CPI:               pt.CPI,
		SupplyProvisional: pt.SupplyProvisional,
		SupplyDefinitive:  pt.SupplyDefinitive,
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
