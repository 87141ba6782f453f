// Package export handles the collection-and-export command.
package export

import (
	"errors"
	"time"

	"wio-csv/cmd/root"
	"wio-csv/internal/categorizer"
	"wio-csv/internal/collector"
	"wio-csv/internal/driver"
	"wio-csv/internal/export"
	"wio-csv/internal/logging"

	"github.com/spf13/cobra"
)

var (
	snapshotDir string
	noPartial   bool
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Collect transactions from page-source snapshots and write spending to CSV",
	Long: `Run the scroll collection loop over a directory of captured page-source
snapshots (one XML dump per scroll position), deduplicate the revealed
transactions, keep spending only, and write the result to CSV.`,
	Run: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&snapshotDir, "snapshots", "s", "", "Directory of page-source XML snapshots (default from config)")
	Cmd.Flags().BoolVar(&noPartial, "no-partial", false, "Discard partial results when collection aborts")
}

func exportFunc(cmd *cobra.Command, args []string) {
	cfg := root.Cfg
	logger := logging.NewLogrusAdapterFromLogger(root.Log)

	dir := snapshotDir
	if dir == "" {
		dir = cfg.Driver.SnapshotDir
	}

	drv, err := driver.NewSnapshotDriver(dir, cfg.Driver.LabelXPath, logger)
	if err != nil {
		root.Log.Fatalf("Error opening snapshot driver: %v", err)
	}

	col := collector.New(drv, collector.Options{
		MaxPasses:        cfg.Collector.MaxPasses,
		StallThreshold:   cfg.Collector.StallThreshold,
		RetryAttempts:    cfg.Collector.RetryAttempts,
		RetryDelay:       time.Duration(cfg.Collector.RetryDelayMs) * time.Millisecond,
		MergeDateContext: cfg.Collector.MergeDateContext,
	}, logger)

	records, err := col.Collect(cmd.Context())
	if err != nil {
		var aborted *collector.AbortedError
		if !errors.As(err, &aborted) || noPartial || len(records) == 0 {
			root.Log.Fatalf("Collection failed: %v", err)
		}
		// A failed session still exports what was accumulated before it.
		root.Log.WithError(err).Warnf("Collection aborted, exporting %d partial results", len(records))
	}

	spending := export.FilterSpending(records)
	if len(spending) == 0 {
		root.Log.Warn("No spending transactions found!")
		return
	}

	cat := categorizer.New(categorizer.Options{
		CategoriesFile:   cfg.Categorization.File,
		AIEnabled:        cfg.AI.Enabled,
		Model:            cfg.AI.Model,
		APIKey:           cfg.AI.APIKey,
		FallbackCategory: cfg.AI.FallbackCategory,
	}, root.Log)
	cat.Apply(cmd.Context(), spending)

	outputFile := root.SharedFlags.Output
	if outputFile == "" {
		outputFile = export.DefaultOutputPath(cfg.Export.Directory)
	}

	if err := export.WriteTransactionsToCSV(spending, outputFile); err != nil {
		root.Log.Fatalf("Error writing CSV: %v", err)
	}

	root.Log.Infof("Successfully exported %d transactions to %s", len(spending), outputFile)
}
