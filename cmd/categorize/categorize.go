// Package categorize re-categorizes a previously exported CSV file.
package categorize

import (
	"wio-csv/cmd/root"
	"wio-csv/internal/categorizer"
	"wio-csv/internal/export"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	force     bool
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Fill in missing categories on an exported CSV file",
	Long: `Read a CSV file produced by the export command, assign categories to
rows that have none (or to all rows with --force), and write the result back.`,
	Run: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file (required)")
	Cmd.Flags().BoolVar(&force, "force", false, "Re-categorize every row, not just uncategorized ones")
	if err := Cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}

func categorizeFunc(cmd *cobra.Command, args []string) {
	cfg := root.Cfg

	transactions, err := export.ReadTransactionsFromCSV(inputFile)
	if err != nil {
		root.Log.Fatalf("Error reading CSV: %v", err)
	}

	if force {
		for i := range transactions {
			transactions[i].Category = ""
		}
	}

	cat := categorizer.New(categorizer.Options{
		CategoriesFile:   cfg.Categorization.File,
		AIEnabled:        cfg.AI.Enabled,
		Model:            cfg.AI.Model,
		APIKey:           cfg.AI.APIKey,
		FallbackCategory: cfg.AI.FallbackCategory,
	}, root.Log)
	cat.Apply(cmd.Context(), transactions)

	outputFile := root.SharedFlags.Output
	if outputFile == "" {
		outputFile = inputFile
	}

	if err := export.WriteTransactionsToCSV(transactions, outputFile); err != nil {
		root.Log.Fatalf("Error writing CSV: %v", err)
	}

	root.Log.Infof("Categorized %d transactions into %s", len(transactions), outputFile)
}
