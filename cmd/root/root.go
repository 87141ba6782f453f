// Package root contains the root command for the application
package root

import (
	"wio-csv/internal/config"
	"wio-csv/internal/export"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Output string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the application configuration, loaded before any command runs
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "wio-csv",
		Short: "Export spending transactions from the Wio app's history list to CSV.",
		Long: `wio-csv collects transaction records from captured page-source snapshots
of the Wio app's scrollable history list, deduplicates rows revealed across
scroll passes, filters to spending, and writes them as CSV.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to wio-csv!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv(Log)

			var err error
			Cfg, err = config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to initialize configuration: %v", err)
			}
			Log = config.ConfigureLoggingFromConfig(Cfg)

			export.SetLogger(Log)
			export.SetDelimiter([]rune(Cfg.CSV.Delimiter)[0])
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output CSV file")
}
