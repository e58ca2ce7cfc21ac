package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/edict/cmd/edict/commands"
	"github.com/teranos/edict/logger"
)

var rootCmd = &cobra.Command{
	Use:   "edict",
	Short: "EDICT - Temporal consistency checks for study data",
	Long: `EDICT - Temporal consistency & reconciliation engine for study data.

EDICT ingests a snapshot of related tabular datasets about the same
subjects, normalizes inconsistently specified date/time values, reconciles
conflicting reports of terminal reference events, and flags temporal
anomalies: records dated after a subject's resolved death date, visit
sequences that contradict their dates, and duplicate visit dates.

Available commands:
  run     - Run the full check battery over a study directory
  dates   - Export the long-form normalized date table
  am      - Manage EDICT core configuration ("I am")
  db      - Manage EDICT database operations
  version - Show version information

Examples:
  edict run ./studies/demo         # Run all checks, persist results
  edict run ./studies/demo --json  # Machine-readable results
  edict dates ./studies/demo       # Export the date table as CSV
  edict db stats                   # Show persisted run statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit machine-readable JSON output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.DatesCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
