package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/db"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/logger"
	"github.com/teranos/edict/sym"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: sym.DB + " Manage EDICT database",
	Long: sym.DB + ` db — Manage EDICT database operations

Examples:
  edict db stats                  # Show persisted run statistics
  edict db reset                  # Delete the database file`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show persisted run statistics",
	RunE:  runDbStats,
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the database file",
	RunE:  runDbReset,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbResetCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(database, logger.Logger); err != nil {
		return err
	}

	stats, err := db.Stats(database)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(stats)
	}

	fmt.Printf("%s Database Statistics\n\n", sym.DB)
	fmt.Printf("Database Path:    %s\n", cfg.Database.Path)
	fmt.Printf("Runs:             %d\n", stats["runs"])
	fmt.Printf("Date Facts:       %d\n", stats["date_facts"])
	fmt.Printf("Reference Events: %d\n", stats["reference_events"])
	fmt.Printf("Check Results:    %d\n", stats["check_results"])
	fmt.Printf("Anomalies:        %d\n", stats["anomalies"])
	return nil
}

func runDbReset(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if err := os.Remove(cfg.Database.Path); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No database file to remove")
			return nil
		}
		return errors.Wrap(err, "remove database file")
	}
	fmt.Printf("Removed %s\n", cfg.Database.Path)
	return nil
}
