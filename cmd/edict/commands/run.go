package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/check"
	"github.com/teranos/edict/db"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/logger"
	"github.com/teranos/edict/study"
	"github.com/teranos/edict/sym"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run <study-dir>",
	Short: sym.Run + " Run the full check battery over a study directory",
	Long: sym.Run + ` run — Execute every temporal consistency check

Loads every CSV dataset in the study directory, extracts and normalizes all
date fields, reconciles the death reference event across datasets, and runs
the post-event, visit-order, duplicate-date, and unparseable-date checks.

Results are persisted to the EDICT database unless --dry-run is given.

Examples:
  edict run ./studies/demo
  edict run ./studies/demo --dry-run
  edict run ./studies/demo --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var runDryRunFlag bool

func init() {
	RunCmd.Flags().BoolVar(&runDryRunFlag, "dry-run", false, "Run checks without persisting results")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	snapshot, err := study.LoadDir(args[0], logger.Logger)
	if err != nil {
		return err
	}

	report, err := check.NewRunner(cfg, logger.Logger).Run(snapshot)
	if err != nil {
		return err
	}

	if !runDryRunFlag {
		database, err := db.Open(cfg.Database.Path, logger.Logger)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.Migrate(database, logger.Logger); err != nil {
			return err
		}
		if err := db.SaveRun(contextOrBackground(cmd), database, report, logger.Logger); err != nil {
			return err
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return printJSON(report)
	}
	renderReport(report)

	if _, fail, _, _ := report.Counts(); fail > 0 {
		// Non-zero exit for failing checks without the error banner.
		os.Exit(2)
	}
	return nil
}

func renderReport(report *check.RunReport) {
	pterm.DefaultSection.Printf("Run %s — study %s", report.RunID, report.Study)

	rows := pterm.TableData{{"Check", "Status", "Note"}}
	for _, res := range report.Results {
		rows = append(rows, []string{res.Check, statusCell(res.Status), res.Note})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	pass, fail, na, skip := report.Counts()
	summary := fmt.Sprintf("%d passed, %d failed, %d not applicable, %d skipped",
		pass, fail, na, skip)
	if fail > 0 {
		pterm.Warning.Println(summary)
	} else {
		pterm.Success.Println(summary)
	}
}

func statusCell(status check.Status) string {
	switch status {
	case check.StatusPass:
		return pterm.Green(sym.StatusPass + " " + string(status))
	case check.StatusFail:
		return pterm.Red(sym.StatusFail + " " + string(status))
	case check.StatusNotApplicable:
		return pterm.Gray(sym.StatusNotApplicable + " " + string(status))
	default:
		return pterm.Yellow(sym.StatusSkipped + " " + string(status))
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	fmt.Println(string(data))
	return nil
}

// contextOrBackground guards against commands constructed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
