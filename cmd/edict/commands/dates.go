package commands

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/logger"
	"github.com/teranos/edict/study"
	"github.com/teranos/edict/sym"
)

// DatesCmd represents the dates command
var DatesCmd = &cobra.Command{
	Use:   "dates <study-dir>",
	Short: sym.Dates + " Export the long-form normalized date table",
	Long: sym.Dates + ` dates — Export the normalized date table

Extracts every date field from every dataset and writes the unpivoted
long-form table (subject, dataset, field, visit, normalized date) as CSV.
This artifact supports whole-study date auditing independent of any
single check.

Examples:
  edict dates ./studies/demo                # Write to stdout
  edict dates ./studies/demo -o dates.csv   # Write to a file`,
	Args: cobra.ExactArgs(1),
	RunE: runDates,
}

var datesOutputFlag string

func init() {
	DatesCmd.Flags().StringVarP(&datesOutputFlag, "output", "o", "", "Output file (default stdout)")
}

func runDates(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	snapshot, err := study.LoadDir(args[0], logger.Logger)
	if err != nil {
		return err
	}

	var overrides map[string]*extract.Descriptor
	if cfg.Study.DescriptorFile != "" {
		overrides, err = extract.LoadDescriptors(cfg.Study.DescriptorFile)
		if err != nil {
			return errors.Wrap(err, "load descriptor overrides")
		}
	}
	table := extract.ExtractStudy(snapshot, cfg, overrides, logger.Logger)

	out := os.Stdout
	if datesOutputFlag != "" {
		file, err := os.Create(datesOutputFlag)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer file.Close()
		out = file
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"subject", "dataset", "field", "visit_num", "visit_label", "row", "raw", "normalized", "precision", "imputed"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, f := range table.Facts {
		row := []string{
			f.Subject,
			f.Dataset,
			f.Field,
			f.VisitNum,
			f.VisitLabel,
			strconv.Itoa(f.Row),
			f.Raw,
			f.Date.String(),
			f.Date.Precision.String(),
			strconv.FormatBool(f.Date.Imputed),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	return nil
}
