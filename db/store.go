package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/edict/check"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/reconcile"
	"github.com/teranos/edict/sym"
)

// SaveRun persists a complete run report: run metadata, the long-form date
// table, resolved reference events, and every check result with its
// anomalies. All writes happen in one transaction; a partially persisted
// run never exists.
func SaveRun(ctx context.Context, db *sql.DB, report *check.RunReport, logger *zap.SugaredLogger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, study, started_at, finished_at) VALUES (?, ?, ?, ?)",
		report.RunID, report.Study, report.StartedAt, report.FinishedAt,
	); err != nil {
		return errors.Wrap(err, "insert run")
	}

	factStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO date_facts
			(run_id, subject, dataset, field, visit_num, visit_label, row, raw, normalized, precision, imputed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare fact insert")
	}
	defer factStmt.Close()
	for _, f := range report.Table.Facts {
		imputed := 0
		if f.Date.Imputed {
			imputed = 1
		}
		if _, err := factStmt.ExecContext(ctx,
			report.RunID, f.Subject, f.Dataset, f.Field, f.VisitNum, f.VisitLabel,
			f.Row, f.Raw, f.Date.String(), f.Date.Precision.String(), imputed,
		); err != nil {
			return errors.Wrapf(err, "insert date fact %s/%s row %d", f.Dataset, f.Field, f.Row)
		}
	}

	if err := saveEvents(ctx, tx, report); err != nil {
		return err
	}
	if err := saveResults(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit run")
	}
	if logger != nil {
		logger.Infow("Run persisted",
			"run_id", report.RunID,
			"facts", len(report.Table.Facts),
			"results", len(report.Results),
			"symbol", sym.DB,
		)
	}
	return nil
}

func saveEvents(ctx context.Context, tx *sql.Tx, report *check.RunReport) error {
	eventStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO reference_events (run_id, subject, event_type, resolved) VALUES (?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "prepare event insert")
	}
	defer eventStmt.Close()
	sourceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_event_sources
			(run_id, subject, event_type, position, dataset, field, row, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare event source insert")
	}
	defer sourceStmt.Close()

	for _, subject := range reconcile.Subjects(report.Events) {
		ev := report.Events[subject]
		if _, err := eventStmt.ExecContext(ctx,
			report.RunID, ev.Subject, ev.EventType, ev.Resolved.String(),
		); err != nil {
			return errors.Wrapf(err, "insert reference event for %s", ev.Subject)
		}
		for i, c := range ev.Contributing {
			if _, err := sourceStmt.ExecContext(ctx,
				report.RunID, ev.Subject, ev.EventType, i, c.Dataset, c.Field, c.Row, c.Date.String(),
			); err != nil {
				return errors.Wrapf(err, "insert event source for %s", ev.Subject)
			}
		}
	}
	return nil
}

func saveResults(ctx context.Context, tx *sql.Tx, report *check.RunReport) error {
	resultStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO check_results (run_id, check_name, status, note, datasets) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "prepare result insert")
	}
	defer resultStmt.Close()
	anomalyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomalies
			(run_id, check_name, subject, kind, rows, event_resolved, event_sources, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare anomaly insert")
	}
	defer anomalyStmt.Close()

	for _, res := range report.Results {
		if _, err := resultStmt.ExecContext(ctx,
			report.RunID, res.Check, string(res.Status), res.Note, strings.Join(res.Datasets, ","),
		); err != nil {
			return errors.Wrapf(err, "insert result %s", res.Check)
		}
		for _, a := range res.Anomalies {
			rows := make([]string, len(a.Rows))
			for i, r := range a.Rows {
				rows[i] = fmt.Sprintf("%s:%d:%s", r.Dataset, r.Row, r.Field)
			}
			eventResolved, eventSources := "", ""
			if a.Event != nil {
				eventResolved = a.Event.Resolved
				eventSources = strings.Join(a.Event.Sources, ",")
			}
			if _, err := anomalyStmt.ExecContext(ctx,
				report.RunID, res.Check, a.Subject, string(a.Kind),
				strings.Join(rows, ";"), eventResolved, eventSources, a.Detail,
			); err != nil {
				return errors.Wrapf(err, "insert anomaly for %s in %s", a.Subject, res.Check)
			}
		}
	}
	return nil
}

// Stats reports row counts for the persisted tables.
func Stats(db *sql.DB) (map[string]int, error) {
	stats := make(map[string]int)
	for _, table := range []string{"runs", "date_facts", "reference_events", "check_results", "anomalies"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, errors.Wrapf(err, "count %s", table)
		}
		stats[table] = count
	}
	return stats, nil
}
