package check

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/postevent"
	"github.com/teranos/edict/reconcile"
	"github.com/teranos/edict/study"
	"github.com/teranos/edict/sym"
	"github.com/teranos/edict/visits"
)

// DeathEvent is the reference event type the built-in checks reconcile.
const DeathEvent = "death"

// Runner executes the full temporal consistency battery over one study
// snapshot. Stateless across runs: the snapshot goes in, the report comes
// out, nothing is retained.
type Runner struct {
	cfg    *am.Config
	logger *zap.SugaredLogger
}

// NewRunner creates a runner. A nil logger runs silently.
func NewRunner(cfg *am.Config, logger *zap.SugaredLogger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// RunReport is the complete output of one engine invocation.
type RunReport struct {
	// RunID identifies this invocation in persisted history.
	RunID string
	Study string
	// StartedAt/FinishedAt are run metadata only; results and anomalies
	// are a pure function of the snapshot.
	StartedAt  time.Time
	FinishedAt time.Time

	// Table is the long-form date table: an externally consumable artifact
	// in its own right, independent of any single check.
	Table *extract.Table
	// Events holds the resolved reference events, keyed by subject.
	Events  map[string]*reconcile.ReferenceEvent
	Results []Result
}

// Counts returns (passed, failed, notApplicable, skipped).
func (r *RunReport) Counts() (int, int, int, int) {
	var pass, fail, na, skip int
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusNotApplicable:
			na++
		case StatusSkipped:
			skip++
		}
	}
	return pass, fail, na, skip
}

// Run executes extraction, reconciliation, and every built-in check. A
// failure for one subject or dataset never aborts the batch; the only
// errors returned are malformed overall inputs (an unreadable descriptor
// override file).
func (r *Runner) Run(st *study.Study) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Study:     st.Name,
		StartedAt: time.Now().UTC(),
	}
	if r.logger != nil {
		r.logger.Infow("Engine run starting",
			"run_id", report.RunID,
			"study", st.Name,
			"datasets", st.Len(),
			"symbol", sym.Run,
		)
	}

	var overrides map[string]*extract.Descriptor
	if r.cfg.Study.DescriptorFile != "" {
		var err error
		overrides, err = extract.LoadDescriptors(r.cfg.Study.DescriptorFile)
		if err != nil {
			return nil, errors.Wrap(err, "load descriptor overrides")
		}
	}

	report.Table = extract.ExtractStudy(st, r.cfg, overrides, r.logger)
	report.Events = reconcile.Resolve(st, DeathEvent, r.cfg.Study.DeathEvidence, &r.cfg.Study, r.logger)

	// One skipped result per excluded dataset.
	for _, skip := range report.Table.Skipped {
		report.Results = append(report.Results, skippedDatasetResult(skip))
	}

	report.Results = append(report.Results, reconciliationResult(DeathEvent, report.Events))

	hitsByDataset := postevent.ByDataset(postevent.Detect(report.Table.Facts, report.Events))
	haveEvents := len(report.Events) > 0

	for _, tag := range st.Tags() {
		desc, extracted := report.Table.Descriptors[tag]
		if !extracted {
			continue
		}

		report.Results = append(report.Results, unparseableCheck(tag, report.Table.Unparseable))
		report.Results = append(report.Results, postEventCheck(tag, DeathEvent, hitsByDataset[tag], haveEvents))

		hasVisits := desc.HasVisits()
		var validated visits.Result
		if hasVisits {
			validated = visits.Validate(st.Dataset(tag), desc, visits.Options{
				NotDoneValues:     r.cfg.Study.NotDoneValues,
				UnscheduledLabels: r.cfg.Study.UnscheduledLabels,
			})
		}
		report.Results = append(report.Results, visitOrderCheck(tag, validated, hasVisits))
		report.Results = append(report.Results, duplicateDateCheck(tag, validated, hasVisits))
	}

	sortResults(report.Results)
	report.FinishedAt = time.Now().UTC()

	if r.logger != nil {
		pass, fail, na, skip := report.Counts()
		r.logger.Infow("Engine run finished",
			"run_id", report.RunID,
			"pass", pass,
			"fail", fail,
			"not_applicable", na,
			"skipped", skip,
			"symbol", sym.Run,
		)
	}
	return report, nil
}
