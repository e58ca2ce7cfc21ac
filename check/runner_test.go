package check

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/study"
)

func loadDataset(t *testing.T, tag, csv string) *study.Dataset {
	t.Helper()
	ds, err := study.ReadCSV(strings.NewReader(csv), tag)
	require.NoError(t, err)
	return ds
}

// demoStudy carries one of everything: a resolved death, a post-death lab
// record, an out-of-order visit, a duplicate visit date, an unparseable
// value, and an undescribable dataset.
func demoStudy(t *testing.T) *study.Study {
	t.Helper()
	st := study.New("demo")
	st.Add(loadDataset(t, "DM",
		"SUBJID,DTHDTC\n1001,2021-05-01\n1002,\n"))
	st.Add(loadDataset(t, "AE",
		"SUBJID,AEDTHDTC,AESDTH,AESTDTC\n"+
			"1001,2021-05-03,Y,2021-04-20\n"))
	st.Add(loadDataset(t, "LB",
		"SUBJID,VISITNUM,VISIT,LBDAT\n"+
			"1001,1,SCREENING,2021-04-01\n"+
			"1001,2,WEEK 1,2021-05-02\n"+
			"1002,1,SCREENING,2021-03-01\n"+
			"1002,2,WEEK 1,2021-02-15\n"+
			"1002,3,WEEK 2,bad-value!!\n"))
	st.Add(loadDataset(t, "VS",
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1002,1,SCREENING,2021-03-01\n"+
			"1002,2,WEEK 1,2021-03-01\n"))
	st.Add(loadDataset(t, "XX", "PATIENT,VALUE\n1,2\n"))
	return st
}

func findResult(t *testing.T, report *RunReport, name string) Result {
	t.Helper()
	for _, r := range report.Results {
		if r.Check == name {
			return r
		}
	}
	t.Fatalf("no result named %s", name)
	return Result{}
}

func TestRunFullBattery(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	assert.Equal(t, "demo", report.Study)

	// Death resolution: earliest evidence wins (DM 05-01 over AE 05-03).
	require.Contains(t, report.Events, "1001")
	assert.Equal(t, "2021-05-01", report.Events["1001"].Resolved.String())
	assert.NotContains(t, report.Events, "1002")

	recon := findResult(t, report, "reconcile-death")
	assert.Equal(t, StatusPass, recon.Status)
	assert.Contains(t, recon.Note, "1 subject(s)")
	assert.Equal(t, []string{"AE", "DM"}, recon.Datasets)
}

func TestRunSkipsUndescribableDataset(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)

	skipped := findResult(t, report, "date-extraction/XX")
	assert.Equal(t, StatusSkipped, skipped.Status)
	assert.Contains(t, skipped.Note, "no subject-identifier field")

	// Other datasets processed regardless.
	assert.NotEmpty(t, report.Table.Facts)
}

func TestRunPostEventCheck(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)

	// LB week 1 for 1001 is dated 2021-05-02, one day after death.
	lb := findResult(t, report, "dates-after-death/LB")
	assert.Equal(t, StatusFail, lb.Status)
	assert.Contains(t, lb.Note, "1 record(s) across 1 subject(s)")
	require.Len(t, lb.Anomalies, 1)
	a := lb.Anomalies[0]
	assert.Equal(t, KindPostEvent, a.Kind)
	assert.Equal(t, "1001", a.Subject)
	require.NotNil(t, a.Event)
	assert.Equal(t, "2021-05-01", a.Event.Resolved)
	assert.Contains(t, a.Event.Sources, "DM.DTHDTC")
	assert.Contains(t, a.Event.Sources, "AE.AEDTHDTC")

	// The AE start date (04-20) precedes death; the AE death date itself
	// (05-03) is a fact dated after the resolved date and is flagged: a
	// later conflicting report is itself the anomaly.
	ae := findResult(t, report, "dates-after-death/AE")
	assert.Equal(t, StatusFail, ae.Status)
}

func TestRunVisitOrderCheck(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)

	lb := findResult(t, report, "visit-order/LB")
	assert.Equal(t, StatusFail, lb.Status)
	require.Len(t, lb.Anomalies, 1)
	assert.Equal(t, "1002", lb.Anomalies[0].Subject)
	assert.Equal(t, KindOrderViolation, lb.Anomalies[0].Kind)

	// AE has no visit fields: distinctly skipped, not passed.
	ae := findResult(t, report, "visit-order/AE")
	assert.Equal(t, StatusSkipped, ae.Status)
}

func TestRunDuplicateDateCheck(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)

	vs := findResult(t, report, "duplicate-dates/VS")
	assert.Equal(t, StatusFail, vs.Status)
	require.Len(t, vs.Anomalies, 1)
	assert.Equal(t, KindDuplicateDate, vs.Anomalies[0].Kind)
	assert.Len(t, vs.Anomalies[0].Rows, 2)

	// The same tie must not also be an order violation; with only tied
	// records, VS ordering has nothing left to rank.
	order := findResult(t, report, "visit-order/VS")
	assert.Equal(t, StatusPass, order.Status)
}

func TestRunUnparseableCheck(t *testing.T) {
	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(demoStudy(t))
	require.NoError(t, err)

	lb := findResult(t, report, "unparseable-dates/LB")
	assert.Equal(t, StatusFail, lb.Status)
	require.Len(t, lb.Anomalies, 1)
	assert.Equal(t, KindUnparseable, lb.Anomalies[0].Kind)
	assert.Contains(t, lb.Anomalies[0].Detail, "bad-value!!")

	dm := findResult(t, report, "unparseable-dates/DM")
	assert.Equal(t, StatusPass, dm.Status)
}

func TestRunNoEventsIsNotApplicable(t *testing.T) {
	st := study.New("quiet")
	st.Add(loadDataset(t, "LB", "SUBJID,LBDAT\n1001,2021-01-01\n"))

	runner := NewRunner(am.Default(), nil)
	report, err := runner.Run(st)
	require.NoError(t, err)

	recon := findResult(t, report, "reconcile-death")
	assert.Equal(t, StatusNotApplicable, recon.Status)
	lb := findResult(t, report, "dates-after-death/LB")
	assert.Equal(t, StatusNotApplicable, lb.Status)
	assert.Empty(t, lb.Anomalies)
}

func TestRunDeterministic(t *testing.T) {
	cfgA := am.Default()
	cfgB := am.Default()
	cfgB.Run.Workers = 8

	reportA, err := NewRunner(cfgA, nil).Run(demoStudy(t))
	require.NoError(t, err)
	reportB, err := NewRunner(cfgB, nil).Run(demoStudy(t))
	require.NoError(t, err)

	jsonA, err := json.Marshal(reportA.Results)
	require.NoError(t, err)
	jsonB, err := json.Marshal(reportB.Results)
	require.NoError(t, err)
	assert.Equal(t, string(jsonA), string(jsonB))
	assert.Equal(t, reportA.Table.Facts, reportB.Table.Facts)
}

func TestCounts(t *testing.T) {
	report := &RunReport{Results: []Result{
		{Status: StatusPass},
		{Status: StatusPass},
		{Status: StatusFail},
		{Status: StatusNotApplicable},
		{Status: StatusSkipped},
	}}
	pass, fail, na, skip := report.Counts()
	assert.Equal(t, 2, pass)
	assert.Equal(t, 1, fail)
	assert.Equal(t, 1, na)
	assert.Equal(t, 1, skip)
}
