package visits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/study"
)

func options() Options {
	cfg := am.Default()
	return Options{
		NotDoneValues:     cfg.Study.NotDoneValues,
		UnscheduledLabels: cfg.Study.UnscheduledLabels,
	}
}

func describe(t *testing.T, csv string) (*study.Dataset, *extract.Descriptor) {
	t.Helper()
	ds, err := study.ReadCSV(strings.NewReader(csv), "VS")
	require.NoError(t, err)
	cfg := am.Default()
	desc, err := extract.Describe(ds, &cfg.Study)
	require.NoError(t, err)
	return ds, desc
}

func TestValidateInOrderPasses(t *testing.T) {
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1001,2,WEEK 1,2021-01-08\n"+
			"1001,3,WEEK 2,2021-01-15\n")

	result := Validate(ds, desc, options())
	assert.False(t, result.NotApplicable)
	assert.Equal(t, 1, result.Subjects)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Duplicates)
}

func TestValidateOrderViolation(t *testing.T) {
	// Visit 3 happened before visit 2: one violation for the subject,
	// referencing the out-of-order records (visit 3 among them).
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1001,2,WEEK 1,2021-02-01\n"+
			"1001,3,WEEK 2,2021-01-15\n")

	result := Validate(ds, desc, options())
	require.Len(t, result.Violations, 1)
	v := result.Violations[0]
	assert.Equal(t, "1001", v.Subject)

	var visitNums []string
	for _, r := range v.Records {
		visitNums = append(visitNums, r.VisitNum)
	}
	assert.Contains(t, visitNums, "3")
	assert.Empty(t, result.Duplicates)
}

func TestValidateDuplicateDateNotOrderViolation(t *testing.T) {
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1001,2,WEEK 1,2021-01-08\n"+
			"1001,3,WEEK 2,2021-01-08\n")

	result := Validate(ds, desc, options())
	assert.Empty(t, result.Violations, "ties are duplicates, not order violations")
	require.Len(t, result.Duplicates, 1)
	dup := result.Duplicates[0]
	assert.Equal(t, "1001", dup.Subject)
	assert.Equal(t, "2021-01-08", dup.Date.String())
	require.Len(t, dup.Records, 2)
	assert.NotEqual(t, dup.Records[0].VisitLabel, dup.Records[1].VisitLabel)
}

func TestValidateSingleVisitNumberNotApplicable(t *testing.T) {
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1002,1,SCREENING,2021-01-02\n")

	result := Validate(ds, desc, options())
	assert.True(t, result.NotApplicable)
	assert.Empty(t, result.Violations)
}

func TestValidateExcludesNotDoneAndUnscheduled(t *testing.T) {
	// The not-done record carries a date that would otherwise violate
	// ordering; exclusion removes it from ranking entirely.
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT,VSSTAT\n"+
			"1001,1,SCREENING,2021-01-01,\n"+
			"1001,2,WEEK 1,2021-01-08,\n"+
			"1001,3,WEEK 2,2020-06-01,NOT DONE\n"+
			"1001,4,UNSCHEDULED,2020-07-01,\n")

	result := Validate(ds, desc, options())
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Duplicates)
}

func TestValidateSkipsSubjectsWithOneRankedRecord(t *testing.T) {
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1001,2,WEEK 1,not-a-date\n"+
			"1002,1,SCREENING,2021-01-01\n"+
			"1002,2,WEEK 1,2021-01-08\n")

	result := Validate(ds, desc, options())
	// 1001 has a single rankable record; only 1002 is evaluated.
	assert.Equal(t, 1, result.Subjects)
	assert.Empty(t, result.Violations)
}

func TestValidateFractionalVisitNumbers(t *testing.T) {
	ds, desc := describe(t,
		"SUBJID,VISITNUM,VISIT,VSDAT\n"+
			"1001,1,SCREENING,2021-01-01\n"+
			"1001,1.1,WEEK 1 RETEST,2021-01-09\n"+
			"1001,2,WEEK 2,2021-01-08\n")

	result := Validate(ds, desc, options())
	// 1.1 sorts between 1 and 2; its date (01-09) is after visit 2's
	// (01-08), so both are out of order.
	require.Len(t, result.Violations, 1)
	assert.Len(t, result.Violations[0].Records, 2)
}

func TestValidateDeterministicOrdering(t *testing.T) {
	csv := "SUBJID,VISITNUM,VISIT,VSDAT\n" +
		"1002,1,SCREENING,2021-01-01\n" +
		"1002,2,WEEK 1,2020-12-01\n" +
		"1001,1,SCREENING,2021-01-01\n" +
		"1001,2,WEEK 1,2020-12-01\n"

	ds, desc := describe(t, csv)
	first := Validate(ds, desc, options())
	second := Validate(ds, desc, options())
	assert.Equal(t, first, second)
	require.Len(t, first.Violations, 2)
	assert.Equal(t, "1001", first.Violations[0].Subject)
	assert.Equal(t, "1002", first.Violations[1].Subject)
}
