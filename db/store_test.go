package db

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/check"
	edicttesting "github.com/teranos/edict/internal/testing"
	"github.com/teranos/edict/study"
)

func sampleReport(t *testing.T) *check.RunReport {
	t.Helper()
	st := study.New("demo")
	ds, err := study.ReadCSV(strings.NewReader(
		"SUBJID,DTHDTC\n1001,2021-05-01\n"), "DM")
	require.NoError(t, err)
	st.Add(ds)
	lb, err := study.ReadCSV(strings.NewReader(
		"SUBJID,LBDAT\n1001,2021-05-02\n"), "LB")
	require.NoError(t, err)
	st.Add(lb)

	report, err := check.NewRunner(am.Default(), nil).Run(st)
	require.NoError(t, err)
	return report
}

func TestSaveRunAndStats(t *testing.T) {
	conn := edicttesting.CreateTestDB(t)
	require.NoError(t, Migrate(conn, nil))

	report := sampleReport(t)
	require.NoError(t, SaveRun(context.Background(), conn, report, nil))

	stats, err := Stats(conn)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["runs"])
	assert.Equal(t, len(report.Table.Facts), stats["date_facts"])
	assert.Equal(t, 1, stats["reference_events"])
	assert.Equal(t, len(report.Results), stats["check_results"])
	assert.Greater(t, stats["anomalies"], 0)
}

func TestSaveRunPersistsFactColumns(t *testing.T) {
	conn := edicttesting.CreateTestDB(t)
	require.NoError(t, Migrate(conn, nil))

	report := sampleReport(t)
	require.NoError(t, SaveRun(context.Background(), conn, report, nil))

	var subject, dataset, normalized, precision string
	err := conn.QueryRow(`
		SELECT subject, dataset, normalized, precision
		FROM date_facts WHERE dataset = 'DM'`).
		Scan(&subject, &dataset, &normalized, &precision)
	require.NoError(t, err)
	assert.Equal(t, "1001", subject)
	assert.Equal(t, "2021-05-01", normalized)
	assert.Equal(t, "full-date", precision)
}

func TestSaveRunPersistsEventProvenance(t *testing.T) {
	conn := edicttesting.CreateTestDB(t)
	require.NoError(t, Migrate(conn, nil))

	report := sampleReport(t)
	require.NoError(t, SaveRun(context.Background(), conn, report, nil))

	var dataset, field string
	err := conn.QueryRow(`
		SELECT dataset, field FROM reference_event_sources
		WHERE subject = '1001' AND position = 0`).
		Scan(&dataset, &field)
	require.NoError(t, err)
	assert.Equal(t, "DM", dataset)
	assert.Equal(t, "DTHDTC", field)
}

func TestSaveRunRollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").WillReturnError(assertError{})
	mock.ExpectRollback()

	report := &check.RunReport{
		RunID:      "run-1",
		Study:      "demo",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	err = SaveRun(context.Background(), mockDB, report, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
