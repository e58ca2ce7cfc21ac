package study

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "SUBJID,AESTDTC,AETERM\n1001,2021-03-05,HEADACHE\n1002,2021-03,NAUSEA\n"
	ds, err := ReadCSV(strings.NewReader(input), "AE")
	require.NoError(t, err)

	assert.Equal(t, "AE", ds.Tag)
	assert.Equal(t, []string{"SUBJID", "AESTDTC", "AETERM"}, ds.Fields)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, 1, ds.Records[0].Row)
	assert.Equal(t, "2021-03-05", ds.Records[0].Value("AESTDTC"))
	assert.Equal(t, "1002", ds.Records[1].Value("SUBJID"))
}

func TestReadCSVUppercasesHeader(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("subjid,lbdat\n1001,2021-01-01\n"), "LB")
	require.NoError(t, err)
	assert.True(t, ds.HasField("SUBJID"))
	assert.True(t, ds.HasField("LBDAT"))
	assert.Equal(t, "2021-01-01", ds.Records[0].Value("LBDAT"))
}

func TestReadCSVShortRow(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("SUBJID,VSDAT,VSTIM\n1001,2021-01-01\n"), "VS")
	require.NoError(t, err)
	assert.Equal(t, "", ds.Records[0].Value("VSTIM"))
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "AE")
	assert.Error(t, err)
}

func TestStudyTagsDeterministic(t *testing.T) {
	st := New("demo")
	for _, tag := range []string{"VS", "AE", "LB", "DS"} {
		st.Add(&Dataset{Tag: tag})
	}
	assert.Equal(t, []string{"AE", "DS", "LB", "VS"}, st.Tags())
	assert.Equal(t, 4, st.Len())
	assert.Nil(t, st.Dataset("EX"))
	assert.NotNil(t, st.Dataset("AE"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ae.csv", "SUBJID,AESTDTC\n1001,2021-03-05\n")
	writeFile(t, dir, "ds.csv", "SUBJID,DSSTDTC,DSDECOD\n1001,2021-04-01,DEATH\n")
	writeFile(t, dir, "notes.txt", "not a dataset")

	st, err := LoadDir(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AE", "DS"}, st.Tags())
	assert.Equal(t, filepath.Base(dir), st.Name)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir(), nil)
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
