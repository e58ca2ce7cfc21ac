package study

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/sym"
)

// LoadDir loads every *.csv file in dir as one dataset each, tagged with
// the uppercased file basename (ae.csv -> "AE"). The directory name becomes
// the study name. Files that cannot be read or parsed fail the load; a
// snapshot with silently absent datasets would corrupt every downstream
// check.
func LoadDir(dir string, logger *zap.SugaredLogger) (*Study, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read study directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, errors.Newf("no CSV datasets found in %s", dir)
	}

	st := New(filepath.Base(dir))
	for _, name := range names {
		tag := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
		ds, err := LoadFile(filepath.Join(dir, name), tag)
		if err != nil {
			return nil, errors.Wrapf(err, "load dataset %s", tag)
		}
		if logger != nil {
			logger.Debugw("Loaded dataset",
				"tag", tag,
				"fields", len(ds.Fields),
				"records", len(ds.Records),
				"symbol", sym.Study,
			)
		}
		st.Add(ds)
	}

	if logger != nil {
		logger.Infow("Study snapshot loaded",
			"study", st.Name,
			"datasets", st.Len(),
			"symbol", sym.Study,
		)
	}
	return st, nil
}

// LoadFile loads one CSV file as a dataset with the given tag. The first
// row is the header; header names are trimmed and uppercased so field
// matching is case-insensitive across capture systems.
func LoadFile(path, tag string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset file")
	}
	defer file.Close()

	return ReadCSV(file, tag)
}

// ReadCSV parses CSV content into a dataset. Short rows are tolerated
// (missing trailing cells read as empty); genuinely malformed CSV is an
// error.
func ReadCSV(r io.Reader, tag string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows handled below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header row")
	}

	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	ds := &Dataset{Tag: tag, Fields: fields}
	row := 0
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read data row %d", row+1)
		}
		row++
		rec := Record{Row: row, Fields: make(map[string]string, len(fields))}
		for i, f := range fields {
			if i < len(cells) {
				rec.Fields[f] = strings.TrimSpace(cells[i])
			} else {
				rec.Fields[f] = ""
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
