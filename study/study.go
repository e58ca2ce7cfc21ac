// Package study models a complete snapshot of one study's datasets.
//
// A Study is the engine's entire input: a named collection of uniformly
// shaped record tables, loaded before the engine runs. The engine never
// mutates a loaded snapshot.
package study

import (
	"sort"
	"strings"
)

// Record is one row of a dataset. Field values are kept as raw strings;
// normalization happens downstream and never writes back.
type Record struct {
	// Row is the 1-based data row number in the source table, used to
	// reference offending rows in anomaly output.
	Row    int
	Fields map[string]string
}

// Value returns the trimmed value of a field, or "" when absent.
func (r Record) Value(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// Dataset is one uniformly shaped table of observation records.
type Dataset struct {
	// Tag is the short domain code identifying the observational category
	// (e.g. "AE", "DS", "LB", "VS").
	Tag string
	// Fields is the column list in source order.
	Fields []string
	Records []Record
}

// HasField reports whether the dataset declares the named column.
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Study is a complete, immutable snapshot of all datasets for one study.
type Study struct {
	Name     string
	datasets map[string]*Dataset
}

// New creates an empty study snapshot.
func New(name string) *Study {
	return &Study{Name: name, datasets: make(map[string]*Dataset)}
}

// Add registers a dataset under its tag, replacing any previous dataset
// with the same tag.
func (s *Study) Add(d *Dataset) {
	s.datasets[d.Tag] = d
}

// Dataset returns the dataset with the given tag, or nil.
func (s *Study) Dataset(tag string) *Dataset {
	return s.datasets[tag]
}

// Tags returns all dataset tags in lexical order. Iterating tags in this
// order is what keeps whole-study passes deterministic.
func (s *Study) Tags() []string {
	tags := make([]string, 0, len(s.datasets))
	for tag := range s.datasets {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of datasets in the snapshot.
func (s *Study) Len() int {
	return len(s.datasets)
}
