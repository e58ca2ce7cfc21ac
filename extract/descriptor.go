// Package extract turns arbitrary dataset shapes into a comparable
// long-form table of per-subject date facts.
//
// The shape of a dataset is captured once in a Descriptor — which columns
// carry dates, which time field pairs with which date field, which columns
// are the subject and visit keys — and the descriptor then drives
// row-by-row extraction. Descriptors are usually derived from field-naming
// conventions, but can be declared explicitly per dataset in a YAML file
// for studies that do not follow them.
package extract

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/study"
)

// Sentinel reasons a dataset cannot be described. Both are normal batch
// states, not failures: the dataset is skipped and reported.
var (
	ErrNoSubjectField = errors.New("dataset has no subject-identifier field")
	ErrNoDateFields   = errors.New("dataset has no date-bearing fields")
)

// DateField is one date-bearing column, optionally paired with a companion
// time-of-day column sharing its prefix.
type DateField struct {
	Field     string `yaml:"field"`
	TimeField string `yaml:"time_field,omitempty"`
}

// Descriptor enumerates the temporally relevant columns of one dataset
// shape. Computed once per dataset, not re-derived per row.
type Descriptor struct {
	Tag             string      `yaml:"tag"`
	SubjectField    string      `yaml:"subject_field"`
	DateFields      []DateField `yaml:"date_fields"`
	VisitNumField   string      `yaml:"visit_num_field,omitempty"`
	VisitLabelField string      `yaml:"visit_label_field,omitempty"`
	NotDoneField    string      `yaml:"not_done_field,omitempty"`
}

// HasVisits reports whether the dataset declares both a visit number and a
// visit label, which visit-order validation requires.
func (d *Descriptor) HasVisits() bool {
	return d.VisitNumField != ""
}

// Describe derives a dataset's descriptor from its field names using the
// configured naming conventions. Returns ErrNoSubjectField or
// ErrNoDateFields when the dataset cannot participate in date extraction.
func Describe(ds *study.Dataset, cfg *am.StudyConfig) (*Descriptor, error) {
	desc := &Descriptor{Tag: ds.Tag}

	desc.SubjectField = firstPresent(ds, cfg.SubjectFields)
	if desc.SubjectField == "" {
		return nil, errors.Wrapf(ErrNoSubjectField, "dataset %s", ds.Tag)
	}

	// Suffix match longest-first so "DTC" wins over a hypothetical "C".
	suffixes := append([]string(nil), cfg.DateSuffixes...)
	sort.Slice(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })

	for _, field := range ds.Fields {
		suffix := matchSuffix(field, suffixes)
		if suffix == "" {
			continue
		}
		df := DateField{Field: field}
		// Companion time field: same prefix, configured time suffix.
		prefix := strings.TrimSuffix(field, suffix)
		if tf := prefix + cfg.TimeSuffix; cfg.TimeSuffix != "" && ds.HasField(tf) {
			df.TimeField = tf
		}
		desc.DateFields = append(desc.DateFields, df)
	}
	if len(desc.DateFields) == 0 {
		return nil, errors.Wrapf(ErrNoDateFields, "dataset %s", ds.Tag)
	}

	desc.VisitNumField = firstPresent(ds, cfg.VisitNumFields)
	desc.VisitLabelField = firstPresent(ds, cfg.VisitLabelFields)
	// Completion-status columns are conventionally prefixed per domain
	// (VSSTAT, LBSTAT), so these candidates match as suffixes.
	desc.NotDoneField = firstWithSuffix(ds, cfg.NotDoneFields)

	return desc, nil
}

// LoadDescriptors reads explicit per-dataset descriptor overrides from a
// YAML file, keyed by dataset tag.
func LoadDescriptors(path string) (map[string]*Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read descriptor file")
	}

	var file struct {
		Datasets []*Descriptor `yaml:"datasets"`
	}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrap(err, "parse descriptor file")
	}

	out := make(map[string]*Descriptor, len(file.Datasets))
	for _, d := range file.Datasets {
		if d.Tag == "" {
			return nil, errors.New("descriptor entry missing dataset tag")
		}
		if d.SubjectField == "" {
			return nil, errors.Newf("descriptor for %s missing subject_field", d.Tag)
		}
		out[strings.ToUpper(d.Tag)] = d
	}
	return out, nil
}

func firstWithSuffix(ds *study.Dataset, suffixes []string) string {
	for _, f := range ds.Fields {
		for _, s := range suffixes {
			if strings.HasSuffix(f, s) {
				return f
			}
		}
	}
	return ""
}

func firstPresent(ds *study.Dataset, candidates []string) string {
	for _, c := range candidates {
		if ds.HasField(c) {
			return c
		}
	}
	return ""
}

func matchSuffix(field string, suffixes []string) string {
	for _, s := range suffixes {
		// A field that is nothing but the suffix has no prefix to pair a
		// time field with, but is still a date field.
		if strings.HasSuffix(field, s) {
			return s
		}
	}
	return ""
}
