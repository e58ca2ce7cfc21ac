// Package visits detects disagreement between a subject's declared visit
// sequence and the actual date sequence of their records.
//
// The comparison uses dense ranking on both sides: records are ranked by
// normalized date and independently by declared visit number, ties sharing
// a rank. A record whose two ranks differ is an order violation; records
// that tie on date across different visits are duplicate-date findings and
// are kept out of the order comparison. The same algorithm serves every
// dataset, parameterized only by exclusion filters.
package visits

import (
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/edict/dates"
	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/study"
)

// Options are the exclusion filters applied before ranking.
type Options struct {
	// NotDoneValues exclude records whose descriptor not-done field matches
	// one of these values.
	NotDoneValues []string
	// UnscheduledLabels exclude whole visits by label; unscheduled visits
	// have no defined place in the declared sequence.
	UnscheduledLabels []string
}

// RecordRef points at one ranked record for anomaly output.
type RecordRef struct {
	Row        int
	VisitNum   string
	VisitLabel string
	Date       dates.Canonical
}

// Violation aggregates every out-of-order record of one subject.
type Violation struct {
	Subject string
	Records []RecordRef
}

// Duplicate is one group of records sharing a date within one subject.
type Duplicate struct {
	Subject string
	Date    dates.Canonical
	Records []RecordRef
}

// Result is the outcome of validating one dataset.
type Result struct {
	Dataset string
	// NotApplicable is true when the visit number carries a single distinct
	// value across the whole dataset, so ordering cannot be evaluated.
	// Distinct from a pass.
	NotApplicable bool
	// Subjects is the number of subjects that were actually ranked.
	Subjects   int
	Violations []Violation
	Duplicates []Duplicate
}

// Validate runs the visit-order comparison over one dataset. The dataset
// must have been described with visit fields; callers skip datasets where
// desc.HasVisits() is false.
func Validate(ds *study.Dataset, desc *extract.Descriptor, opts Options) Result {
	result := Result{Dataset: ds.Tag}

	type ranked struct {
		ref      RecordRef
		visitNum float64
	}
	bySubject := make(map[string][]ranked)
	var subjects []string
	distinctVisits := make(map[float64]struct{})

	for _, rec := range ds.Records {
		subject := rec.Value(desc.SubjectField)
		if subject == "" {
			continue
		}
		if excluded(rec, desc, opts) {
			continue
		}
		visitRaw := rec.Value(desc.VisitNumField)
		visitNum, err := strconv.ParseFloat(visitRaw, 64)
		if err != nil {
			continue
		}
		distinctVisits[visitNum] = struct{}{}

		// The date for ranking is the dataset's first date field; companion
		// time refines ties within a day when captured.
		date := recordDate(rec, desc)
		if date.Missing() {
			continue
		}

		if _, seen := bySubject[subject]; !seen {
			subjects = append(subjects, subject)
		}
		bySubject[subject] = append(bySubject[subject], ranked{
			ref: RecordRef{
				Row:        rec.Row,
				VisitNum:   visitRaw,
				VisitLabel: rec.Value(desc.VisitLabelField),
				Date:       date,
			},
			visitNum: visitNum,
		})
	}

	if len(distinctVisits) <= 1 {
		result.NotApplicable = true
		return result
	}

	sort.Strings(subjects)
	for _, subject := range subjects {
		records := bySubject[subject]
		if len(records) < 2 {
			continue
		}
		result.Subjects++

		// Dense rank on each axis: sorted unique keys, rank = index + 1.
		dateRank := make(map[int64]int)
		visitRank := make(map[float64]int)
		{
			var keys []int64
			seen := make(map[int64]struct{})
			for _, r := range records {
				k := r.ref.Date.Time.Unix()
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					keys = append(keys, k)
				}
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			for i, k := range keys {
				dateRank[k] = i + 1
			}
		}
		{
			var keys []float64
			seen := make(map[float64]struct{})
			for _, r := range records {
				if _, ok := seen[r.visitNum]; !ok {
					seen[r.visitNum] = struct{}{}
					keys = append(keys, r.visitNum)
				}
			}
			sort.Float64s(keys)
			for i, k := range keys {
				visitRank[k] = i + 1
			}
		}

		// Date ties become duplicate-date findings and leave the order
		// comparison; flagging them as order violations too would double
		// count one data-entry problem.
		tied := make(map[int64]bool)
		counts := make(map[int64]int)
		for _, r := range records {
			counts[r.ref.Date.Time.Unix()]++
		}
		var dupKeys []int64
		for k, n := range counts {
			if n > 1 {
				tied[k] = true
				dupKeys = append(dupKeys, k)
			}
		}
		sort.Slice(dupKeys, func(i, j int) bool { return dupKeys[i] < dupKeys[j] })
		for _, k := range dupKeys {
			dup := Duplicate{Subject: subject}
			for _, r := range records {
				if r.ref.Date.Time.Unix() == k {
					dup.Date = r.ref.Date
					dup.Records = append(dup.Records, r.ref)
				}
			}
			result.Duplicates = append(result.Duplicates, dup)
		}

		var violation Violation
		for _, r := range records {
			k := r.ref.Date.Time.Unix()
			if tied[k] {
				continue
			}
			if dateRank[k] != visitRank[r.visitNum] {
				violation.Records = append(violation.Records, r.ref)
			}
		}
		if len(violation.Records) > 0 {
			violation.Subject = subject
			result.Violations = append(result.Violations, violation)
		}
	}
	return result
}

func excluded(rec study.Record, desc *extract.Descriptor, opts Options) bool {
	if desc.NotDoneField != "" {
		if v := rec.Value(desc.NotDoneField); v != "" && matchesFold(v, opts.NotDoneValues) {
			return true
		}
	}
	if desc.VisitLabelField != "" {
		if v := rec.Value(desc.VisitLabelField); v != "" && matchesFold(v, opts.UnscheduledLabels) {
			return true
		}
	}
	return false
}

func recordDate(rec study.Record, desc *extract.Descriptor) dates.Canonical {
	if len(desc.DateFields) == 0 {
		return dates.Canonical{}
	}
	df := desc.DateFields[0]
	raw := rec.Value(df.Field)
	if df.TimeField != "" {
		if tod := rec.Value(df.TimeField); tod != "" {
			raw = dates.Combine(raw, tod)
		}
	}
	date, _ := dates.Parse(raw)
	return date
}

func matchesFold(value string, values []string) bool {
	for _, v := range values {
		if strings.EqualFold(value, v) {
			return true
		}
	}
	return false
}
