// Package check assembles the engine's components into named temporal
// consistency checks and runs them over a complete study snapshot.
//
// Every check yields exactly one status: Pass, Fail, Not-applicable, or
// Skipped. Fail always carries a note stating how many subjects and records
// are affected; Not-applicable (the check could not be evaluated) is never
// conflated with Pass (the check ran and found nothing).
package check

import (
	"fmt"
	"sort"
)

// Status is the single outcome of one check.
type Status string

const (
	StatusPass          Status = "Pass"
	StatusFail          Status = "Fail"
	StatusNotApplicable Status = "Not-applicable"
	StatusSkipped       Status = "Skipped"
)

// Kind classifies one anomaly.
type Kind string

const (
	KindPostEvent      Kind = "post-event"
	KindOrderViolation Kind = "order-violation"
	KindDuplicateDate  Kind = "duplicate-date"
	KindUnparseable    Kind = "unparseable"
)

// RowRef points at one offending source row.
type RowRef struct {
	Dataset string `json:"dataset"`
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
}

// EventRef carries the resolved reference event an anomaly was judged
// against, with its contributing-source provenance for report text.
type EventRef struct {
	EventType string   `json:"event_type"`
	Resolved  string   `json:"resolved"`
	Sources   []string `json:"sources"`
}

// Anomaly is one temporal inconsistency finding. Terminal output; never
// mutated after creation.
type Anomaly struct {
	Subject string    `json:"subject"`
	Kind    Kind      `json:"kind"`
	Rows    []RowRef  `json:"rows"`
	Event   *EventRef `json:"event,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Result is the complete outcome of one check.
type Result struct {
	Check     string    `json:"check"`
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	Datasets  []string  `json:"datasets"`
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Subjects returns the number of distinct subjects among the result's
// anomalies.
func (r *Result) Subjects() int {
	seen := make(map[string]struct{})
	for _, a := range r.Anomalies {
		seen[a.Subject] = struct{}{}
	}
	return len(seen)
}

// sortResults orders results by check name so report output is stable.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Check < results[j].Check
	})
}

// failNote renders the standard Fail note: counts first, then the story.
func failNote(records, subjects int, what string) string {
	return fmt.Sprintf("%d record(s) across %d subject(s) %s", records, subjects, what)
}
