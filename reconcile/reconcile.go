// Package reconcile resolves one authoritative date per subject for a
// named logical event reported redundantly across datasets.
//
// The domain policy is earliest-wins: the earliest reported evidence of a
// terminal event is taken as authoritative, and later conflicting reports
// are surfaced downstream as anomalies rather than adopted. Resolution is
// deterministic for a given set of inputs regardless of dataset iteration
// order.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/dates"
	"github.com/teranos/edict/study"
	"github.com/teranos/edict/sym"
)

// Contribution is one non-missing candidate date with its provenance.
type Contribution struct {
	Dataset string
	Field   string
	Row     int
	Date    dates.Canonical
}

// Source renders the provenance tag used in audit text ("AE.AEDTHDTC").
func (c Contribution) Source() string {
	return c.Dataset + "." + c.Field
}

// ReferenceEvent is the resolved date of one logical event for one subject,
// with every contributing candidate retained for audit text.
type ReferenceEvent struct {
	Subject   string
	EventType string
	// Resolved is the earliest non-missing contributing date.
	Resolved dates.Canonical
	// Contributing is ordered by (date, dataset, field): the resolving
	// candidate first, later conflicting reports after it.
	Contributing []Contribution
}

// Explain renders the audit line for a resolved event, naming the winning
// source and any conflicting later reports.
func (e *ReferenceEvent) Explain() string {
	if len(e.Contributing) == 0 {
		return ""
	}
	s := fmt.Sprintf("%s resolved to %s from %s", e.EventType, e.Resolved.String(), e.Contributing[0].Source())
	for _, c := range e.Contributing[1:] {
		s += fmt.Sprintf("; %s reports %s", c.Source(), c.Date.String())
	}
	return s
}

// Resolve gathers candidate dates for the named event from every evidence
// rule and resolves one ReferenceEvent per subject with at least one
// non-missing candidate. Subjects with no usable evidence simply have no
// entry in the result; that is a normal state, not a failure. Rules naming
// absent datasets or fields contribute nothing.
func Resolve(st *study.Study, eventType string, rules []am.EvidenceConfig, cfg *am.StudyConfig, logger *zap.SugaredLogger) map[string]*ReferenceEvent {
	bySubject := make(map[string][]Contribution)

	for _, rule := range rules {
		ds := st.Dataset(rule.Dataset)
		if ds == nil || !ds.HasField(rule.DateField) {
			continue
		}
		subjectField := subjectFieldFor(ds, cfg)
		if subjectField == "" {
			continue
		}
		if rule.WhenField != "" && !ds.HasField(rule.WhenField) {
			continue
		}

		for _, rec := range ds.Records {
			subject := rec.Value(subjectField)
			if subject == "" {
				continue
			}
			if rule.WhenField != "" && !matchesAny(rec.Value(rule.WhenField), rule.WhenAnyOf) {
				continue
			}
			raw := rec.Value(rule.DateField)
			if raw == "" || isPlaceholder(raw, cfg.PlaceholderTokens) {
				continue
			}
			date, ok := dates.Parse(raw)
			if !ok {
				// Unparseable candidates are missing, discarded silently.
				continue
			}
			bySubject[subject] = append(bySubject[subject], Contribution{
				Dataset: rule.Dataset,
				Field:   rule.DateField,
				Row:     rec.Row,
				Date:    date,
			})
		}
	}

	events := make(map[string]*ReferenceEvent, len(bySubject))
	for subject, contributing := range bySubject {
		sortContributions(contributing)
		events[subject] = &ReferenceEvent{
			Subject:      subject,
			EventType:    eventType,
			Resolved:     contributing[0].Date,
			Contributing: contributing,
		}
	}

	if logger != nil {
		logger.Infow("Reference events resolved",
			"event", eventType,
			"subjects", len(events),
			"symbol", sym.Reconcile,
		)
	}
	return events
}

// Subjects returns the resolved subjects in lexical order.
func Subjects(events map[string]*ReferenceEvent) []string {
	subjects := make([]string, 0, len(events))
	for s := range events {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// sortContributions orders candidates by (date, dataset, field, row). The
// leading entry is the resolved date; the full order is the documented
// deterministic tie-break.
func sortContributions(contributing []Contribution) {
	sort.Slice(contributing, func(i, j int) bool {
		a, b := contributing[i], contributing[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Row < b.Row
	})
}

func subjectFieldFor(ds *study.Dataset, cfg *am.StudyConfig) string {
	for _, c := range cfg.SubjectFields {
		if ds.HasField(c) {
			return c
		}
	}
	return ""
}

func matchesAny(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

func isPlaceholder(value string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.EqualFold(value, tok) {
			return true
		}
	}
	return false
}
