package check

import (
	"fmt"
	"sort"

	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/postevent"
	"github.com/teranos/edict/reconcile"
	"github.com/teranos/edict/visits"
)

// The built-in checks below are the reusable cores that per-study rule
// catalogs wrap: one check instance per dataset pairing, each formatted
// into exactly one Result.

// unparseableCheck reports raw date values that matched no known shape.
func unparseableCheck(tag string, bad []extract.Unparseable) Result {
	result := Result{
		Check:    "unparseable-dates/" + tag,
		Datasets: []string{tag},
	}
	for _, u := range bad {
		if u.Dataset != tag {
			continue
		}
		result.Anomalies = append(result.Anomalies, Anomaly{
			Subject: u.Subject,
			Kind:    KindUnparseable,
			Rows:    []RowRef{{Dataset: u.Dataset, Row: u.Row, Field: u.Field}},
			Detail:  fmt.Sprintf("value %q matches no known date shape", u.Raw),
		})
	}
	if len(result.Anomalies) == 0 {
		result.Status = StatusPass
		result.Note = "All non-missing date values parse"
		return result
	}
	result.Status = StatusFail
	result.Note = failNote(len(result.Anomalies), result.Subjects(), "carry unparseable date values")
	return result
}

// postEventCheck reports records in one dataset dated strictly after the
// subject's resolved reference event.
func postEventCheck(tag, eventType string, hits []postevent.Hit, haveEvents bool) Result {
	result := Result{
		Check:    fmt.Sprintf("dates-after-%s/%s", eventType, tag),
		Datasets: []string{tag},
	}
	if !haveEvents {
		result.Status = StatusNotApplicable
		result.Note = fmt.Sprintf("No subject has a resolved %s date", eventType)
		return result
	}
	for _, h := range hits {
		result.Anomalies = append(result.Anomalies, Anomaly{
			Subject: h.Fact.Subject,
			Kind:    KindPostEvent,
			Rows:    []RowRef{{Dataset: h.Fact.Dataset, Row: h.Fact.Row, Field: h.Fact.Field}},
			Event:   eventRef(h.Event),
			Detail: fmt.Sprintf("%s=%s is after %s",
				h.Fact.Field, h.Fact.Date.String(), h.Event.Explain()),
		})
	}
	if len(result.Anomalies) == 0 {
		result.Status = StatusPass
		result.Note = fmt.Sprintf("No records dated after the resolved %s date", eventType)
		return result
	}
	result.Status = StatusFail
	result.Note = failNote(len(result.Anomalies), result.Subjects(),
		fmt.Sprintf("are dated after the resolved %s date", eventType))
	return result
}

// visitOrderCheck reports subjects whose date sequence contradicts their
// declared visit sequence in one dataset.
func visitOrderCheck(tag string, vr visits.Result, hasVisits bool) Result {
	result := Result{
		Check:    "visit-order/" + tag,
		Datasets: []string{tag},
	}
	if !hasVisits {
		result.Status = StatusSkipped
		result.Note = "Dataset has no visit-number field"
		return result
	}
	if vr.NotApplicable {
		result.Status = StatusNotApplicable
		result.Note = "Visit number has a single distinct value; ordering cannot be evaluated"
		return result
	}
	records := 0
	for _, v := range vr.Violations {
		anomaly := Anomaly{Subject: v.Subject, Kind: KindOrderViolation}
		for _, r := range v.Records {
			anomaly.Rows = append(anomaly.Rows, RowRef{Dataset: tag, Row: r.Row})
			records++
		}
		anomaly.Detail = fmt.Sprintf("%d record(s) ranked out of declared visit order", len(v.Records))
		result.Anomalies = append(result.Anomalies, anomaly)
	}
	if len(result.Anomalies) == 0 {
		result.Status = StatusPass
		result.Note = fmt.Sprintf("Visit and date order agree for %d subject(s)", vr.Subjects)
		return result
	}
	result.Status = StatusFail
	result.Note = failNote(records, result.Subjects(), "contradict their declared visit order")
	return result
}

// duplicateDateCheck reports same-date records across different visits.
func duplicateDateCheck(tag string, vr visits.Result, hasVisits bool) Result {
	result := Result{
		Check:    "duplicate-dates/" + tag,
		Datasets: []string{tag},
	}
	if !hasVisits {
		result.Status = StatusSkipped
		result.Note = "Dataset has no visit-number field"
		return result
	}
	if vr.NotApplicable {
		result.Status = StatusNotApplicable
		result.Note = "Visit number has a single distinct value; ordering cannot be evaluated"
		return result
	}
	records := 0
	for _, d := range vr.Duplicates {
		anomaly := Anomaly{Subject: d.Subject, Kind: KindDuplicateDate}
		for _, r := range d.Records {
			anomaly.Rows = append(anomaly.Rows, RowRef{Dataset: tag, Row: r.Row})
			records++
		}
		anomaly.Detail = fmt.Sprintf("%d record(s) share date %s across visits", len(d.Records), d.Date.String())
		result.Anomalies = append(result.Anomalies, anomaly)
	}
	if len(result.Anomalies) == 0 {
		result.Status = StatusPass
		result.Note = "No duplicate visit dates"
		return result
	}
	result.Status = StatusFail
	result.Note = failNote(records, result.Subjects(), "share a date across different visits")
	return result
}

// skippedDatasetResult reports a dataset excluded from the run entirely.
func skippedDatasetResult(skip extract.Skip) Result {
	return Result{
		Check:    "date-extraction/" + skip.Dataset,
		Status:   StatusSkipped,
		Note:     "Dataset skipped: " + skip.Reason,
		Datasets: []string{skip.Dataset},
	}
}

// reconciliationResult summarizes reference-event resolution itself.
func reconciliationResult(eventType string, events map[string]*reconcile.ReferenceEvent) Result {
	result := Result{
		Check: "reconcile-" + eventType,
	}
	if len(events) == 0 {
		result.Status = StatusNotApplicable
		result.Note = fmt.Sprintf("No subject has any non-missing %s evidence", eventType)
		return result
	}
	datasets := make(map[string]struct{})
	for _, ev := range events {
		for _, c := range ev.Contributing {
			datasets[c.Dataset] = struct{}{}
		}
	}
	for tag := range datasets {
		result.Datasets = append(result.Datasets, tag)
	}
	sort.Strings(result.Datasets)
	result.Status = StatusPass
	result.Note = fmt.Sprintf("Resolved %s date for %d subject(s)", eventType, len(events))
	return result
}

func eventRef(ev *reconcile.ReferenceEvent) *EventRef {
	ref := &EventRef{
		EventType: ev.EventType,
		Resolved:  ev.Resolved.String(),
	}
	for _, c := range ev.Contributing {
		ref.Sources = append(ref.Sources, c.Source())
	}
	return ref
}
