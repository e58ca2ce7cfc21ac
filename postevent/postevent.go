// Package postevent flags records dated strictly after a subject's
// resolved reference event.
//
// The comparison is strict: a record dated exactly on the reference date
// is expected — the record believed to cause or coincide with the event
// shares its date — and is never flagged.
package postevent

import (
	"github.com/teranos/edict/extract"
	"github.com/teranos/edict/reconcile"
)

// Hit is one record dated after its subject's reference event, carrying
// the event so reports can explain which source(s) produced the reference
// date.
type Hit struct {
	Fact  extract.Fact
	Event *reconcile.ReferenceEvent
}

// Detect joins the long-form fact table against the resolved reference
// events by subject and returns every strictly-later record. Subjects
// without a reference event contribute nothing. Input fact order is
// preserved, so output is deterministic whenever the fact table is.
func Detect(facts []extract.Fact, events map[string]*reconcile.ReferenceEvent) []Hit {
	var hits []Hit
	for _, f := range facts {
		ev, ok := events[f.Subject]
		if !ok {
			continue
		}
		if f.Date.After(ev.Resolved) {
			hits = append(hits, Hit{Fact: f, Event: ev})
		}
	}
	return hits
}

// ByDataset buckets hits per source dataset tag, preserving order.
func ByDataset(hits []Hit) map[string][]Hit {
	out := make(map[string][]Hit)
	for _, h := range hits {
		out[h.Fact.Dataset] = append(out[h.Fact.Dataset], h)
	}
	return out
}
