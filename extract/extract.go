package extract

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/dates"
	"github.com/teranos/edict/errors"
	"github.com/teranos/edict/study"
	"github.com/teranos/edict/sym"
)

// Fact is one normalized per-subject date observation in the long-form
// table: the externally consumable artifact used for whole-study date
// auditing.
type Fact struct {
	Subject    string
	Dataset    string
	Field      string
	VisitNum   string
	VisitLabel string
	Row        int
	Raw        string
	Date       dates.Canonical
}

// Unparseable records a non-empty, non-placeholder raw value that matched
// no known date shape. Excluded from the fact table but surfaced so a check
// can report it; never an error.
type Unparseable struct {
	Subject string
	Dataset string
	Field   string
	Row     int
	Raw     string
}

// Skip records a dataset excluded from extraction, with the reason.
type Skip struct {
	Dataset string
	Reason  string
}

// Table is the result of extracting a whole study: the long-form fact
// table plus everything that was deliberately left out of it.
type Table struct {
	Facts       []Fact
	Unparseable []Unparseable
	Skipped     []Skip
	// Descriptors holds the shape used for each extracted dataset, keyed by
	// tag. Downstream validators reuse them instead of re-deriving.
	Descriptors map[string]*Descriptor
}

// Extract unpivots one dataset into per-subject date facts using its
// descriptor. The source dataset is never mutated. Records without a
// subject value produce no facts; empty and placeholder date values are
// silently missing; unparseable values are reported separately.
func Extract(ds *study.Dataset, desc *Descriptor, cfg *am.StudyConfig) ([]Fact, []Unparseable) {
	var facts []Fact
	var bad []Unparseable

	for _, rec := range ds.Records {
		subject := rec.Value(desc.SubjectField)
		if subject == "" {
			continue
		}
		visitNum := ""
		if desc.VisitNumField != "" {
			visitNum = rec.Value(desc.VisitNumField)
		}
		visitLabel := ""
		if desc.VisitLabelField != "" {
			visitLabel = rec.Value(desc.VisitLabelField)
		}

		for _, df := range desc.DateFields {
			raw := rec.Value(df.Field)
			if raw == "" || isPlaceholder(raw, cfg.PlaceholderTokens) {
				continue
			}
			combined := raw
			if df.TimeField != "" {
				if tod := rec.Value(df.TimeField); tod != "" && !isPlaceholder(tod, cfg.PlaceholderTokens) {
					combined = dates.Combine(raw, tod)
				}
			}
			date, ok := dates.Parse(combined)
			if !ok {
				bad = append(bad, Unparseable{
					Subject: subject,
					Dataset: ds.Tag,
					Field:   df.Field,
					Row:     rec.Row,
					Raw:     raw,
				})
				continue
			}
			facts = append(facts, Fact{
				Subject:    subject,
				Dataset:    ds.Tag,
				Field:      df.Field,
				VisitNum:   visitNum,
				VisitLabel: visitLabel,
				Row:        rec.Row,
				Raw:        raw,
				Date:       date,
			})
		}
	}
	return facts, bad
}

// ExtractStudy extracts every dataset in the snapshot, fanning out across
// workers bounded by cfg workers. Datasets that cannot be described are
// skipped and reported, never fatal. Output ordering is deterministic
// regardless of worker count: facts are assembled in dataset-tag order,
// and within a dataset in record order.
func ExtractStudy(st *study.Study, cfg *am.Config, overrides map[string]*Descriptor, logger *zap.SugaredLogger) *Table {
	tags := st.Tags()

	type datasetResult struct {
		desc  *Descriptor
		facts []Fact
		bad   []Unparseable
		skip  *Skip
	}
	results := make([]datasetResult, len(tags))

	workers := cfg.Run.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tags) {
		workers = len(tags)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tag := tags[i]
				ds := st.Dataset(tag)

				desc, ok := overrides[tag]
				if !ok {
					var err error
					desc, err = Describe(ds, &cfg.Study)
					if err != nil {
						results[i] = datasetResult{skip: &Skip{Dataset: tag, Reason: skipReason(err)}}
						continue
					}
				}
				facts, bad := Extract(ds, desc, &cfg.Study)
				results[i] = datasetResult{desc: desc, facts: facts, bad: bad}
			}
		}()
	}
	for i := range tags {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	table := &Table{Descriptors: make(map[string]*Descriptor)}
	for i, tag := range tags {
		res := results[i]
		if res.skip != nil {
			table.Skipped = append(table.Skipped, *res.skip)
			if logger != nil {
				logger.Warnw("Dataset skipped",
					"dataset", tag,
					"reason", res.skip.Reason,
					"symbol", sym.Skip,
				)
			}
			continue
		}
		table.Descriptors[tag] = res.desc
		table.Facts = append(table.Facts, res.facts...)
		table.Unparseable = append(table.Unparseable, res.bad...)
		if logger != nil {
			logger.Infow("Dataset extracted",
				"dataset", tag,
				"facts", len(res.facts),
				"unparseable", len(res.bad),
				"symbol", sym.Dates,
			)
		}
	}
	return table
}

// BySubject groups facts per subject, preserving order within each group.
// Subject iteration via the returned key slice is deterministic.
func BySubject(facts []Fact) (map[string][]Fact, []string) {
	grouped := make(map[string][]Fact)
	var subjects []string
	for _, f := range facts {
		if _, seen := grouped[f.Subject]; !seen {
			subjects = append(subjects, f.Subject)
		}
		grouped[f.Subject] = append(grouped[f.Subject], f)
	}
	sort.Strings(subjects)
	return grouped, subjects
}

func isPlaceholder(value string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.EqualFold(value, tok) {
			return true
		}
	}
	return false
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNoSubjectField):
		return "no subject-identifier field"
	case errors.Is(err, ErrNoDateFields):
		return "no date-bearing fields"
	default:
		return err.Error()
	}
}
