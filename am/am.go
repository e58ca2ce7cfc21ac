// Package am manages the core EDICT configuration ("I am").
//
// Configuration is read from ~/.edict/am.toml via Viper, with defaults that
// match the common SDTM-like field naming conventions. Everything the
// engine introspects by naming convention — date suffixes, subject keys,
// visit fields, placeholder tokens — lives here, so a study captured with
// different conventions needs a config change, not a code change.
package am

// Config represents the core EDICT configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Study    StudyConfig    `mapstructure:"study" toml:"study"`
	Run      RunConfig      `mapstructure:"run" toml:"run"`
}

// DatabaseConfig configures the SQLite database that persists run history
// and the long-form date table.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// StudyConfig configures how dataset shapes are interpreted.
type StudyConfig struct {
	// DateSuffixes identify date-bearing fields by field-name suffix.
	DateSuffixes []string `mapstructure:"date_suffixes" toml:"date_suffixes"`
	// TimeSuffix identifies the companion time field for a date field with
	// the same prefix (LBDAT + LBTIM).
	TimeSuffix string `mapstructure:"time_suffix" toml:"time_suffix"`
	// SubjectFields are candidate subject-identifier columns, in preference
	// order. A dataset carrying none of them is skipped.
	SubjectFields []string `mapstructure:"subject_fields" toml:"subject_fields"`
	// VisitNumFields are candidate declared-visit-number columns.
	VisitNumFields []string `mapstructure:"visit_num_fields" toml:"visit_num_fields"`
	// VisitLabelFields are candidate visit/page label columns.
	VisitLabelFields []string `mapstructure:"visit_label_fields" toml:"visit_label_fields"`
	// NotDoneFields are candidate completion-status columns; records whose
	// value matches NotDoneValues are excluded from visit ordering.
	NotDoneFields []string `mapstructure:"not_done_fields" toml:"not_done_fields"`
	NotDoneValues []string `mapstructure:"not_done_values" toml:"not_done_values"`
	// UnscheduledLabels exclude whole visits from ordering by label.
	UnscheduledLabels []string `mapstructure:"unscheduled_labels" toml:"unscheduled_labels"`
	// PlaceholderTokens are raw values treated as missing even though they
	// are non-empty ("UNK", "UNKNOWN").
	PlaceholderTokens []string `mapstructure:"placeholder_tokens" toml:"placeholder_tokens"`
	// DescriptorFile optionally points at a YAML file of per-dataset
	// descriptor overrides, replacing name-convention introspection for the
	// datasets it lists.
	DescriptorFile string `mapstructure:"descriptor_file" toml:"descriptor_file"`
	// DeathEvidence lists where evidence of a subject's death is reported.
	DeathEvidence []EvidenceConfig `mapstructure:"death_evidence" toml:"death_evidence"`
}

// EvidenceConfig names one source of reference-event evidence: a date field
// in a dataset, optionally gated on another field's decoded value.
type EvidenceConfig struct {
	Dataset   string   `mapstructure:"dataset" toml:"dataset"`
	DateField string   `mapstructure:"date_field" toml:"date_field"`
	WhenField string   `mapstructure:"when_field" toml:"when_field"`
	WhenAnyOf []string `mapstructure:"when_any_of" toml:"when_any_of"`
}

// RunConfig configures engine execution.
type RunConfig struct {
	// Workers bounds the per-dataset extraction fan-out. Output order is
	// deterministic regardless of worker count.
	Workers int `mapstructure:"workers" toml:"workers"`
}
