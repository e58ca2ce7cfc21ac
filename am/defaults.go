package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "edict.db")

	// Study shape defaults: SDTM-like naming conventions
	v.SetDefault("study.date_suffixes", []string{"DTC", "DAT", "DATE"})
	v.SetDefault("study.time_suffix", "TIM")
	v.SetDefault("study.subject_fields", []string{"USUBJID", "SUBJID", "SUBJECT"})
	v.SetDefault("study.visit_num_fields", []string{"VISITNUM", "VISNUM"})
	v.SetDefault("study.visit_label_fields", []string{"VISIT", "PAGE"})
	v.SetDefault("study.not_done_fields", []string{"STAT", "ND"})
	v.SetDefault("study.not_done_values", []string{"NOT DONE", "ND", "Y"})
	v.SetDefault("study.unscheduled_labels", []string{
		"UNSCHEDULED",
		"UNSCHED",
		"EARLY DISCONTINUATION",
		"EARLY TERMINATION",
	})
	v.SetDefault("study.placeholder_tokens", []string{"UNK", "UNKNOWN", "NA"})
	v.SetDefault("study.descriptor_file", "")

	// Run defaults
	v.SetDefault("run.workers", 1)
}

// DefaultDeathEvidence returns the built-in death-evidence sources used when
// the config file does not declare any. Viper defaults cannot express a
// slice of tables, so this lives here instead of SetDefaults.
func DefaultDeathEvidence() []EvidenceConfig {
	return []EvidenceConfig{
		{Dataset: "DM", DateField: "DTHDTC"},
		{Dataset: "AE", DateField: "AEDTHDTC", WhenField: "AESDTH", WhenAnyOf: []string{"Y", "YES"}},
		{Dataset: "AE", DateField: "AEENDTC", WhenField: "AEOUT", WhenAnyOf: []string{"FATAL"}},
		{Dataset: "DS", DateField: "DSSTDTC", WhenField: "DSDECOD", WhenAnyOf: []string{"DEATH"}},
	}
}
