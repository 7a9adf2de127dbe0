package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier classifies a dataset by its position in the load order
type Tier string

const (
	TierLookup  Tier = "lookup"
	TierFact    Tier = "fact"
	TierLive    Tier = "live"
	TierDerived Tier = "derived"
)

// ValidTier reports whether s is a known tier name
func ValidTier(s string) bool {
	switch Tier(s) {
	case TierLookup, TierFact, TierLive, TierDerived:
		return true
	}
	return false
}

// ForeignKeyRef declares that values in Column must resolve to primary keys
// of ReferencedDataset
type ForeignKeyRef struct {
	Column            string `yaml:"column"`
	ReferencedDataset string `yaml:"references"`
}

// Dataset describes a registered dataset: its schema, primary key, tier,
// join dependencies, and quality expectations
type Dataset struct {
	Name              string          `yaml:"name"`
	Columns           []string        `yaml:"columns"`
	PrimaryKey        []string        `yaml:"primary_key"`
	Tier              Tier            `yaml:"tier"`
	ForeignKeys       []ForeignKeyRef `yaml:"foreign_keys,omitempty"`
	Required          []string        `yaml:"required,omitempty"`
	NullRateThreshold float64         `yaml:"null_rate_threshold,omitempty"`
	MinRows           int             `yaml:"min_rows,omitempty"`
	MaxRows           int             `yaml:"max_rows,omitempty"`
}

// HasColumn reports whether name is among the declared columns
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record is a single row with named, string-valued fields. All sources
// normalize values to strings before validation, the same way the
// dashboard compared stringified key sets.
type Record map[string]string

// Table is a fetched dataset: the physical column list plus its rows
type Table struct {
	Name    string
	Columns []string
	Rows    []Record
}

// KeySeparator joins the parts of a composite primary key value
const KeySeparator = "\x1f"

// KeyValue extracts the primary-key value of a record, joining composite
// key columns with KeySeparator. A key whose parts are all empty is the
// empty string, so it never masquerades as a real key.
func KeyValue(pk []string, row Record) string {
	if len(pk) == 1 {
		return row[pk[0]]
	}
	parts := make([]string, len(pk))
	empty := true
	for i, col := range pk {
		parts[i] = row[col]
		if parts[i] != "" {
			empty = false
		}
	}
	if empty {
		return ""
	}
	return strings.Join(parts, KeySeparator)
}

// LoadPlan is a dependency-respecting order over all registered datasets.
// Stages groups datasets that have no ordering constraint between them;
// members of one stage may be validated concurrently. Immutable once built.
type LoadPlan struct {
	Order  []string
	Stages [][]string
}

// ViolationKind identifies a class of data-quality or join problem
type ViolationKind string

const (
	MissingColumn      ViolationKind = "missing_column"
	NullRateExceeded   ViolationKind = "null_rate_exceeded"
	DuplicateKey       ViolationKind = "duplicate_key"
	RowCountOutOfRange ViolationKind = "row_count_out_of_range"
	DanglingReference  ViolationKind = "dangling_reference"
)

// Violation is a single finding against a dataset. Violations are values,
// not errors: they accumulate in the report and never abort a run.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Column  string        `json:"column,omitempty"`
	Value   string        `json:"value,omitempty"`
	Rows    []int         `json:"rows,omitempty"`
	Message string        `json:"message"`
}

// DatasetState tracks a dataset through the pipeline state machine
type DatasetState string

const (
	DatasetPending   DatasetState = "pending"
	DatasetLoading   DatasetState = "loading"
	DatasetValidated DatasetState = "validated"
	DatasetFailed    DatasetState = "failed"
)

// ValidationReport collects every violation found during one load attempt.
// It is created fresh per run and discarded after being surfaced.
type ValidationReport struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Order      []string               `json:"order"`
	Violations map[string][]Violation `json:"violations"`
}

// NewValidationReport creates an empty report with a fresh run id
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Violations: make(map[string][]Violation),
	}
}

// Add appends violations found for a dataset
func (r *ValidationReport) Add(dataset string, violations ...Violation) {
	if len(violations) == 0 {
		return
	}
	r.Violations[dataset] = append(r.Violations[dataset], violations...)
}

// TotalViolations returns the number of violations across all datasets
func (r *ValidationReport) TotalViolations() int {
	total := 0
	for _, vs := range r.Violations {
		total += len(vs)
	}
	return total
}

// HasViolations reports whether any dataset has at least one violation
func (r *ValidationReport) HasViolations() bool {
	return r.TotalViolations() > 0
}

// CountKind returns the number of violations of the given kind
func (r *ValidationReport) CountKind(kind ViolationKind) int {
	count := 0
	for _, vs := range r.Violations {
		for _, v := range vs {
			if v.Kind == kind {
				count++
			}
		}
	}
	return count
}
