package quality

import (
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func servicesDataset() *models.Dataset {
	return &models.Dataset{
		Name:       "services_catalog",
		Columns:    []string{"service_id", "name", "criticality"},
		PrimaryKey: []string{"service_id"},
		Tier:       models.TierLookup,
		Required:   []string{"service_id", "name"},
	}
}

func violationsOfKind(violations []models.Violation, kind models.ViolationKind) []models.Violation {
	var out []models.Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestCheckCleanTable(t *testing.T) {
	gate := NewGate(testLogger())
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name", "criticality"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email", "criticality": "High"},
			{"service_id": "SVC-002", "name": "VPN", "criticality": "Medium"},
		},
	}

	violations := gate.Check(servicesDataset(), table)
	if len(violations) != 0 {
		t.Errorf("Expected no violations for a clean table, got %v", violations)
	}
}

func TestCheckMissingColumn(t *testing.T) {
	gate := NewGate(testLogger())
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email"},
		},
	}

	violations := gate.Check(servicesDataset(), table)
	missing := violationsOfKind(violations, models.MissingColumn)
	if len(missing) != 1 {
		t.Fatalf("Expected 1 missing column violation, got %d", len(missing))
	}
	if missing[0].Column != "criticality" {
		t.Errorf("Expected missing column criticality, got %s", missing[0].Column)
	}
}

func TestCheckNullRate(t *testing.T) {
	gate := NewGate(testLogger())
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name", "criticality"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email", "criticality": "High"},
			{"service_id": "SVC-002", "name": "", "criticality": "Low"},
			{"service_id": "SVC-003", "name": "  ", "criticality": "Low"},
		},
	}

	// Default threshold is zero tolerance
	violations := gate.Check(servicesDataset(), table)
	nulls := violationsOfKind(violations, models.NullRateExceeded)
	if len(nulls) != 1 {
		t.Fatalf("Expected 1 null rate violation, got %d", len(nulls))
	}
	if nulls[0].Column != "name" {
		t.Errorf("Expected violation on column name, got %s", nulls[0].Column)
	}

	// A permissive per-dataset threshold silences it
	ds := servicesDataset()
	ds.NullRateThreshold = 0.7
	violations = gate.Check(ds, table)
	if len(violationsOfKind(violations, models.NullRateExceeded)) != 0 {
		t.Error("Expected no null rate violation under a 70% threshold")
	}
}

func TestCheckDuplicateKeys(t *testing.T) {
	gate := NewGate(testLogger())
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name", "criticality"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email", "criticality": "High"},
			{"service_id": "SVC-002", "name": "VPN", "criticality": "Low"},
			{"service_id": "SVC-001", "name": "Email again", "criticality": "High"},
			{"service_id": "SVC-002", "name": "VPN again", "criticality": "Low"},
			{"service_id": "SVC-001", "name": "Email thrice", "criticality": "High"},
		},
	}

	violations := gate.Check(servicesDataset(), table)
	dups := violationsOfKind(violations, models.DuplicateKey)

	// Exactly one violation per distinct duplicated key
	if len(dups) != 2 {
		t.Fatalf("Expected 2 duplicate key violations, got %d", len(dups))
	}

	byValue := make(map[string][]int)
	for _, v := range dups {
		byValue[v.Value] = v.Rows
	}
	if !reflect.DeepEqual(byValue["SVC-001"], []int{0, 2, 4}) {
		t.Errorf("Expected SVC-001 rows [0 2 4], got %v", byValue["SVC-001"])
	}
	if !reflect.DeepEqual(byValue["SVC-002"], []int{1, 3}) {
		t.Errorf("Expected SVC-002 rows [1 3], got %v", byValue["SVC-002"])
	}
}

func TestCheckCompositeKey(t *testing.T) {
	gate := NewGate(testLogger())
	ds := &models.Dataset{
		Name:       "priority_matrix",
		Columns:    []string{"impact", "urgency", "priority"},
		PrimaryKey: []string{"impact", "urgency"},
		Tier:       models.TierLookup,
	}
	table := models.Table{
		Name:    "priority_matrix",
		Columns: []string{"impact", "urgency", "priority"},
		Rows: []models.Record{
			{"impact": "High", "urgency": "High", "priority": "P1"},
			{"impact": "High", "urgency": "Low", "priority": "P2"},
			{"impact": "High", "urgency": "High", "priority": "P1"},
		},
	}

	violations := gate.Check(ds, table)
	dups := violationsOfKind(violations, models.DuplicateKey)
	if len(dups) != 1 {
		t.Fatalf("Expected 1 duplicate composite key violation, got %d", len(dups))
	}
	if !reflect.DeepEqual(dups[0].Rows, []int{0, 2}) {
		t.Errorf("Expected rows [0 2], got %v", dups[0].Rows)
	}
}

func TestCheckRowCount(t *testing.T) {
	gate := NewGate(testLogger())
	ds := servicesDataset()
	ds.MinRows = 2
	ds.MaxRows = 3

	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name", "criticality"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email", "criticality": "High"},
		},
	}

	violations := gate.Check(ds, table)
	if len(violationsOfKind(violations, models.RowCountOutOfRange)) != 1 {
		t.Error("Expected a row count violation below the declared minimum")
	}

	table.Rows = append(table.Rows,
		models.Record{"service_id": "SVC-002", "name": "VPN", "criticality": "Low"})
	violations = gate.Check(ds, table)
	if len(violationsOfKind(violations, models.RowCountOutOfRange)) != 0 {
		t.Error("Expected no row count violation inside the declared range")
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	gate := NewGate(testLogger())
	ds := servicesDataset()
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": ""},
			{"service_id": "SVC-001", "name": "Email"},
		},
	}

	first := gate.Check(ds, table)
	second := gate.Check(ds, table)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical reports across runs, got %v and %v", first, second)
	}
	if len(first) == 0 {
		t.Error("Expected the degenerate table to produce violations")
	}

	// Rows must not be mutated by the checks
	if table.Rows[0]["name"] != "" || table.Rows[1]["name"] != "Email" {
		t.Error("Expected rows to be left untouched")
	}
}

func TestKeySet(t *testing.T) {
	gate := NewGate(testLogger())
	ds := servicesDataset()
	table := models.Table{
		Name:    "services_catalog",
		Columns: []string{"service_id", "name", "criticality"},
		Rows: []models.Record{
			{"service_id": "SVC-001", "name": "Email", "criticality": "High"},
			{"service_id": "SVC-002", "name": "VPN", "criticality": "Low"},
			{"service_id": "", "name": "Orphan", "criticality": "Low"},
		},
	}

	keys := gate.KeySet(ds, table)
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys (empty key skipped), got %d", len(keys))
	}
	if _, ok := keys["SVC-001"]; !ok {
		t.Error("Expected key set to contain SVC-001")
	}
	if _, ok := keys["SVC-002"]; !ok {
		t.Error("Expected key set to contain SVC-002")
	}
}

func TestKeySetSkipsAllEmptyCompositeKey(t *testing.T) {
	gate := NewGate(testLogger())
	ds := &models.Dataset{
		Name:       "priority_matrix",
		Columns:    []string{"impact", "urgency", "priority"},
		PrimaryKey: []string{"impact", "urgency"},
		Tier:       models.TierLookup,
	}
	table := models.Table{
		Name:    "priority_matrix",
		Columns: []string{"impact", "urgency", "priority"},
		Rows: []models.Record{
			{"impact": "High", "urgency": "High", "priority": "P1"},
			{"impact": "", "urgency": "", "priority": "P4"},
		},
	}

	keys := gate.KeySet(ds, table)
	if len(keys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(keys))
	}
	// The all-empty row must not publish a separator-only key
	if _, ok := keys[models.KeySeparator]; ok {
		t.Error("Expected no key for the all-empty composite row")
	}
	if _, ok := keys["High"+models.KeySeparator+"High"]; !ok {
		t.Error("Expected the real composite key to be published")
	}
}
