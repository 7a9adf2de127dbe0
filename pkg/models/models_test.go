package models

import (
	"testing"
)

func TestKeyValue(t *testing.T) {
	row := Record{"impact": "High", "urgency": "Low", "priority": "P2"}

	if got := KeyValue([]string{"impact"}, row); got != "High" {
		t.Errorf("Expected single-column key High, got %q", got)
	}

	expected := "High" + KeySeparator + "Low"
	if got := KeyValue([]string{"impact", "urgency"}, row); got != expected {
		t.Errorf("Expected composite key %q, got %q", expected, got)
	}

	// A partially empty composite key still identifies the row
	partial := Record{"impact": "High", "urgency": ""}
	expected = "High" + KeySeparator
	if got := KeyValue([]string{"impact", "urgency"}, partial); got != expected {
		t.Errorf("Expected partial composite key %q, got %q", expected, got)
	}
}

func TestKeyValueAllPartsEmpty(t *testing.T) {
	// An all-empty composite key must collapse to "" rather than the
	// bare separator, which would pass empty-key guards downstream
	row := Record{"impact": "", "urgency": ""}
	if got := KeyValue([]string{"impact", "urgency"}, row); got != "" {
		t.Errorf("Expected empty key for all-empty parts, got %q", got)
	}
}

func TestValidationReportCounts(t *testing.T) {
	report := NewValidationReport()
	if report.RunID == "" {
		t.Error("Expected a fresh report to carry a run id")
	}
	if report.HasViolations() {
		t.Error("Expected a fresh report to be clean")
	}

	report.Add("services_catalog",
		Violation{Kind: DuplicateKey, Value: "SVC-001"},
		Violation{Kind: DanglingReference, Value: "SVC-999"},
	)
	report.Add("services_catalog") // no-op

	if report.TotalViolations() != 2 {
		t.Errorf("Expected 2 violations, got %d", report.TotalViolations())
	}
	if report.CountKind(DuplicateKey) != 1 {
		t.Errorf("Expected 1 duplicate key violation, got %d", report.CountKind(DuplicateKey))
	}
	if len(report.Violations["services_catalog"]) != 2 {
		t.Errorf("Expected both violations under services_catalog, got %v", report.Violations)
	}
}
