package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// Gate runs per-dataset quality checks. It only reports: rows are never
// mutated or dropped, and no finding aborts the run.
type Gate struct {
	Logger *logrus.Logger
}

// NewGate creates a new quality gate
func NewGate(logger *logrus.Logger) *Gate {
	return &Gate{Logger: logger}
}

// Check validates a fetched table against its dataset declaration and
// returns every violation found: declared columns missing from the table,
// required columns whose empty-value rate exceeds the dataset threshold,
// duplicated primary keys (one violation per distinct key, listing all
// offending rows), and row counts outside the expected range.
func (g *Gate) Check(ds *models.Dataset, table models.Table) []models.Violation {
	var violations []models.Violation

	present := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		present[col] = true
	}

	for _, col := range ds.Columns {
		if !present[col] {
			violations = append(violations, models.Violation{
				Kind:    models.MissingColumn,
				Column:  col,
				Message: fmt.Sprintf("declared column %q is missing from %s", col, table.Name),
			})
		}
	}

	violations = append(violations, g.checkNullRates(ds, table, present)...)
	violations = append(violations, g.checkKeyUniqueness(ds, table, present)...)
	violations = append(violations, checkRowCount(ds, table)...)

	if g.Logger != nil && len(violations) > 0 {
		g.Logger.Warningf("Quality gate found %d violation(s) in dataset %s", len(violations), ds.Name)
	}

	return violations
}

// checkNullRates computes the empty-value rate of every required column
func (g *Gate) checkNullRates(ds *models.Dataset, table models.Table, present map[string]bool) []models.Violation {
	var violations []models.Violation
	if len(table.Rows) == 0 {
		return nil
	}

	for _, col := range ds.Required {
		if !present[col] {
			// Already reported as a missing column
			continue
		}
		empty := 0
		for _, row := range table.Rows {
			if strings.TrimSpace(row[col]) == "" {
				empty++
			}
		}
		rate := float64(empty) / float64(len(table.Rows))
		if rate > ds.NullRateThreshold {
			violations = append(violations, models.Violation{
				Kind:   models.NullRateExceeded,
				Column: col,
				Message: fmt.Sprintf("required column %q is empty in %d of %d rows (%.1f%%, threshold %.1f%%)",
					col, empty, len(table.Rows), rate*100, ds.NullRateThreshold*100),
			})
		}
	}

	return violations
}

// checkKeyUniqueness reports one violation per distinct duplicated primary
// key value, naming every row that carries it
func (g *Gate) checkKeyUniqueness(ds *models.Dataset, table models.Table, present map[string]bool) []models.Violation {
	for _, col := range ds.PrimaryKey {
		if !present[col] {
			return nil
		}
	}

	rowsByKey := make(map[string][]int)
	var keyOrder []string
	for i, row := range table.Rows {
		key := models.KeyValue(ds.PrimaryKey, row)
		if _, seen := rowsByKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		rowsByKey[key] = append(rowsByKey[key], i)
	}

	var violations []models.Violation
	for _, key := range keyOrder {
		rows := rowsByKey[key]
		if len(rows) < 2 {
			continue
		}
		display := strings.ReplaceAll(key, models.KeySeparator, "|")
		violations = append(violations, models.Violation{
			Kind:   models.DuplicateKey,
			Column: strings.Join(ds.PrimaryKey, ","),
			Value:  display,
			Rows:   rows,
			Message: fmt.Sprintf("primary key %q appears in %d rows of %s",
				display, len(rows), table.Name),
		})
	}

	return violations
}

// checkRowCount applies the expected row-count range, when one is declared
func checkRowCount(ds *models.Dataset, table models.Table) []models.Violation {
	if ds.MinRows == 0 && ds.MaxRows == 0 {
		return nil
	}
	count := len(table.Rows)
	if count >= ds.MinRows && (ds.MaxRows == 0 || count <= ds.MaxRows) {
		return nil
	}
	return []models.Violation{{
		Kind: models.RowCountOutOfRange,
		Message: fmt.Sprintf("%s has %d rows, expected between %d and %d",
			table.Name, count, ds.MinRows, ds.MaxRows),
	}}
}

// KeySet builds the set of primary-key values of a validated table. The
// loader publishes it once per dataset; join integrity checks for
// dependent datasets read it thereafter.
func (g *Gate) KeySet(ds *models.Dataset, table models.Table) map[string]struct{} {
	keys := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		key := models.KeyValue(ds.PrimaryKey, row)
		if key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}

// SortViolations orders violations for stable reporting: by kind, then
// column, then value
func SortViolations(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Kind != violations[j].Kind {
			return violations[i].Kind < violations[j].Kind
		}
		if violations[i].Column != violations[j].Column {
			return violations[i].Column < violations[j].Column
		}
		return violations[i].Value < violations[j].Value
	})
}
