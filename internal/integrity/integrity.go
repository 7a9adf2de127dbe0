package integrity

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// Checker verifies that foreign-key values resolve to primary keys of
// their referenced datasets. It runs strictly after the referenced
// datasets have been validated, so the supplied key sets are complete and
// immutable at check time.
type Checker struct {
	Logger *logrus.Logger
}

// NewChecker creates a new join integrity checker
func NewChecker(logger *logrus.Logger) *Checker {
	return &Checker{Logger: logger}
}

// Check reports a DanglingReference violation for every row whose
// foreign-key value does not exist in the referenced dataset's published
// key set. Empty values are unset optional references and are skipped,
// matching how the dashboard dropped NA values before comparing key sets.
// A self-referencing foreign key resolves against the table's own keys.
func (c *Checker) Check(ds *models.Dataset, table models.Table, publishedKeys map[string]map[string]struct{}) []models.Violation {
	var violations []models.Violation

	present := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		present[col] = true
	}

	var selfKeys map[string]struct{}

	for _, fk := range ds.ForeignKeys {
		if !present[fk.Column] {
			// Missing columns are the quality gate's finding
			continue
		}

		var refKeys map[string]struct{}
		if fk.ReferencedDataset == ds.Name {
			if selfKeys == nil {
				selfKeys = ownKeySet(ds, table)
			}
			refKeys = selfKeys
		} else {
			refKeys = publishedKeys[fk.ReferencedDataset]
		}
		if refKeys == nil {
			if c.Logger != nil {
				c.Logger.Warningf("No published key set for %s, skipping %s.%s check",
					fk.ReferencedDataset, ds.Name, fk.Column)
			}
			continue
		}

		for i, row := range table.Rows {
			value := strings.TrimSpace(row[fk.Column])
			if value == "" {
				continue
			}
			if _, ok := refKeys[value]; !ok {
				violations = append(violations, models.Violation{
					Kind:   models.DanglingReference,
					Column: fk.Column,
					Value:  value,
					Rows:   []int{i},
					Message: fmt.Sprintf("%s.%s=%q has no matching key in %s (row %d)",
						ds.Name, fk.Column, value, fk.ReferencedDataset, i),
				})
			}
		}
	}

	if c.Logger != nil && len(violations) > 0 {
		c.Logger.Warningf("Join integrity found %d dangling reference(s) in dataset %s", len(violations), ds.Name)
	}

	return violations
}

func ownKeySet(ds *models.Dataset, table models.Table) map[string]struct{} {
	keys := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		if key := models.KeyValue(ds.PrimaryKey, row); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}
