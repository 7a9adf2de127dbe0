package seeder

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/internal/registry"
	"github.com/itsmops/refdata-validator/internal/resolver"
	"github.com/itsmops/refdata-validator/pkg/models"
)

// Seeder writes a coherent demo-data CSV set for a registry. Datasets are
// generated in load-plan order so foreign-key values can be drawn from the
// keys of already-generated datasets, and the output validates clean.
type Seeder struct {
	Faker    faker.Faker
	Registry *registry.Registry
	Rows     int
	Logger   *logrus.Logger

	rng       *rand.Rand
	generated map[string][]models.Record
}

// NewSeeder creates a seeder; rows is the default row count for datasets
// without a declared expected range
func NewSeeder(reg *registry.Registry, rows int, logger *logrus.Logger) *Seeder {
	return &Seeder{
		Faker:     faker.New(),
		Registry:  reg,
		Rows:      rows,
		Logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		generated: make(map[string][]models.Record),
	}
}

// Seed generates every registered dataset into dir as <name>.csv
func (s *Seeder) Seed(dir string) error {
	plan, err := resolver.NewResolver(s.Logger).Resolve(s.Registry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, name := range plan.Order {
		ds, err := s.Registry.Lookup(name)
		if err != nil {
			return err
		}
		rows := s.generateTable(ds)
		s.generated[name] = rows
		if err := writeCSV(filepath.Join(dir, name+".csv"), ds.Columns, rows); err != nil {
			return err
		}
		s.Logger.Infof("Seeded %s with %d rows", name, len(rows))
	}

	return nil
}

func (s *Seeder) rowCount(ds *models.Dataset) int {
	if ds.MinRows > 0 && ds.MaxRows >= ds.MinRows {
		return ds.MinRows + s.rng.Intn(ds.MaxRows-ds.MinRows+1)
	}
	if ds.MinRows > 0 {
		return ds.MinRows
	}
	return s.Rows
}

func (s *Seeder) generateTable(ds *models.Dataset) []models.Record {
	fkByColumn := make(map[string]models.ForeignKeyRef, len(ds.ForeignKeys))
	for _, fk := range ds.ForeignKeys {
		fkByColumn[fk.Column] = fk
	}

	count := s.rowCount(ds)
	seenKeys := make(map[string]bool, count)
	rows := make([]models.Record, 0, count)

	for i := 0; i < count; i++ {
		var row models.Record
		// Composite keys built from foreign keys can collide; retry a
		// few times before giving up on this row
		for attempt := 0; attempt < 10; attempt++ {
			row = s.generateRow(ds, fkByColumn, i, rows)
			key := models.KeyValue(ds.PrimaryKey, row)
			if !seenKeys[key] {
				seenKeys[key] = true
				rows = append(rows, row)
				break
			}
			row = nil
		}
		if row == nil {
			s.Logger.Debugf("Dropped colliding row %d for %s", i, ds.Name)
		}
	}

	return rows
}

func (s *Seeder) generateRow(ds *models.Dataset, fkByColumn map[string]models.ForeignKeyRef, index int, soFar []models.Record) models.Record {
	row := make(models.Record, len(ds.Columns))

	for _, col := range ds.Columns {
		if fk, isFK := fkByColumn[col]; isFK {
			row[col] = s.foreignKeyValue(ds, fk, soFar)
			continue
		}
		if isPrimaryKey(ds, col) && strings.HasSuffix(strings.ToLower(col), "_id") {
			row[col] = keyValue(col, index)
			continue
		}
		row[col] = s.columnValue(col)
	}

	return row
}

// foreignKeyValue draws a key from the referenced dataset. Self-references
// point at an earlier row of the same table, or stay empty for roots.
func (s *Seeder) foreignKeyValue(ds *models.Dataset, fk models.ForeignKeyRef, soFar []models.Record) string {
	var pool []models.Record
	var pk []string

	if fk.ReferencedDataset == ds.Name {
		if len(soFar) == 0 || s.rng.Intn(4) == 0 {
			return ""
		}
		pool, pk = soFar, ds.PrimaryKey
	} else {
		ref, err := s.Registry.Lookup(fk.ReferencedDataset)
		if err != nil {
			return ""
		}
		pool, pk = s.generated[fk.ReferencedDataset], ref.PrimaryKey
	}

	if len(pool) == 0 {
		return ""
	}
	return models.KeyValue(pk, pool[s.rng.Intn(len(pool))])
}

// keyValue builds ids like SVC-0001 from the column name
func keyValue(col string, index int) string {
	prefix := strings.SplitN(col, "_", 2)[0]
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%04d", strings.ToUpper(prefix), index+1)
}

// columnValue generates a plausible value from the column name
func (s *Seeder) columnValue(col string) string {
	name := strings.ToLower(col)

	switch {
	case strings.Contains(name, "email"):
		return s.Faker.Internet().Email()
	case name == "name":
		return s.Faker.Person().Name()
	case strings.Contains(name, "owner") || strings.Contains(name, "assigned"):
		return s.Faker.Person().Name()
	case strings.Contains(name, "short_description") || strings.Contains(name, "title"):
		return s.Faker.Lorem().Sentence(5)
	case strings.Contains(name, "description") || strings.Contains(name, "body") || strings.Contains(name, "synonyms"):
		return s.Faker.Lorem().Paragraph(2)
	case strings.Contains(name, "priority"):
		return pick(s.rng, "P1", "P2", "P3", "P4")
	case strings.Contains(name, "impact") || strings.Contains(name, "urgency") || strings.Contains(name, "criticality"):
		return pick(s.rng, "High", "Medium", "Low")
	case strings.Contains(name, "status"):
		return pick(s.rng, "Open", "In Progress", "Pending", "Resolved")
	case strings.Contains(name, "proficiency"):
		return pick(s.rng, "Novice", "Intermediate", "Expert")
	case strings.Contains(name, "environment"):
		return pick(s.rng, "prod", "staging", "dev")
	case strings.Contains(name, "role"):
		return pick(s.rng, "L1 Agent", "L2 Agent", "Team Lead")
	case strings.Contains(name, "location") || strings.Contains(name, "city"):
		return s.Faker.Address().City()
	case strings.Contains(name, "day_of_week"):
		return pick(s.rng, "Mon", "Tue", "Wed", "Thu", "Fri")
	case strings.Contains(name, "shift_start"):
		return fmt.Sprintf("%02d:00", 6+s.rng.Intn(6))
	case strings.Contains(name, "shift_end"):
		return fmt.Sprintf("%02d:00", 14+s.rng.Intn(8))
	case strings.Contains(name, "tier"):
		return pick(s.rng, "lookup", "fact", "live", "derived")
	case strings.Contains(name, "path") || strings.Contains(name, "sections"):
		return s.Faker.Lorem().Word() + "/" + s.Faker.Lorem().Word()
	case strings.Contains(name, "count") || strings.Contains(name, "capacity"):
		return fmt.Sprintf("%d", s.rng.Intn(20)+1)
	case strings.Contains(name, "hours"):
		return fmt.Sprintf("%.1f", s.rng.Float64()*48)
	case strings.HasSuffix(name, "_on") || strings.Contains(name, "date"):
		days := s.rng.Intn(365)
		return time.Now().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")
	case strings.Contains(name, "term") || strings.Contains(name, "domain") || strings.Contains(name, "category") || strings.Contains(name, "type"):
		return s.Faker.Lorem().Word()
	default:
		return s.Faker.Lorem().Word()
	}
}

func isPrimaryKey(ds *models.Dataset, col string) bool {
	for _, pk := range ds.PrimaryKey {
		if pk == col {
			return true
		}
	}
	return false
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

func writeCSV(path string, columns []string, rows []models.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			fields[i] = row[col]
		}
		if err := w.Write(fields); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
