package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// CSVSource reads datasets from <dir>/<name>.csv. Files written with a
// UTF-8 byte order mark are accepted; the dashboard exported its dummy
// data with utf-8-sig.
type CSVSource struct {
	Dir    string
	Logger *logrus.Logger
}

// NewCSVSource creates a source over a data directory
func NewCSVSource(dir string, logger *logrus.Logger) *CSVSource {
	return &CSVSource{Dir: dir, Logger: logger}
}

// Fetch reads the CSV file for a dataset name
func (s *CSVSource) Fetch(_ context.Context, name string) (models.Table, error) {
	path := filepath.Join(s.Dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return models.Table{}, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := models.Table{Name: name, Columns: header}

	records, err := reader.ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("reading rows of %s: %w", path, err)
	}

	for _, fields := range records {
		row := make(models.Record, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if s.Logger != nil {
		s.Logger.Debugf("Read %d rows from %s", len(table.Rows), path)
	}
	return table, nil
}

// Close is a no-op for file-backed sources
func (s *CSVSource) Close() error { return nil }
