package registry

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// DuplicateDatasetError is returned when a dataset name is registered twice
type DuplicateDatasetError struct {
	Name string
}

func (e *DuplicateDatasetError) Error() string {
	return fmt.Sprintf("dataset %q is already registered", e.Name)
}

// UnknownDatasetError is returned when a lookup or foreign key names a
// dataset that was never registered
type UnknownDatasetError struct {
	Name string
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q", e.Name)
}

// InvalidSchemaError is returned when a dataset definition is internally
// inconsistent (key or required column not among its declared columns)
type InvalidSchemaError struct {
	Dataset string
	Reason  string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema for dataset %q: %s", e.Dataset, e.Reason)
}

// Registry is the catalog of named datasets. Declaration order is
// preserved; the resolver uses it as a deterministic tie-break.
type Registry struct {
	datasets map[string]*models.Dataset
	order    []string
	Logger   *logrus.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		datasets: make(map[string]*models.Dataset),
		Logger:   logger,
	}
}

// Register adds a dataset definition to the catalog
func (r *Registry) Register(ds models.Dataset) error {
	if ds.Name == "" {
		return &InvalidSchemaError{Dataset: ds.Name, Reason: "dataset name is empty"}
	}
	if _, exists := r.datasets[ds.Name]; exists {
		return &DuplicateDatasetError{Name: ds.Name}
	}
	if len(ds.Columns) == 0 {
		return &InvalidSchemaError{Dataset: ds.Name, Reason: "no columns declared"}
	}
	if len(ds.PrimaryKey) == 0 {
		return &InvalidSchemaError{Dataset: ds.Name, Reason: "no primary key declared"}
	}
	if !models.ValidTier(string(ds.Tier)) {
		return &InvalidSchemaError{Dataset: ds.Name, Reason: fmt.Sprintf("unknown tier %q", ds.Tier)}
	}
	for _, col := range ds.PrimaryKey {
		if !ds.HasColumn(col) {
			return &InvalidSchemaError{Dataset: ds.Name, Reason: fmt.Sprintf("primary key column %q is not a declared column", col)}
		}
	}
	for _, fk := range ds.ForeignKeys {
		if !ds.HasColumn(fk.Column) {
			return &InvalidSchemaError{Dataset: ds.Name, Reason: fmt.Sprintf("foreign key column %q is not a declared column", fk.Column)}
		}
	}
	for _, col := range ds.Required {
		if !ds.HasColumn(col) {
			return &InvalidSchemaError{Dataset: ds.Name, Reason: fmt.Sprintf("required column %q is not a declared column", col)}
		}
	}

	// Copy the slices too, so later caller mutations cannot reach the
	// catalog
	copied := ds
	copied.Columns = append([]string(nil), ds.Columns...)
	copied.PrimaryKey = append([]string(nil), ds.PrimaryKey...)
	copied.ForeignKeys = append([]models.ForeignKeyRef(nil), ds.ForeignKeys...)
	copied.Required = append([]string(nil), ds.Required...)
	r.datasets[ds.Name] = &copied
	r.order = append(r.order, ds.Name)
	if r.Logger != nil {
		r.Logger.Debugf("Registered dataset %s (%s tier, %d columns, %d foreign keys)",
			ds.Name, ds.Tier, len(ds.Columns), len(ds.ForeignKeys))
	}
	return nil
}

// Lookup returns the registered definition for name
func (r *Registry) Lookup(name string) (*models.Dataset, error) {
	ds, ok := r.datasets[name]
	if !ok {
		return nil, &UnknownDatasetError{Name: name}
	}
	return ds, nil
}

// Names returns all registered dataset names in declaration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered datasets
func (r *Registry) Len() int {
	return len(r.order)
}

// manifest is the on-disk YAML shape of a registry
type manifest struct {
	Datasets []models.Dataset `yaml:"datasets"`
}

// LoadManifest builds a registry from a YAML data-dictionary file
func LoadManifest(path string, logger *logrus.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(m.Datasets) == 0 {
		return nil, fmt.Errorf("manifest %s declares no datasets", path)
	}

	reg := NewRegistry(logger)
	for _, ds := range m.Datasets {
		if ds.Tier == "" {
			ds.Tier = models.TierLookup
		}
		if err := reg.Register(ds); err != nil {
			return nil, err
		}
	}

	if logger != nil {
		logger.Infof("Loaded manifest %s with %d datasets", path, reg.Len())
	}
	return reg, nil
}
