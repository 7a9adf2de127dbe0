package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// MySQLSource fetches datasets from database tables named after them
type MySQLSource struct {
	Host     string
	User     string
	Password string
	Database string
	Port     string
	DB       *sql.DB
	Logger   *logrus.Logger
}

// NewMySQLSource creates a MySQL-backed source. Empty parameters fall back
// to the ITSM_DB_* environment variables.
func NewMySQLSource(host, user, password, database, port string, logger *logrus.Logger) *MySQLSource {
	if host == "" {
		host = getEnvOrDefault("ITSM_DB_HOST", "localhost")
	}
	if user == "" {
		user = getEnvOrDefault("ITSM_DB_USER", "root")
	}
	if password == "" {
		password = getEnvOrDefault("ITSM_DB_PASSWORD", "")
	}
	if database == "" {
		database = getEnvOrDefault("ITSM_DB_DATABASE", "")
	}
	if port == "" {
		port = getEnvOrDefault("ITSM_DB_PORT", "3306")
	}

	return &MySQLSource{
		Host:     host,
		User:     user,
		Password: password,
		Database: database,
		Port:     port,
		Logger:   logger,
	}
}

// Connect establishes the database connection
func (s *MySQLSource) Connect() error {
	if s.Database == "" {
		return fmt.Errorf("database name must be provided either as an argument or as ITSM_DB_DATABASE environment variable")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", s.User, s.Password, s.Host, s.Port, s.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		s.Logger.Errorf("Error connecting to MySQL database: %v", err)
		return err
	}

	if err := db.Ping(); err != nil {
		s.Logger.Errorf("Error pinging MySQL database: %v", err)
		return err
	}

	s.DB = db
	s.Logger.Infof("Connected to MySQL database: %s", s.Database)
	return nil
}

// Fetch reads every row of the table named after the dataset
func (s *MySQLSource) Fetch(ctx context.Context, name string) (models.Table, error) {
	if s.DB == nil {
		if err := s.Connect(); err != nil {
			return models.Table{}, err
		}
	}

	query := fmt.Sprintf("SELECT * FROM %s", name)
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		s.Logger.Errorf("Error querying table %s: %v", name, err)
		return models.Table{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return models.Table{}, err
	}

	table := models.Table{Name: name, Columns: columns}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			s.Logger.Errorf("Error scanning row of %s: %v", name, err)
			return models.Table{}, err
		}

		row := make(models.Record, len(columns))
		for i, col := range columns {
			row[col] = stringify(values[i])
		}
		table.Rows = append(table.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return models.Table{}, err
	}

	if s.Logger != nil {
		s.Logger.Debugf("Read %d rows from table %s", len(table.Rows), name)
	}
	return table, nil
}

// Close closes the database connection
func (s *MySQLSource) Close() error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Close()
	if err != nil {
		s.Logger.Errorf("Error closing database connection: %v", err)
	} else {
		s.Logger.Info("MySQL connection closed")
	}
	return err
}

// stringify normalizes driver values to the string records the validators
// compare. NULL becomes the empty string, matching the CSV source.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
