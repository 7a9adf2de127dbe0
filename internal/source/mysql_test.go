package source

import (
	"context"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewMySQLSource(t *testing.T) {
	// Environment variables are the fallback for empty parameters
	os.Setenv("ITSM_DB_HOST", "test-host")
	os.Setenv("ITSM_DB_USER", "test-user")
	os.Setenv("ITSM_DB_PASSWORD", "test-password")
	os.Setenv("ITSM_DB_DATABASE", "test-database")
	os.Setenv("ITSM_DB_PORT", "3307")
	defer func() {
		for _, v := range []string{"ITSM_DB_HOST", "ITSM_DB_USER", "ITSM_DB_PASSWORD", "ITSM_DB_DATABASE", "ITSM_DB_PORT"} {
			os.Unsetenv(v)
		}
	}()

	src := NewMySQLSource("", "", "", "", "", testLogger())
	if src.Host != "test-host" {
		t.Errorf("Expected host to be 'test-host', got '%s'", src.Host)
	}
	if src.Database != "test-database" {
		t.Errorf("Expected database to be 'test-database', got '%s'", src.Database)
	}
	if src.Port != "3307" {
		t.Errorf("Expected port to be '3307', got '%s'", src.Port)
	}

	src = NewMySQLSource("explicit-host", "explicit-user", "pw", "explicit-db", "3308", testLogger())
	if src.Host != "explicit-host" || src.Database != "explicit-db" || src.Port != "3308" {
		t.Errorf("Expected explicit parameters to win, got %s/%s/%s", src.Host, src.Database, src.Port)
	}
}

func TestMySQLFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"service_id", "name", "criticality"}).
		AddRow("SVC-001", []byte("Email"), "High").
		AddRow("SVC-002", "VPN", nil)
	mock.ExpectQuery("SELECT \\* FROM services_catalog").WillReturnRows(rows)

	src := &MySQLSource{DB: db, Database: "itsm", Logger: testLogger()}
	table, err := src.Fetch(context.Background(), "services_catalog")
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got %v", err)
	}

	if len(table.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0]["name"] != "Email" {
		t.Errorf("Expected []byte values to be read as strings, got %q", table.Rows[0]["name"])
	}
	// NULL normalizes to the empty string, matching the CSV source
	if table.Rows[1]["criticality"] != "" {
		t.Errorf("Expected NULL to read as empty, got %q", table.Rows[1]["criticality"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet query expectations: %v", err)
	}
}

func TestMySQLFetchQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM missing_table").WillReturnError(os.ErrNotExist)

	src := &MySQLSource{DB: db, Database: "itsm", Logger: testLogger()}
	if _, err := src.Fetch(context.Background(), "missing_table"); err == nil {
		t.Error("Expected the query error to propagate")
	}
}

func TestConnectRequiresDatabase(t *testing.T) {
	src := &MySQLSource{Logger: testLogger()}
	if err := src.Connect(); err == nil {
		t.Error("Expected Connect to fail without a database name")
	}
}
