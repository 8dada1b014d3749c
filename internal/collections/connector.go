// Package collections connects the "dynamic content list" section kind to
// external content sources. A connector lists the collections a source
// offers and fetches entries for editor previews; it never writes.
package collections

import (
	"context"
	"fmt"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongodb"
)

// Source describes one external content source.
type Source struct {
	Name     string `json:"name"`
	Driver   Driver `json:"driver"`
	Host     string `json:"host"` // file path for sqlite, URI for mongodb
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// Entry is one row/document from a collection.
type Entry map[string]any

// Connector abstracts read access to an external content source.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// Collections lists the collections (tables) the source offers.
	Collections(ctx context.Context) ([]string, error)

	// Entries fetches up to limit entries from a collection.
	Entries(ctx context.Context, collection string, limit int) ([]Entry, error)

	// Close closes the connection.
	Close() error
}

// NewConnector creates a Connector for the given source.
func NewConnector(src Source) (Connector, error) {
	switch src.Driver {
	case DriverSQLite:
		return newSQLConnector(DriverSQLite, src.Host+"?_journal_mode=WAL&_busy_timeout=5000")
	case DriverMySQL:
		return newSQLConnector(DriverMySQL, buildMySQLDSN(src))
	case DriverPostgres:
		return newSQLConnector(DriverPostgres, buildPostgresDSN(src))
	case DriverMongo:
		return newMongoConnector(src)
	default:
		return nil, fmt.Errorf("unsupported driver %q", src.Driver)
	}
}

// buildMySQLDSN constructs a MySQL DSN.
func buildMySQLDSN(src Source) string {
	port := src.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		src.Username, src.Password, src.Host, port, src.Database,
	)
	if src.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

// buildPostgresDSN constructs a Postgres connection string.
func buildPostgresDSN(src Source) string {
	port := src.Port
	if port == 0 {
		port = 5432
	}
	sslMode := src.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		src.Host, port, src.Username, src.Password, src.Database, sslMode,
	)
}
