package collections

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlConnector is the shared implementation for SQLite, MySQL, and Postgres.
type sqlConnector struct {
	driver Driver
	db     *sql.DB
}

func newSQLConnector(driver Driver, dsn string) (*sqlConnector, error) {
	driverName := string(driver)
	if driver == DriverPostgres {
		driverName = "postgres" // lib/pq registration name
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	return &sqlConnector{driver: driver, db: db}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *sqlConnector) Collections(ctx context.Context) ([]string, error) {
	var query string
	switch c.driver {
	case DriverSQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case DriverMySQL:
		query = `SHOW TABLES`
	case DriverPostgres:
		query = `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename`
	default:
		return nil, fmt.Errorf("collections: unsupported driver %q", c.driver)
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *sqlConnector) Entries(ctx context.Context, collection string, limit int) ([]Entry, error) {
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}

	query := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, c.quote(collection), limit)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		entry := make(Entry, len(columns))
		for i, col := range columns {
			v := values[i]
			// Drivers hand back []byte for text columns
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			entry[col] = v
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}

func (c *sqlConnector) quote(identifier string) string {
	if c.driver == DriverMySQL {
		return "`" + identifier + "`"
	}
	return `"` + identifier + `"`
}

// validateCollectionName rejects identifiers that cannot be safely quoted.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	if strings.ContainsAny(name, "\"`;") {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}
