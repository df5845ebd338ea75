package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/rpggio/easybi/internal/domain/dataset"
)

// Driver names accepted for database imports.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DBParams are the discrete connection fields of a database import.
type DBParams struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Database string `json:"database"`
	Table    string `json:"table"`
}

// Redacted returns a description safe for logs.
func (p DBParams) Redacted() string {
	if p.Driver == DriverSQLite {
		return fmt.Sprintf("sqlite:%s/%s", p.Database, p.Table)
	}
	return fmt.Sprintf("%s://%s@%s/%s/%s", p.Driver, p.User, p.address(), p.Database, p.Table)
}

func (p DBParams) address() string {
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		switch p.Driver {
		case DriverMySQL:
			port = 3306
		case DriverPostgres:
			port = 5432
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Validate checks the driver and table name.
func (p DBParams) Validate() error {
	switch p.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, p.Driver)
	}
	if p.Database == "" {
		return fmt.Errorf("%w: database is required", ErrInvalidInput)
	}
	if !identifierPattern.MatchString(p.Table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, p.Table)
	}
	return nil
}

// DriverName returns the database/sql driver registered for p.Driver.
func (p DBParams) DriverName() string {
	if p.Driver == DriverPostgres {
		return "pgx"
	}
	return p.Driver
}

// DSN assembles the driver-specific connection string.
func (p DBParams) DSN() string {
	switch p.Driver {
	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = p.User
		cfg.Passwd = p.Password
		cfg.Net = "tcp"
		cfg.Addr = p.address()
		cfg.DBName = p.Database
		return cfg.FormatDSN()
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Password),
			Host:   p.address(),
			Path:   "/" + p.Database,
		}
		return u.String()
	default:
		return "file:" + p.Database + "?mode=ro"
	}
}

// SelectQuery returns the table query with a dialect-quoted identifier.
func (p DBParams) SelectQuery(limit int) string {
	parts := strings.Split(p.Table, ".")
	for i, part := range parts {
		if p.Driver == DriverMySQL {
			parts[i] = "`" + part + "`"
		} else {
			parts[i] = `"` + part + `"`
		}
	}
	query := "SELECT * FROM " + strings.Join(parts, ".")
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	return query
}

// OpenFunc opens a database handle. It matches sql.Open.
type OpenFunc func(driverName, dsn string) (*sql.DB, error)

// QueryTable reads every row of the table. A table with more than maxRows rows
// fails with ErrTooLarge.
func QueryTable(ctx context.Context, open OpenFunc, p DBParams, maxRows int) (*dataset.Dataset, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if open == nil {
		open = sql.Open
	}

	db, err := open(p.DriverName(), p.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.Driver, err)
	}
	defer db.Close()

	limit := 0
	if maxRows > 0 {
		limit = maxRows + 1
	}
	rows, err := db.QueryContext(ctx, p.SelectQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", p.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	header := dataset.FromRows(columns, nil).Columns

	records := []dataset.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec := make(dataset.Record, len(header))
		for i, col := range header {
			rec[col] = dataset.NormalizeValue(values[i])
		}
		records = append(records, rec)
		if maxRows > 0 && len(records) > maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooLarge, maxRows)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return &dataset.Dataset{Columns: header, Rows: records}, nil
}
