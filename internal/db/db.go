// Package db owns the shared database connection the chat workflows operate on.
package db

import "time"

// ConnParams are the credentials an operator supplies through /connect.
// For SQLite only Database is used, as the file path.
type ConnParams struct {
	User     string
	Password string
	Database string
	Host     string
	Port     string
}

// Column describes one column of a table as reported by the catalog.
type Column struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
}

// Row maps column names to scanned values.
type Row map[string]any

// Result is the outcome of a query. Columns preserves the order the
// database returned them in; Row maps do not.
type Result struct {
	Columns []string
	Rows    []Row
}

// Options configure how the gateway opens connections.
type Options struct {
	Driver         string
	SSLMode        string
	ConnectTimeout time.Duration
	MaxOpenConns   int
	MaxIdleConns   int
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxOpenConns   = 5
	defaultMaxIdleConns   = 1
)

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaultMaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaultMaxIdleConns
	}
	if o.SSLMode == "" {
		o.SSLMode = "disable"
	}
	return o
}
