package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/common/tracing"
	"github.com/kandev/dbchat/internal/db/dialect"
)

// Gateway holds the single database connection shared by every chat session.
// A failed Connect leaves the previous connection in place.
type Gateway struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	driver string
	opts   Options
	logger *logger.Logger
}

// NewGateway creates a disconnected gateway for the configured driver.
func NewGateway(opts Options, log *logger.Logger) (*Gateway, error) {
	driver, err := dialect.Normalize(opts.Driver)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}
	return &Gateway{
		driver: driver,
		opts:   opts.withDefaults(),
		logger: log.Component("db-gateway").WithFields(zap.String("driver", driver)),
	}, nil
}

// Driver returns the database/sql driver name in use.
func (g *Gateway) Driver() string {
	return g.driver
}

// Connect opens and pings a new connection, replacing the current one on
// success.
func (g *Gateway) Connect(ctx context.Context, p ConnParams) error {
	ctx, span := tracing.TraceQuery(ctx, g.driver, "connect", "")
	defer span.End()

	conn, err := g.open(ctx, p)
	if err != nil {
		tracing.RecordResult(span, "error", err)
		return apperrors.Connection(err)
	}

	g.mu.Lock()
	old := g.db
	g.db = conn
	g.mu.Unlock()

	if old != nil {
		if cerr := old.Close(); cerr != nil {
			g.logger.Warn("failed to close previous connection", zap.Error(cerr))
		}
	}

	g.logger.Info("database connected",
		zap.String("database", p.Database),
		zap.String("host", p.Host),
		zap.String("port", p.Port))
	tracing.RecordResult(span, "ok", nil)
	return nil
}

func (g *Gateway) open(ctx context.Context, p ConnParams) (*sqlx.DB, error) {
	var dsn string
	switch g.driver {
	case dialect.PGX:
		dsn = postgresDSN(p, g.opts)
	case dialect.MySQL:
		dsn = mysqlDSN(p, g.opts)
	case dialect.SQLite3:
		var err error
		if dsn, err = sqliteDSN(p); err != nil {
			return nil, err
		}
	}

	conn, err := sqlx.Open(g.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", g.driver, err)
	}

	if g.driver == dialect.SQLite3 {
		// Single connection: an in-memory database lives only as long as its connection.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(g.opts.MaxOpenConns)
		conn.SetMaxIdleConns(g.opts.MaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, g.opts.ConnectTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", g.driver, err)
	}
	return conn, nil
}

// Connected reports whether the gateway holds an open connection.
func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

func (g *Gateway) handle() (*sqlx.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, apperrors.Connection(ErrNotConnected)
	}
	return g.db, nil
}

// Execute runs a statement written with ? placeholders and returns the number
// of affected rows.
func (g *Gateway) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	conn, err := g.handle()
	if err != nil {
		return 0, err
	}
	ctx, span := tracing.TraceQuery(ctx, g.driver, "execute", stmt)
	defer span.End()

	res, err := conn.ExecContext(ctx, conn.Rebind(stmt), args...)
	if err != nil {
		tracing.RecordResult(span, "error", err)
		return 0, apperrors.Query("execute", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// DDL on some drivers has no row count.
		n = 0
	}
	tracing.RecordResult(span, "ok", nil)
	return n, nil
}

// Fetch runs a query written with ? placeholders and returns every row.
func (g *Gateway) Fetch(ctx context.Context, stmt string, args ...any) (*Result, error) {
	conn, err := g.handle()
	if err != nil {
		return nil, err
	}
	ctx, span := tracing.TraceQuery(ctx, g.driver, "fetch", stmt)
	defer span.End()

	rows, err := conn.QueryxContext(ctx, conn.Rebind(stmt), args...)
	if err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("fetch", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("fetch", err)
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			tracing.RecordResult(span, "error", err)
			return nil, apperrors.Query("fetch", err)
		}
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, Row(row))
	}
	if err := rows.Err(); err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("fetch", err)
	}
	tracing.RecordResult(span, "ok", nil)
	return result, nil
}

// Columns lists a table's columns in ordinal order. A table that does not
// exist yields an empty slice.
func (g *Gateway) Columns(ctx context.Context, table string) ([]Column, error) {
	conn, err := g.handle()
	if err != nil {
		return nil, err
	}
	query := dialect.ColumnsQuery(g.driver)
	ctx, span := tracing.TraceQuery(ctx, g.driver, "columns", query)
	defer span.End()

	var cols []Column
	if err := conn.SelectContext(ctx, &cols, conn.Rebind(query), table); err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("column lookup", err)
	}
	tracing.RecordResult(span, "ok", nil)
	return cols, nil
}

// ColumnType returns the declared type of table.column, or "" when the column
// does not exist.
func (g *Gateway) ColumnType(ctx context.Context, table, column string) (string, error) {
	conn, err := g.handle()
	if err != nil {
		return "", err
	}
	query := dialect.ColumnTypeQuery(g.driver)
	ctx, span := tracing.TraceQuery(ctx, g.driver, "column_type", query)
	defer span.End()

	var cols []Column
	if err := conn.SelectContext(ctx, &cols, conn.Rebind(query), table, column); err != nil {
		tracing.RecordResult(span, "error", err)
		return "", apperrors.Query("column type lookup", err)
	}
	tracing.RecordResult(span, "ok", nil)
	if len(cols) == 0 {
		return "", nil
	}
	return cols[0].DataType, nil
}

// DistinctValues lists the distinct non-null values of table.column.
func (g *Gateway) DistinctValues(ctx context.Context, table, column string) ([]any, error) {
	if !dialect.IsIdentifier(table) {
		return nil, apperrors.Validation("table", "invalid table name")
	}
	if !dialect.IsIdentifier(column) {
		return nil, apperrors.Validation("column", "invalid column name")
	}
	conn, err := g.handle()
	if err != nil {
		return nil, err
	}
	query := dialect.DistinctValuesQuery(g.driver, table, column)
	ctx, span := tracing.TraceQuery(ctx, g.driver, "distinct", query)
	defer span.End()

	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("distinct value lookup", err)
	}
	defer func() { _ = rows.Close() }()

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			tracing.RecordResult(span, "error", err)
			return nil, apperrors.Query("distinct value lookup", err)
		}
		values = append(values, normalizeValue(v))
	}
	if err := rows.Err(); err != nil {
		tracing.RecordResult(span, "error", err)
		return nil, apperrors.Query("distinct value lookup", err)
	}
	tracing.RecordResult(span, "ok", nil)
	return values, nil
}

// Close releases the current connection. The gateway may be connected again.
func (g *Gateway) Close() error {
	g.mu.Lock()
	conn := g.db
	g.db = nil
	g.mu.Unlock()

	if conn == nil {
		return nil
	}
	g.logger.Info("database connection closed")
	return conn.Close()
}

// normalizeValue converts driver byte slices to strings so rows render and
// compare as text.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
