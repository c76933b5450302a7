package workflow

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/db"
)

type call struct {
	Stmt string
	Args []any
}

// fakeDB records statements and serves catalog lookups from fixed tables.
type fakeDB struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	execErr    error
	fetchErr   error
	columnsErr error
	rowsAff    int64
	tables     map[string][]db.Column
	distinct   map[string][]any // "table.column"
	result     *db.Result
	execs      []call
	fetches    []call
	connects   []db.ConnParams
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tables:   map[string][]db.Column{},
		distinct: map[string][]any{},
		rowsAff:  1,
	}
}

func (f *fakeDB) Connect(_ context.Context, p db.ConnParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, p)
	if f.connectErr != nil {
		return apperrors.Connection(f.connectErr)
	}
	f.connected = true
	return nil
}

func (f *fakeDB) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeDB) Execute(_ context.Context, stmt string, args ...any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, call{Stmt: stmt, Args: args})
	if f.execErr != nil {
		return 0, apperrors.Query("execute", f.execErr)
	}
	return f.rowsAff, nil
}

func (f *fakeDB) Fetch(_ context.Context, stmt string, args ...any) (*db.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, call{Stmt: stmt, Args: args})
	if f.fetchErr != nil {
		return nil, apperrors.Query("fetch", f.fetchErr)
	}
	if f.result == nil {
		return &db.Result{}, nil
	}
	return f.result, nil
}

func (f *fakeDB) Columns(_ context.Context, table string) ([]db.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.columnsErr != nil {
		return nil, apperrors.Query("column lookup", f.columnsErr)
	}
	return f.tables[table], nil
}

func (f *fakeDB) DistinctValues(_ context.Context, table, column string) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.distinct[table+"."+column], nil
}

func (f *fakeDB) ColumnType(_ context.Context, table, column string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.tables[table] {
		if c.Name == column {
			return c.DataType, nil
		}
	}
	return "", nil
}

func (f *fakeDB) execCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.execs...)
}

func (f *fakeDB) fetchCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.fetches...)
}

var errBoom = errors.New("boom")
