package workflow

import (
	"context"
	"strings"

	"github.com/kandev/dbchat/internal/chat/messages"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/db"
	"github.com/kandev/dbchat/internal/db/dialect"
)

// Session field names.
const (
	fieldTable    = "table"
	fieldAction   = "action"
	fieldColumn   = "column"
	fieldOldValue = "old_value"
	fieldUser     = "user"
	fieldPassword = "password"
	fieldDatabase = "database"
	fieldHost     = "host"
)

// tableSchema is the catalog snapshot taken when a user names a table. Its
// columns are the allow-list for every later identifier in the workflow.
type tableSchema struct {
	Name    string
	Columns []db.Column
}

// column resolves name against the snapshot, preferring an exact match over
// a case-insensitive one.
func (t tableSchema) column(name string) (db.Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return db.Column{}, false
}

// columnSelection is the column chosen in an update with its current values.
// Values are what the user sees and picks from; Raw holds the scanned value
// behind each one, bound unchanged when the row is matched.
type columnSelection struct {
	Column db.Column
	Values []string
	Raw    []any
}

// chosenValue is one entry of a columnSelection.
type chosenValue struct {
	Text string
	Raw  any
}

// tableName validates the identifier typed at a table step.
func (e *Engine) tableName(in StepInput) (string, *Outcome) {
	name := trimmed(in)
	if !dialect.IsIdentifier(name) {
		out := reprompt(e.render("invalid_identifier", messages.Data{"Value": name}))
		return "", &out
	}
	return name, nil
}

// lookupTable validates the typed table name and snapshots its columns. A
// table with no columns does not exist and ends the workflow.
func (e *Engine) lookupTable(ctx context.Context, in StepInput) (tableSchema, *Outcome) {
	name, out := e.tableName(in)
	if out != nil {
		return tableSchema{}, out
	}

	cols, err := e.db.Columns(ctx, name)
	if err != nil {
		o := fail(e.render("schema_failure", messages.Data{"Table": name}), err)
		return tableSchema{}, &o
	}
	if len(cols) == 0 {
		o := fail(e.render("table_not_found", messages.Data{"Table": name}), apperrors.NotFound("table", name))
		return tableSchema{}, &o
	}
	return tableSchema{Name: name, Columns: cols}, nil
}

func stringField(in StepInput, name string) string {
	v, _ := in.Session.Field(name)
	s, _ := v.(string)
	return s
}

func schemaField(in StepInput) tableSchema {
	v, _ := in.Session.Field(fieldTable)
	t, _ := v.(tableSchema)
	return t
}
