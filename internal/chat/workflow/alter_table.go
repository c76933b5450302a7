package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kandev/dbchat/internal/chat/messages"
	"github.com/kandev/dbchat/internal/db/dialect"
)

const (
	stepAlterTable  StepID = "table"
	stepAlterAction StepID = "action"
	stepAlterAdd    StepID = "add_column"
	stepAlterRemove StepID = "remove_column"
)

const (
	actionAdd    = "add"
	actionRemove = "remove"
)

func (e *Engine) alterTableWorkflow() *Definition {
	return &Definition{
		Kind:               KindAlterTable,
		First:              stepAlterTable,
		Prompt:             "alter.table",
		RequiresConnection: true,
		Steps: map[StepID]StepHandler{
			stepAlterTable:  e.alterTableName,
			stepAlterAction: e.alterAction,
			stepAlterAdd:    e.alterAddColumn,
			stepAlterRemove: e.alterRemoveColumn,
		},
	}
}

func (e *Engine) alterTableName(_ context.Context, in StepInput) Outcome {
	name, out := e.tableName(in)
	if out != nil {
		return *out
	}
	return advance(stepAlterAction, fieldTable, name, e.render("alter.action", messages.Data{"Table": name}))
}

// alterAction accepts add or remove in any case.
func (e *Engine) alterAction(_ context.Context, in StepInput) Outcome {
	switch strings.ToLower(trimmed(in)) {
	case actionAdd:
		return advance(stepAlterAdd, fieldAction, actionAdd, e.render("alter.add", nil))
	case actionRemove:
		return advance(stepAlterRemove, fieldAction, actionRemove, e.render("alter.remove", nil))
	default:
		return reprompt(e.render("alter.invalid_action", nil))
	}
}

// alterAddColumn expects exactly "name type".
func (e *Engine) alterAddColumn(ctx context.Context, in StepInput) Outcome {
	parts := strings.Fields(in.Text)
	if len(parts) != 2 || !dialect.IsIdentifier(parts[0]) || !dialect.IsTypeName(parts[1]) {
		return reprompt(e.render("alter.invalid_add", nil))
	}
	table := stringField(in, fieldTable)
	column, typ := parts[0], parts[1]
	data := messages.Data{"Table": table, "Column": column}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)
	if _, err := e.db.Execute(ctx, stmt); err != nil {
		return fail(e.render("alter.add_failure", data), err)
	}
	return succeed(e.render("alter.added", data))
}

// alterRemoveColumn does not check that the column exists; the database does.
func (e *Engine) alterRemoveColumn(ctx context.Context, in StepInput) Outcome {
	column := trimmed(in)
	if !dialect.IsIdentifier(column) {
		return reprompt(e.render("invalid_identifier", messages.Data{"Value": column}))
	}
	table := stringField(in, fieldTable)
	data := messages.Data{"Table": table, "Column": column}

	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
	if _, err := e.db.Execute(ctx, stmt); err != nil {
		return fail(e.render("alter.remove_failure", data), err)
	}
	return succeed(e.render("alter.removed", data))
}
