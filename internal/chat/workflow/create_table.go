package workflow

import (
	"context"
	"fmt"

	"github.com/kandev/dbchat/internal/chat/messages"
)

const (
	stepCreateTable   StepID = "table"
	stepCreateColumns StepID = "columns"
)

func (e *Engine) createTableWorkflow() *Definition {
	return &Definition{
		Kind:               KindCreateTable,
		First:              stepCreateTable,
		Prompt:             "create.table",
		RequiresConnection: true,
		Steps: map[StepID]StepHandler{
			stepCreateTable:   e.createTableName,
			stepCreateColumns: e.createTableColumns,
		},
	}
}

func (e *Engine) createTableName(_ context.Context, in StepInput) Outcome {
	name, out := e.tableName(in)
	if out != nil {
		return *out
	}
	return advance(stepCreateColumns, fieldTable, name, e.render("create.columns", messages.Data{"Table": name}))
}

// createTableColumns passes the column clause through as typed. A malformed
// clause is reported by the database.
func (e *Engine) createTableColumns(ctx context.Context, in StepInput) Outcome {
	table := stringField(in, fieldTable)
	clause := trimmed(in)
	data := messages.Data{"Table": table, "Columns": clause}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, clause)
	if _, err := e.db.Execute(ctx, stmt); err != nil {
		return fail(e.render("create.failure", data), err)
	}
	return succeed(e.render("create.success", data))
}
