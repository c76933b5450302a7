package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kandev/dbchat/internal/chat/messages"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
)

const (
	stepSelectTable   StepID = "table"
	stepSelectColumns StepID = "columns"
)

const selectAll = "all"

func (e *Engine) selectWorkflow() *Definition {
	return &Definition{
		Kind:               KindSelect,
		First:              stepSelectTable,
		Prompt:             "select.table",
		RequiresConnection: true,
		Steps: map[StepID]StepHandler{
			stepSelectTable:   e.selectTable,
			stepSelectColumns: e.selectColumns,
		},
	}
}

func (e *Engine) selectTable(ctx context.Context, in StepInput) Outcome {
	schema, out := e.lookupTable(ctx, in)
	if out != nil {
		return *out
	}
	return advance(stepSelectColumns, fieldTable, schema, e.render("select.columns", messages.Data{
		"Table":   schema.Name,
		"Columns": columnNames(schema.Columns),
	}))
}

// selectColumns ends the workflow on the first unknown column without
// querying.
func (e *Engine) selectColumns(ctx context.Context, in StepInput) Outcome {
	schema := schemaField(in)
	input := trimmed(in)

	projection := "*"
	if !strings.EqualFold(input, selectAll) {
		var names []string
		for _, tok := range strings.Split(input, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			col, ok := schema.column(tok)
			if !ok {
				return fail(
					e.render("select.column_not_found", messages.Data{"Column": tok, "Table": schema.Name}),
					apperrors.NotFound("column", tok),
				)
			}
			names = append(names, col.Name)
		}
		if len(names) == 0 {
			return reprompt(e.render("select.columns", messages.Data{
				"Table":   schema.Name,
				"Columns": columnNames(schema.Columns),
			}))
		}
		projection = strings.Join(names, ", ")
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", projection, schema.Name)
	res, err := e.db.Fetch(ctx, stmt)
	if err != nil {
		return fail(e.render("select.failure", nil), err)
	}
	if len(res.Rows) == 0 {
		return succeed(e.render("select.empty", nil))
	}
	return succeed(e.render("select.results", messages.Data{"Rows": renderRows(res)}))
}
