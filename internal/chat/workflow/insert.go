package workflow

import (
	"context"
	"fmt"

	"github.com/kandev/dbchat/internal/chat/messages"
	"github.com/kandev/dbchat/internal/db"
)

const (
	stepInsertTable  StepID = "table"
	stepInsertColumn StepID = "column"
	stepInsertValue  StepID = "value"
)

func (e *Engine) insertWorkflow() *Definition {
	return &Definition{
		Kind:               KindInsert,
		First:              stepInsertTable,
		Prompt:             "insert.table",
		RequiresConnection: true,
		Steps: map[StepID]StepHandler{
			stepInsertTable:  e.insertTable,
			stepInsertColumn: e.insertColumn,
			stepInsertValue:  e.insertValue,
		},
	}
}

func (e *Engine) insertTable(ctx context.Context, in StepInput) Outcome {
	schema, out := e.lookupTable(ctx, in)
	if out != nil {
		return *out
	}
	return advance(stepInsertColumn, fieldTable, schema, e.render("insert.column", messages.Data{
		"Table":   schema.Name,
		"Columns": describeColumns(schema.Columns),
	}))
}

func (e *Engine) insertColumn(_ context.Context, in StepInput) Outcome {
	name := trimmed(in)
	col, ok := schemaField(in).column(name)
	if !ok {
		return reprompt(e.render("insert.invalid_column", messages.Data{"Column": name}))
	}
	return advance(stepInsertValue, fieldColumn, col, e.render("insert.value", messages.Data{
		"Column": col.Name,
		"Type":   col.DataType,
	}))
}

func (e *Engine) insertValue(ctx context.Context, in StepInput) Outcome {
	schema := schemaField(in)
	v, _ := in.Session.Field(fieldColumn)
	col, _ := v.(db.Column)

	value, err := Coerce(col.DataType, in.Text)
	if err != nil {
		return reprompt(e.render(rejectionKey(col.DataType), messages.Data{"Value": trimmed(in)}))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", schema.Name, col.Name)
	if _, err := e.db.Execute(ctx, stmt, value); err != nil {
		return fail(e.render("insert.failure", nil), err)
	}
	return succeed(e.render("insert.success", messages.Data{
		"Value":  formatValue(value),
		"Column": col.Name,
		"Table":  schema.Name,
	}))
}
