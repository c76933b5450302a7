package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kandev/dbchat/internal/chat/messages"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
)

const (
	stepUpdateTable    StepID = "table"
	stepUpdateColumn   StepID = "column"
	stepUpdateOldValue StepID = "old_value"
	stepUpdateNewValue StepID = "new_value"
)

func (e *Engine) updateWorkflow() *Definition {
	return &Definition{
		Kind:               KindUpdate,
		First:              stepUpdateTable,
		Prompt:             "update.table",
		RequiresConnection: true,
		Steps: map[StepID]StepHandler{
			stepUpdateTable:    e.updateTable,
			stepUpdateColumn:   e.updateColumn,
			stepUpdateOldValue: e.updateOldValue,
			stepUpdateNewValue: e.updateNewValue,
		},
	}
}

func (e *Engine) updateTable(ctx context.Context, in StepInput) Outcome {
	schema, out := e.lookupTable(ctx, in)
	if out != nil {
		return *out
	}
	return advance(stepUpdateColumn, fieldTable, schema, e.render("update.column", messages.Data{
		"Table":   schema.Name,
		"Columns": columnNames(schema.Columns),
	}))
}

// updateColumn validates the column and lists its current values.
func (e *Engine) updateColumn(ctx context.Context, in StepInput) Outcome {
	schema := schemaField(in)
	name := trimmed(in)
	col, ok := schema.column(name)
	if !ok {
		return reprompt(e.render("update.invalid_column", messages.Data{"Column": name}))
	}

	values, err := e.db.DistinctValues(ctx, schema.Name, col.Name)
	if err != nil {
		return fail(e.render("update.values_failure", messages.Data{"Column": col.Name}), err)
	}
	if len(values) == 0 {
		return fail(
			e.render("update.no_values", messages.Data{"Column": col.Name}),
			apperrors.NotFound("values of column", col.Name),
		)
	}

	sel := columnSelection{Column: col, Values: make([]string, 0, len(values)), Raw: values}
	for _, v := range values {
		sel.Values = append(sel.Values, formatValue(v))
	}
	return advance(stepUpdateOldValue, fieldColumn, sel, e.render("update.values", messages.Data{
		"Column": col.Name,
		"Values": strings.Join(sel.Values, "\n"),
	}))
}

func (e *Engine) updateOldValue(_ context.Context, in StepInput) Outcome {
	sel := selectionField(in)
	value := trimmed(in)
	i := slices.Index(sel.Values, value)
	if i < 0 {
		return reprompt(e.render("update.invalid_value", messages.Data{"Value": value}))
	}
	chosen := chosenValue{Text: value, Raw: sel.Raw[i]}
	return advance(stepUpdateNewValue, fieldOldValue, chosen, e.render("update.new_value", messages.Data{"Value": value}))
}

// updateNewValue re-reads the column type so a column changed since the
// snapshot is caught, then coerces the new value by it. The old value is
// matched with the value read from the table, not its rendering.
func (e *Engine) updateNewValue(ctx context.Context, in StepInput) Outcome {
	schema := schemaField(in)
	sel := selectionField(in)
	old := oldValueField(in)
	column := sel.Column.Name

	typ, err := e.db.ColumnType(ctx, schema.Name, column)
	if err != nil {
		return fail(e.render("update.failure", nil), err)
	}
	if typ == "" {
		return fail(
			e.render("update.type_not_found", messages.Data{"Column": column}),
			apperrors.NotFound("column", column),
		)
	}

	newValue, err := Coerce(typ, in.Text)
	if err != nil {
		return reprompt(e.render(rejectionKey(typ), messages.Data{"Value": trimmed(in)}))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", schema.Name, column, column)
	n, err := e.db.Execute(ctx, stmt, newValue, old.Raw)
	if err != nil {
		return fail(e.render("update.failure", nil), err)
	}
	return succeed(e.render("update.success", messages.Data{
		"Old":    old.Text,
		"New":    formatValue(newValue),
		"Column": column,
		"Rows":   n,
	}))
}

func oldValueField(in StepInput) chosenValue {
	v, _ := in.Session.Field(fieldOldValue)
	c, _ := v.(chosenValue)
	return c
}

func selectionField(in StepInput) columnSelection {
	v, _ := in.Session.Field(fieldColumn)
	sel, _ := v.(columnSelection)
	return sel
}
