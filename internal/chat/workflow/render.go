package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kandev/dbchat/internal/db"
)

// formatValue renders a scanned or coerced value the way the user would type it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// renderRows prints one line per row as "col=value, ..." in result column order.
func renderRows(res *db.Result) string {
	lines := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		parts := make([]string, 0, len(res.Columns))
		for _, col := range res.Columns {
			parts = append(parts, col+"="+formatValue(row[col]))
		}
		lines = append(lines, strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

func describeColumns(cols []db.Column) string {
	lines := make([]string, 0, len(cols))
	for _, c := range cols {
		lines = append(lines, fmt.Sprintf("%s (%s)", c.Name, c.DataType))
	}
	return strings.Join(lines, "\n")
}

func columnNames(cols []db.Column) string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
