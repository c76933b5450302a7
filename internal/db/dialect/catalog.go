package dialect

import "fmt"

// Catalog queries use ? placeholders; callers rebind them for the driver.
// Every query returns the columns column_name and data_type.

// ColumnsQuery returns the query enumerating a table's columns and declared
// types in ordinal order. It takes the table name as its only argument.
func ColumnsQuery(driver string) string {
	switch driver {
	case SQLite3:
		return `SELECT name AS column_name, lower(type) AS data_type
FROM pragma_table_info(?)
ORDER BY cid`
	case MySQL:
		return `SELECT column_name AS column_name, data_type AS data_type
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`
	default:
		return `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`
	}
}

// ColumnTypeQuery returns the query looking up one column's declared type.
// It takes the table name and the column name as arguments.
func ColumnTypeQuery(driver string) string {
	switch driver {
	case SQLite3:
		return `SELECT name AS column_name, lower(type) AS data_type
FROM pragma_table_info(?)
WHERE name = ?`
	case MySQL:
		return `SELECT column_name AS column_name, data_type AS data_type
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
	default:
		return `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	}
}

// DistinctValuesQuery returns the query listing the distinct non-null values
// of a column. Table and column must already be validated identifiers.
//
// On SQLite the column is read as +column: the values keep their storage
// class but lose the declared type, so go-sqlite3 returns DATETIME text as
// stored instead of a reformatted time.Time that would no longer match it.
func DistinctValuesQuery(driver, table, column string) string {
	expr := column
	if driver == SQLite3 {
		expr = "+" + column
	}
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1", expr, table, column)
}
