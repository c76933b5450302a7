package db

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrNotConnected is wrapped by gateway calls made before a successful Connect.
var ErrNotConnected = errors.New("database not connected")

// DriverErrorCode extracts the driver-native error code from err: the SQLSTATE
// for PostgreSQL, the error number for MySQL and the extended result code for
// SQLite. It returns "" when err did not originate in a driver.
func DriverErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.ExtendedCode))
	}

	return ""
}
