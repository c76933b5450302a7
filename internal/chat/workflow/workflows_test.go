package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/dbchat/internal/chat/messages"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/db"
)

func TestConnectWorkflow_Success(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, h.msg("connect.user", nil), h.sendText(t, "u1", "/connect"))
	assert.Equal(t, h.msg("connect.password", nil), h.sendText(t, "u1", " admin "))
	assert.Equal(t, h.msg("connect.database", nil), h.sendText(t, "u1", "pa ss"))
	assert.Equal(t, h.msg("connect.host", nil), h.sendText(t, "u1", "shop"))
	assert.Equal(t, h.msg("connect.port", nil), h.sendText(t, "u1", "db.local"))
	assert.Equal(t, h.msg("connect.success", messages.Data{"Database": "shop"}), h.sendText(t, "u1", "5432"))

	require.Len(t, h.db.connects, 1)
	assert.Equal(t, db.ConnParams{
		User:     "admin",
		Password: "pa ss",
		Database: "shop",
		Host:     "db.local",
		Port:     "5432",
	}, h.db.connects[0])

	assert.True(t, h.tracker.IsConnected("u1"))
	conn, _ := h.tracker.Get("u1")
	assert.Equal(t, "shop", conn.Database)
	assert.Equal(t, 0, h.store.Len())
}

func TestConnectWorkflow_FailureForgetsUser(t *testing.T) {
	h := newHarness(t)
	h.connect("u1")
	h.db.connectErr = errors.New("password authentication failed")

	h.send("u1", "/connect")
	for _, v := range []string{"admin", "wrong", "shop", "localhost"} {
		h.send("u1", v)
	}
	reply := h.sendText(t, "u1", "5432")

	assert.Equal(t, h.msg("connect.failure", nil), reply)
	assert.NotContains(t, reply, "password authentication")
	assert.False(t, h.tracker.IsConnected("u1"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)

	require.Len(t, h.finished, 1)
	assert.True(t, apperrors.IsConnection(h.finished[0].Err))
}

func TestCreateTableWorkflow(t *testing.T) {
	h := newHarness(t)
	h.connect("u1")

	h.send("u1", "/create_table")
	assert.Equal(t, h.msg("invalid_identifier", messages.Data{"Value": "bad name;"}), h.sendText(t, "u1", "bad name;"))
	assert.Equal(t, h.msg("create.columns", messages.Data{"Table": "users"}), h.sendText(t, "u1", "users"))

	reply := h.sendText(t, "u1", "id integer, name text")
	assert.Equal(t, h.msg("create.success", messages.Data{"Table": "users", "Columns": "id integer, name text"}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS users (id integer, name text)", calls[0].Stmt)
	assert.Empty(t, calls[0].Args)
}

func TestAlterTableWorkflow_ActionIsCaseInsensitive(t *testing.T) {
	for _, input := range []string{"Add", "add ", "ADD", "  aDd"} {
		t.Run(input, func(t *testing.T) {
			h := newHarness(t)
			h.connect("u1")
			h.send("u1", "/alter_table")
			h.send("u1", "users")

			assert.Equal(t, h.msg("alter.add", nil), h.sendText(t, "u1", input))
			sess, _ := h.store.Get("u1")
			assert.Equal(t, string(stepAlterAdd), sess.Step)
			assert.Equal(t, actionAdd, sess.Fields[fieldAction])
		})
	}
}

func TestAlterTableWorkflow_InvalidActionReprompts(t *testing.T) {
	h := newHarness(t)
	h.connect("u1")
	h.send("u1", "/alter_table")
	h.send("u1", "users")

	for _, input := range []string{"drop", "a dd", ""} {
		assert.Equal(t, h.msg("alter.invalid_action", nil), h.sendText(t, "u1", input))
	}
	sess, _ := h.store.Get("u1")
	assert.Equal(t, string(stepAlterAction), sess.Step)
}

func TestAlterTableWorkflow_AddColumn(t *testing.T) {
	h := newHarness(t)
	h.connect("u1")
	h.send("u1", "/alter_table")
	h.send("u1", "users")
	h.send("u1", "add")

	for _, input := range []string{"email", "email varchar(255) not null", "email; text", "e-mail text"} {
		assert.Equal(t, h.msg("alter.invalid_add", nil), h.sendText(t, "u1", input), input)
	}
	assert.Empty(t, h.db.execCalls())

	reply := h.sendText(t, "u1", "email varchar(255)")
	assert.Equal(t, h.msg("alter.added", messages.Data{"Table": "users", "Column": "email"}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ALTER TABLE users ADD COLUMN email varchar(255)", calls[0].Stmt)
}

func TestAlterTableWorkflow_RemoveColumn(t *testing.T) {
	h := newHarness(t)
	h.connect("u1")
	h.send("u1", "/alter_table")
	h.send("u1", "users")
	assert.Equal(t, h.msg("alter.remove", nil), h.sendText(t, "u1", "REMOVE"))

	h.sendText(t, "u1", "email; DROP TABLE users")
	assert.Empty(t, h.db.execCalls())

	reply := h.sendText(t, "u1", "email")
	assert.Equal(t, h.msg("alter.removed", messages.Data{"Table": "users", "Column": "email"}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ALTER TABLE users DROP COLUMN email", calls[0].Stmt)
}

func newInsertHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.connect("u1")
	h.db.tables["t"] = []db.Column{
		{Name: "id", DataType: "integer"},
		{Name: "name", DataType: "text"},
	}
	return h
}

func TestInsertWorkflow_TypedValue(t *testing.T) {
	h := newInsertHarness(t)

	h.send("u1", "/insert")
	reply := h.sendText(t, "u1", "t")
	assert.Contains(t, reply, "id (integer)")
	assert.Contains(t, reply, "name (text)")

	assert.Equal(t, h.msg("insert.invalid_column", messages.Data{"Column": "bogus"}), h.sendText(t, "u1", "bogus"))
	assert.Equal(t, h.msg("insert.value", messages.Data{"Column": "id", "Type": "integer"}), h.sendText(t, "u1", "id"))

	assert.Equal(t, h.msg("invalid_integer", messages.Data{"Value": "abc"}), h.sendText(t, "u1", "abc"))
	assert.Empty(t, h.db.execCalls())

	reply = h.sendText(t, "u1", "5")
	assert.Equal(t, h.msg("insert.success", messages.Data{"Value": "5", "Column": "id", "Table": "t"}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "INSERT INTO t (id) VALUES (?)", calls[0].Stmt)
	assert.Equal(t, []any{int64(5)}, calls[0].Args)
}

func TestInsertWorkflow_TextValue(t *testing.T) {
	h := newInsertHarness(t)
	h.send("u1", "/insert")
	h.send("u1", "t")
	h.send("u1", "NAME")
	h.send("u1", "  Robert'); DROP TABLE t;-- ")

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "INSERT INTO t (name) VALUES (?)", calls[0].Stmt)
	assert.Equal(t, []any{"Robert'); DROP TABLE t;--"}, calls[0].Args)
}

func TestInsertWorkflow_UnknownTableFails(t *testing.T) {
	h := newInsertHarness(t)
	h.send("u1", "/insert")

	assert.Equal(t, h.msg("table_not_found", messages.Data{"Table": "missing"}), h.sendText(t, "u1", "missing"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
	require.Len(t, h.finished, 1)
	assert.True(t, apperrors.IsNotFound(h.finished[0].Err))
}

func TestInsertWorkflow_CatalogErrorFails(t *testing.T) {
	h := newInsertHarness(t)
	h.db.columnsErr = errBoom
	h.send("u1", "/insert")

	assert.Equal(t, h.msg("schema_failure", messages.Data{"Table": "t"}), h.sendText(t, "u1", "t"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
	require.Len(t, h.finished, 1)
	assert.True(t, apperrors.IsQuery(h.finished[0].Err))
}

func TestInsertWorkflow_InvalidTableNameReprompts(t *testing.T) {
	h := newInsertHarness(t)
	h.send("u1", "/insert")

	assert.Equal(t, h.msg("invalid_identifier", messages.Data{"Value": "t; --"}), h.sendText(t, "u1", "t; --"))
	sess, ok := h.store.Get("u1")
	require.True(t, ok)
	assert.Equal(t, string(stepInsertTable), sess.Step)
}

func TestSelectWorkflow_All(t *testing.T) {
	h := newInsertHarness(t)
	h.db.result = &db.Result{
		Columns: []string{"id", "name"},
		Rows: []db.Row{
			{"id": int64(1), "name": "ann"},
			{"id": int64(2), "name": nil},
		},
	}

	h.send("u1", "/select")
	assert.Equal(t, h.msg("select.columns", messages.Data{"Table": "t", "Columns": "id, name"}), h.sendText(t, "u1", "t"))

	reply := h.sendText(t, "u1", "ALL")
	assert.Equal(t, h.msg("select.results", messages.Data{"Rows": "id=1, name=ann\nid=2, name=NULL"}), reply)

	calls := h.db.fetchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT * FROM t", calls[0].Stmt)
}

func TestSelectWorkflow_ColumnList(t *testing.T) {
	h := newInsertHarness(t)
	h.send("u1", "/select")
	h.send("u1", "t")

	assert.Equal(t, h.msg("select.empty", nil), h.sendText(t, "u1", "name , id"))

	calls := h.db.fetchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT name, id FROM t", calls[0].Stmt)
}

func TestSelectWorkflow_UnknownColumnFailsWithoutQuery(t *testing.T) {
	h := newInsertHarness(t)
	h.send("u1", "/select")
	h.send("u1", "t")

	reply := h.sendText(t, "u1", "id, bogus")
	assert.Equal(t, h.msg("select.column_not_found", messages.Data{"Column": "bogus", "Table": "t"}), reply)
	assert.Empty(t, h.db.fetchCalls())

	_, ok := h.store.Get("u1")
	assert.False(t, ok)
	require.Len(t, h.finished, 1)
	assert.True(t, apperrors.IsNotFound(h.finished[0].Err))
}

func TestSelectWorkflow_FetchErrorFails(t *testing.T) {
	h := newInsertHarness(t)
	h.db.fetchErr = errBoom
	h.send("u1", "/select")
	h.send("u1", "t")

	assert.Equal(t, h.msg("select.failure", nil), h.sendText(t, "u1", "all"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
}

func newUpdateHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.connect("u1")
	h.db.tables["users"] = []db.Column{
		{Name: "id", DataType: "integer"},
		{Name: "active", DataType: "boolean"},
		{Name: "note", DataType: "text"},
	}
	h.db.distinct["users.active"] = []any{false, true}
	h.db.distinct["users.id"] = []any{int64(1), int64(2)}
	h.db.rowsAff = 3
	return h
}

func TestUpdateWorkflow_Boolean(t *testing.T) {
	h := newUpdateHarness(t)

	h.send("u1", "/update")
	assert.Equal(t, h.msg("update.column", messages.Data{"Table": "users", "Columns": "id, active, note"}), h.sendText(t, "u1", "users"))

	assert.Equal(t, h.msg("update.invalid_column", messages.Data{"Column": "bogus"}), h.sendText(t, "u1", "bogus"))
	assert.Equal(t, h.msg("update.values", messages.Data{"Column": "active", "Values": "false\ntrue"}), h.sendText(t, "u1", "active"))

	assert.Equal(t, h.msg("update.invalid_value", messages.Data{"Value": "yes"}), h.sendText(t, "u1", "yes"))
	assert.Equal(t, h.msg("update.new_value", messages.Data{"Value": "false"}), h.sendText(t, "u1", "false"))

	before, _ := h.store.Get("u1")
	assert.Equal(t, h.msg("invalid_boolean", messages.Data{"Value": "maybe"}), h.sendText(t, "u1", "maybe"))
	after, _ := h.store.Get("u1")
	assert.Equal(t, before.Fields, after.Fields)
	assert.Equal(t, string(stepUpdateNewValue), after.Step)
	assert.Empty(t, h.db.execCalls())

	reply := h.sendText(t, "u1", "TRUE")
	assert.Equal(t, h.msg("update.success", messages.Data{"Old": "false", "New": "true", "Column": "active", "Rows": int64(3)}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "UPDATE users SET active = ? WHERE active = ?", calls[0].Stmt)
	assert.Equal(t, []any{true, false}, calls[0].Args)
}

func TestUpdateWorkflow_IntegerBindsStoredOldValue(t *testing.T) {
	h := newUpdateHarness(t)
	h.send("u1", "/update")
	h.send("u1", "users")
	h.send("u1", "id")
	h.send("u1", "2")

	assert.Equal(t, h.msg("invalid_integer", messages.Data{"Value": "two"}), h.sendText(t, "u1", "two"))
	h.send("u1", "20")

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{int64(20), int64(2)}, calls[0].Args)
}

func TestUpdateWorkflow_TimestampMatchesScannedValue(t *testing.T) {
	h := newUpdateHarness(t)
	h.db.tables["events"] = []db.Column{{Name: "at", DataType: "timestamp"}}
	at := time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.UTC)
	h.db.distinct["events.at"] = []any{at}

	h.send("u1", "/update")
	h.send("u1", "events")
	assert.Equal(t, h.msg("update.values", messages.Data{"Column": "at", "Values": "2024-01-01T10:00:00Z"}), h.sendText(t, "u1", "at"))
	h.send("u1", "2024-01-01T10:00:00Z")
	reply := h.sendText(t, "u1", "2025-01-01 00:00:00")
	assert.Equal(t, h.msg("update.success", messages.Data{
		"Old": "2024-01-01T10:00:00Z", "New": "2025-01-01 00:00:00", "Column": "at", "Rows": int64(3),
	}), reply)

	calls := h.db.execCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"2025-01-01 00:00:00", at}, calls[0].Args)
}

func TestUpdateWorkflow_NoValuesFails(t *testing.T) {
	h := newUpdateHarness(t)
	h.send("u1", "/update")
	h.send("u1", "users")

	assert.Equal(t, h.msg("update.no_values", messages.Data{"Column": "note"}), h.sendText(t, "u1", "note"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
	require.Len(t, h.finished, 1)
	assert.True(t, apperrors.IsNotFound(h.finished[0].Err))
}

func TestUpdateWorkflow_ColumnDroppedBeforeNewValue(t *testing.T) {
	h := newUpdateHarness(t)
	h.send("u1", "/update")
	h.send("u1", "users")
	h.send("u1", "active")
	h.send("u1", "true")

	h.db.tables["users"] = []db.Column{{Name: "id", DataType: "integer"}}
	assert.Equal(t, h.msg("update.type_not_found", messages.Data{"Column": "active"}), h.sendText(t, "u1", "false"))
	assert.Empty(t, h.db.execCalls())
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
}

func TestUpdateWorkflow_ExecuteErrorFails(t *testing.T) {
	h := newUpdateHarness(t)
	h.db.execErr = errBoom
	h.send("u1", "/update")
	h.send("u1", "users")
	h.send("u1", "id")
	h.send("u1", "1")

	assert.Equal(t, h.msg("update.failure", nil), h.sendText(t, "u1", "7"))
	_, ok := h.store.Get("u1")
	assert.False(t, ok)
}
