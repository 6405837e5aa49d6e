package shared

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type captureExec struct {
	sql  string
	args []any
}

func (c *captureExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	exec := &captureExec{}
	logger := NewAuditLogger(exec)
	fixed := time.Date(2025, 3, 31, 23, 0, 0, 0, time.FixedZone("COT", -5*3600))
	logger.now = func() time.Time { return fixed }
	tenant := uuid.New()

	err := logger.Record(context.Background(), AuditLog{
		TenantID: tenant,
		Action:   "journal.post",
		Entity:   "journal_entry",
		EntityID: "42",
	})
	require.NoError(t, err)
	require.Contains(t, exec.sql, "INSERT INTO audit_logs")
	require.Len(t, exec.args, 7)
	require.Equal(t, tenant, exec.args[0])
	require.Nil(t, exec.args[1])
	require.JSONEq(t, `{}`, string(exec.args[5].([]byte)))
	require.Equal(t, fixed.UTC(), exec.args[6])
}

func TestAuditLoggerRejectsIncompleteRows(t *testing.T) {
	exec := &captureExec{}
	logger := NewAuditLogger(exec)

	err := logger.Record(context.Background(), AuditLog{Action: "period.close", Entity: "accounting_period", EntityID: "1"})
	require.ErrorIs(t, err, ErrInvalidAuditLog)
	require.Empty(t, exec.sql)

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}
