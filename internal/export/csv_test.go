package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/model"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAuditLogExport(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	err := AuditLog(&buf, []model.AuditLogEntry{
		{ID: "a1", Action: model.AuditArchive, UserName: "maria", Timestamp: at, AffectedRecordCount: 3, Details: "quarter close, cold-storage"},
		{ID: "a2", Action: model.AuditRestore, UserName: "tom", Timestamp: at, RecordID: "rb-1", RecordModule: "Invoice", Details: `said "ok"`},
	})
	require.NoError(t, err)

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "timestamp", "action", "userName", "recordId", "recordModule", "affectedRecordCount", "details"}, records[0])
	assert.Equal(t, "2024-05-01T10:00:00Z", records[1][1])
	assert.Equal(t, "3", records[1][6])
	assert.Equal(t, "quarter close, cold-storage", records[1][7])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, `said "ok"`, records[2][7])
}

func TestTransactionsExport(t *testing.T) {
	executed := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	err := Transactions(&buf, []model.Transaction{
		{ID: "t1", Type: "Issuance", Status: model.TransactionExecuted, Quantity: 100, UnitPrice: 10, TotalAmount: 1000, ExecutedDate: &executed},
		{ID: "t2", Type: "Transfer", Status: model.TransactionDraft, Quantity: 5, UnitPrice: 1.5, TotalAmount: 7.5},
	})
	require.NoError(t, err)

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, "1000.00", records[1][8])
	assert.Equal(t, "2024-06-02T00:00:00Z", records[1][11])
	assert.Equal(t, "", records[2][11])
}

func TestUsersExportOmitsPasswordHash(t *testing.T) {
	var buf bytes.Buffer

	err := Users(&buf, []model.User{{ID: "u1", Username: "admin", PasswordHash: "$2a$secret", Role: model.RoleAdmin, Active: true}})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "$2a$secret")
	assert.True(t, strings.HasPrefix(buf.String(), "id,username,fullName"))
}

func TestEmptyExportWritesHeader(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Leads(&buf, nil))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, "id", records[0][0])
}
