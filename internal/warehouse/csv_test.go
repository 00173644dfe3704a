package warehouse

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
}

func TestExportCSV(t *testing.T) {
	records := []Record{
		gl.FlatAccount{ID: 1, Name: "Cash", Type: "Asset", SubType: "CurrentAsset", IsActive: true},
		gl.FlatAccount{ID: 2, Name: "Rent", Type: "Income", SubType: "Income", IsActive: true},
	}

	var buf bytes.Buffer
	err := ExportCSV(&buf, records, "run-123", fixedNow)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "id", header[0])
	assert.Equal(t, "run_id", header[len(header)-2])
	assert.Equal(t, "inserted_at", header[len(header)-1])

	for _, row := range rows[1:] {
		require.Len(t, row, len(header))
		assert.Equal(t, "run-123", row[len(row)-2])
		assert.Equal(t, "2024-06-01T10:30:00Z", row[len(row)-1])
	}
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2", rows[2][0])
}

func TestExportCSVStructuredColumn(t *testing.T) {
	records := []Record{
		gl.AccountParticipation{AccountID: 101, TransactionID: 5001},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records, "run-123", fixedNow))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"account_id", "transaction_id", "run_id", "inserted_at"}, rows[0])
	assert.Equal(t, "101", rows[1][0])
	assert.Equal(t, "5001", rows[1][1])
}

func TestExportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, nil, "run-123", fixedNow)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}
