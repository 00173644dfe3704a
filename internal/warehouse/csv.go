package warehouse

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ExportCSV serializes records to w as CSV: a header row, then one row per
// record with two provenance columns appended — run_id and inserted_at, the
// latter captured per row at export time. All records in one call must share
// a column set. An export failure is fatal to the run.
func ExportCSV(w io.Writer, records []Record, runID string, now func() time.Time) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to export")
	}
	if now == nil {
		now = time.Now
	}

	writer := csv.NewWriter(w)
	header := append(records[0].Columns(), "run_id", "inserted_at")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i, record := range records {
		values, err := record.Values()
		if err != nil {
			return fmt.Errorf("serializing record %d: %w", i, err)
		}
		row := append(values, runID, now().UTC().Format(time.RFC3339Nano))
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
