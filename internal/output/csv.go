/*
PURPOSE:
  Writes per-request outcomes to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Fixed column schema: input_id, ok, status_code, api_latency_ms,
    client_elapsed_ms, mode, reference_baseline_cost_usd, an1_cost_usd,
    savings_usd, error.
  - Absent values are empty cells, not zeroes.

  Implementation-discovered:
  - Keep the file handle open and Flush() after every write
    (crash resilience).
  - Mutex-guarded: the runner may drive a worker pool.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Consumes: internal/model.Outcome

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - status_code 0 (no HTTP response received) renders as an empty cell.

USAGE:
  w, err := output.NewCSVWriter("out/results_run.csv")
  w.Write(out)
  w.Close()

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when the Outcome struct changes.
*/

package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/daryltucker/an1-bench/internal/model"
)

// csvHeader is the fixed per-request column schema.
var csvHeader = []string{
	"input_id", "ok", "status_code", "api_latency_ms", "client_elapsed_ms", "mode",
	"reference_baseline_cost_usd", "an1_cost_usd", "savings_usd", "error",
}

// CSVWriter handles writing outcomes to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists and writes the header immediately.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single outcome row. It is thread-safe.
func (cw *CSVWriter) Write(out model.Outcome) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	status := ""
	if out.StatusCode != 0 {
		status = strconv.Itoa(out.StatusCode)
	}

	record := []string{
		out.InputID,
		strconv.FormatBool(out.OK),
		status,
		formatFloatPtr(out.APILatencyMS, 2),
		strconv.FormatFloat(out.ClientElapsedMS, 'f', 2, 64),
		out.Mode,
		formatFloatPtr(out.BaselineCostUSD, 6),
		formatFloatPtr(out.AN1CostUSD, 6),
		formatFloatPtr(out.SavingsUSD, 6),
		out.Error,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

// formatFloatPtr renders a nullable figure: nil becomes an empty cell.
func formatFloatPtr(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
