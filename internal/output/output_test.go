package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/an1-bench/internal/model"
)

func f(v float64) *float64 { return &v }

func TestCSVWriterSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results_run.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	ok := model.Outcome{
		InputID:         "s1",
		OK:              true,
		StatusCode:      200,
		APILatencyMS:    f(41.5),
		ClientElapsedMS: 52.25,
		Mode:            "active",
		BaselineCostUSD: f(0.004),
		AN1CostUSD:      f(0.001),
		SavingsUSD:      f(0.003),
	}
	failed := model.Outcome{
		InputID:         "s2",
		ClientElapsedMS: 1000,
		Error:           "connection error: dial tcp: refused",
	}

	require.NoError(t, w.Write(ok))
	require.NoError(t, w.Write(failed))
	require.NoError(t, w.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"input_id", "ok", "status_code", "api_latency_ms", "client_elapsed_ms", "mode",
		"reference_baseline_cost_usd", "an1_cost_usd", "savings_usd", "error",
	}, rows[0])

	assert.Equal(t, []string{
		"s1", "true", "200", "41.50", "52.25", "active",
		"0.004000", "0.001000", "0.003000", "",
	}, rows[1])

	// Pure network failure: status and nullable figures are empty cells.
	assert.Equal(t, "s2", rows[2][0])
	assert.Equal(t, "false", rows[2][1])
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "connection error: dial tcp: refused", rows[2][9])
}

func TestJSONLWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results_run.jsonl")
	w, err := NewJSONLWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(model.Outcome{InputID: "s1", OK: true, StatusCode: 200, ClientElapsedMS: 10}))
	require.NoError(t, w.Write(model.Outcome{InputID: "s2", ClientElapsedMS: 20, Error: "timeout after 1s"}))
	require.NoError(t, w.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []model.Outcome
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var out model.Outcome
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &out))
		lines = append(lines, out)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "s1", lines[0].InputID)
	assert.True(t, lines[0].OK)
	assert.Equal(t, "timeout after 1s", lines[1].Error)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_run.json")

	s := model.Summary{
		RunID:             "0b7e9c2e-0000-0000-0000-000000000000",
		Label:             "run",
		TotalRequests:     2,
		OKRequests:        1,
		ClientLatencyMean: f(15),
	}
	require.NoError(t, WriteSummary(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(2), decoded["total_requests"])
	assert.Equal(t, float64(1), decoded["ok_requests"])
	assert.Equal(t, float64(15), decoded["client_latency_mean"])
	// Absent statistics serialize as explicit nulls, not omitted keys.
	v, present := decoded["api_latency_p95"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, float64(0), decoded["savings_percentage"])
}

func TestPathsFor(t *testing.T) {
	p := PathsFor("out", "active")
	assert.Equal(t, filepath.Join("out", "results_active.csv"), p.CSV)
	assert.Equal(t, filepath.Join("out", "results_active.jsonl"), p.JSONL)
	assert.Equal(t, filepath.Join("out", "summary_active.json"), p.Summary)
	assert.True(t, strings.HasSuffix(p.Summary, ".json"))
}
