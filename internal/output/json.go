/*
PURPOSE:
  Writes per-request outcomes to a JSON Lines file (NDJSON).
  Optimized for machine parsing and streaming appends.

REQUIREMENTS:
  User-specified:
  - JSON output for easier parsing alongside the CSV.

  Implementation-discovered:
  - JSON Lines is better for streaming/logging than a single large array
    (append-friendly).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Consumes: internal/model.Outcome

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONLWriter("out/results_run.jsonl")
  w.Write(out)
  w.Close()

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update if we switch to a plain JSON array (not recommended for streaming).
*/

package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/daryltucker/an1-bench/internal/model"
)

// JSONLWriter handles writing outcomes to a JSON Lines file.
type JSONLWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter creates a new JSONLWriter.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &JSONLWriter{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Write writes a single outcome as a JSON line.
func (jw *JSONLWriter) Write(out model.Outcome) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(out)
}

// Close closes the underlying file.
func (jw *JSONLWriter) Close() error {
	return jw.file.Close()
}
