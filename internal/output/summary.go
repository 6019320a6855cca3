/*
PURPOSE:
  Persists the run summary document and computes the artifact paths for a
  labeled run.

REQUIREMENTS:
  User-specified:
  - Summary is a single indented JSON document.
  - Artifacts are labeled by the expected-mode tag (or "run") so repeated
    runs under different configurations do not overwrite each other.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Consumes: internal/model.Summary

ERROR HANDLING:
  - Returns error on file creation or encode failure.

USAGE:
  paths := output.PathsFor("out", "active")
  err := output.WriteSummary(paths.Summary, summary)

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go
*/

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daryltucker/an1-bench/internal/model"
)

// Paths names the artifact files of one labeled run.
type Paths struct {
	CSV     string
	JSONL   string
	Summary string
}

// PathsFor computes the artifact paths for a label under dir.
func PathsFor(dir, label string) Paths {
	return Paths{
		CSV:     filepath.Join(dir, fmt.Sprintf("results_%s.csv", label)),
		JSONL:   filepath.Join(dir, fmt.Sprintf("results_%s.jsonl", label)),
		Summary: filepath.Join(dir, fmt.Sprintf("summary_%s.json", label)),
	}
}

// WriteSummary writes the summary document to path as indented JSON.
func WriteSummary(path string, s model.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary %s: %w", path, err)
	}
	return nil
}
