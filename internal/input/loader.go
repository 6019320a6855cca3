/*
PURPOSE:
  Loads the benchmark input dataset (ordered {id, text} records) from disk.

REQUIREMENTS:
  User-specified:
  - Order-preserving; the record sequence is load-bearing for reproducibility.

  Implementation-discovered:
  - Duplicate ids are allowed and simply produce duplicate output rows.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Produces: []model.Input for internal/engine.Runner

ERROR HANDLING:
  - Returns explicit errors for unreadable or malformed files.

USAGE:
  inputs, err := input.Load("data/sessions_v1.json")

RELATED FILES:
  - internal/model/types.go
*/

package input

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/daryltucker/an1-bench/internal/model"
)

// Load reads a JSON array of input records from path.
func Load(path string) ([]model.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dataset %s: %w", path, err)
	}

	var inputs []model.Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse input dataset %s: %w", path, err)
	}

	return inputs, nil
}
