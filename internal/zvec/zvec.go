/*
PURPOSE:
  Derives a deterministic fixed-length z vector from a text input.
  The same text must yield the same vector on any machine, any run, any process.

REQUIREMENTS:
  User-specified:
  - Exactly Dim floats (default 256), each in [-1.0, 1.0).
  - Bit-for-bit reproducible across runs and machines.

  Implementation-discovered:
  - math/rand streams are not stable across Go releases, so the generator
    is pinned to splitmix64 seeded from SHA-256 of the text.
  - A wrong-length vector is a programming defect, not a request error.
    It must fail loudly, not truncate or pad.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (runner), internal/cli (derive command)
  - Dependencies: crypto/sha256, encoding/binary only.

ERROR HANDLING:
  - Derive returns an error wrapping ErrDimension when the generated length
    disagrees with the configured dimension. Callers treat this as fatal.

IMPLEMENTATION RULES:
  - No map iteration, no wall clock, no process-randomized hashing anywhere
    in the derivation path.

USAGE:
  d := zvec.New(256)
  z, err := d.Derive("hello")

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - Changing the hash, PRNG, or scaling breaks comparability with all
    previously recorded runs. Do not.
*/

package zvec

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// DefaultDim is the z vector dimension expected by the infer_z mode.
const DefaultDim = 256

// ErrDimension reports a derived vector whose length violates the configured
// dimension. This is an internal-invariant failure, distinct from any
// request-level error: it aborts the run instead of being recorded per input.
var ErrDimension = errors.New("derived vector length violates configured dimension")

// Deriver converts text into a deterministic z vector of Dim floats.
type Deriver struct {
	Dim int
}

// New creates a Deriver. A non-positive dim falls back to DefaultDim.
func New(dim int) Deriver {
	if dim <= 0 {
		dim = DefaultDim
	}
	return Deriver{Dim: dim}
}

// Derive produces the z vector for text: SHA-256 of the text seeds a
// splitmix64 stream, and each output word is scaled into [-1.0, 1.0).
// The length of the result is checked explicitly before it is returned.
func (d Deriver) Derive(text string) ([]float64, error) {
	sum := sha256.Sum256([]byte(text))
	state := binary.BigEndian.Uint64(sum[:8])

	z := make([]float64, 0, d.Dim)
	for i := 0; i < d.Dim; i++ {
		var v uint64
		state, v = splitmix64(state)
		z = append(z, unit(v))
	}

	return d.Check(z)
}

// Check verifies the dimension invariant on an already-generated vector.
// It returns the vector unchanged on success.
func (d Deriver) Check(z []float64) ([]float64, error) {
	if len(z) != d.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(z), d.Dim)
	}
	return z, nil
}

// splitmix64 advances the generator state and returns the next output word.
// Constants are the reference splitmix64 ones; the sequence is fixed forever.
func splitmix64(state uint64) (next uint64, out uint64) {
	state += 0x9e3779b97f4a7c15
	out = state
	out ^= out >> 30
	out *= 0xbf58476d1ce4e5b9
	out ^= out >> 27
	out *= 0x94d049bb133111eb
	out ^= out >> 31
	return state, out
}

// unit maps the top 53 bits of v linearly onto [-1.0, 1.0).
func unit(v uint64) float64 {
	return float64(v>>11)/float64(1<<52) - 1.0
}
