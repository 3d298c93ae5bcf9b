package translator

import (
	"fmt"

	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
)

const (
	MinBatchSize = 1
	MaxBatchSize = 500
)

// Batch is a contiguous, order-preserving slice of units sent in one request.
type Batch struct {
	Index int // zero-based batch number
	Start int // offset of the first unit in the file
	Units []subtitle.Unit
}

// End returns the offset one past the last unit.
func (b Batch) End() int {
	return b.Start + len(b.Units)
}

// IDs returns the unit IDs of the batch in order.
func (b Batch) IDs() []string {
	ret := make([]string, 0, len(b.Units))
	for _, u := range b.Units {
		ret = append(ret, u.ID)
	}
	return ret
}

// Missing returns the units whose IDs are not in completed.
func (b Batch) Missing(completed map[string]bool) []subtitle.Unit {
	var ret []subtitle.Unit
	for _, u := range b.Units {
		if !completed[u.ID] {
			ret = append(ret, u)
		}
	}
	return ret
}

// IsComplete reports whether every unit of b has already been completed.
func IsComplete(b Batch, completed map[string]bool) bool {
	for _, u := range b.Units {
		if !completed[u.ID] {
			return false
		}
	}
	return true
}

// Split partitions units into batches of size units; the last batch may be
// shorter. Concatenating the batches yields units exactly.
func Split(units []subtitle.Unit, size int) ([]Batch, error) {
	if size < MinBatchSize || size > MaxBatchSize {
		return nil, fmt.Errorf("batch size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, size)
	}

	batches := make([]Batch, 0, (len(units)+size-1)/size)
	for i := 0; i < len(units); i += size {
		end := min(i+size, len(units))
		batches = append(batches, Batch{
			Index: len(batches),
			Start: i,
			Units: units[i:end:end],
		})
	}
	return batches, nil
}
