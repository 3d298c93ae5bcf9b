package translator

import (
	"strconv"
	"testing"

	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUnits(n int) []subtitle.Unit {
	ret := make([]subtitle.Unit, 0, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		ret = append(ret, subtitle.Unit{ID: id, Text: "line " + id})
	}
	return ret
}

func TestSplit_PartitionsExactly(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 3, 7, 20, 41} {
		for _, size := range []int{1, 2, 3, 20, 500} {
			units := makeUnits(n)
			batches, err := Split(units, size)
			require.NoError(t, err)

			var joined []subtitle.Unit
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				assert.Equal(t, len(joined), b.Start)
				assert.LessOrEqual(t, len(b.Units), size)
				if i < len(batches)-1 {
					assert.Len(t, b.Units, size)
				}
				joined = append(joined, b.Units...)
			}
			if n == 0 {
				assert.Empty(t, batches)
				continue
			}
			assert.Equal(t, units, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestSplit_ThreeCuesBatchTwo(t *testing.T) {
	t.Parallel()

	batches, err := Split(makeUnits(3), 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"1", "2"}, batches[0].IDs())
	assert.Equal(t, []string{"3"}, batches[1].IDs())
	assert.Equal(t, 2, batches[0].End())

	completed := map[string]bool{"1": true}
	assert.False(t, IsComplete(batches[0], completed))
	assert.Equal(t, []string{"2"}, Batch{Units: batches[0].Missing(completed)}.IDs())

	completed["2"] = true
	assert.True(t, IsComplete(batches[0], completed))
	assert.False(t, IsComplete(batches[1], completed))
}

func TestSplit_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, 501} {
		_, err := Split(makeUnits(3), size)
		assert.Error(t, err, "size=%d", size)
	}
}

func TestSplit_AppendDoesNotLeakIntoNextBatch(t *testing.T) {
	t.Parallel()

	units := makeUnits(4)
	batches, err := Split(units, 2)
	require.NoError(t, err)

	_ = append(batches[0].Units, subtitle.Unit{ID: "x"})
	assert.Equal(t, "3", units[2].ID)
}
