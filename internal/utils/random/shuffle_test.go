package random

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, Shuffle(items))

	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sorted)
}

func TestSample(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{name: "fewer than available", k: 2, want: 2},
		{name: "exactly available", k: 4, want: 4},
		{name: "more than available", k: 10, want: 4},
		{name: "zero", k: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sample(items, tt.k)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)

			seen := make(map[string]bool)
			for _, v := range got {
				assert.False(t, seen[v], "duplicate %s", v)
				seen[v] = true
				assert.Contains(t, items, v)
			}
		})
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
}

func TestSampleEmpty(t *testing.T) {
	got, err := Sample([]int{}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Every element should show up as the single pick over enough draws.
func TestSampleCoversAllElements(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	counts := make([]int, len(items))
	for i := 0; i < 2000; i++ {
		got, err := Sample(items, 1)
		require.NoError(t, err)
		counts[got[0]]++
	}
	for i, c := range counts {
		assert.Greater(t, c, 200, "element %d picked %d times", i, c)
	}
}
