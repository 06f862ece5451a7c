package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureCounts() map[string]int {
	return map[string]int{
		"1,2": 5,
		"1,3": 5,
		"2,3": 2,
		"4,9": 8,
		"3,7": 1,
	}
}

func TestLoadCoOccurrences_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "co.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1,2": 5, "4,9": 8}`), 0o644))

	co, err := LoadCoOccurrences(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1,2": 5, "4,9": 8}, co)
}

func TestLoadCoOccurrences_MissingFile(t *testing.T) {
	_, err := LoadCoOccurrences(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestParsePairKey(t *testing.T) {
	a, b, err := ParsePairKey("12,34")
	require.NoError(t, err)
	assert.Equal(t, 12, a)
	assert.Equal(t, 34, b)

	_, _, err = ParsePairKey("12")
	assert.Error(t, err)
	_, _, err = ParsePairKey("12,x")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	stats := Summarize(fixtureCounts())
	assert.Equal(t, 5, stats.Pairs)
	assert.Equal(t, 8, stats.Max)
	assert.Equal(t, 1, stats.Min)
	assert.InDelta(t, 4.2, stats.Mean, 1e-9) // (5+5+2+8+1)/5

	empty := Summarize(nil)
	assert.Equal(t, ReportStats{}, empty)
}

func TestTopPairs_RanksByCountThenIDs(t *testing.T) {
	pairs, err := TopPairs(fixtureCounts(), 3)
	require.NoError(t, err)

	assert.Equal(t, []PairCount{
		{HenA: 4, HenB: 9, Count: 8},
		{HenA: 1, HenB: 2, Count: 5}, // tie with 1,3 broken by hen ids
		{HenA: 1, HenB: 3, Count: 5},
	}, pairs)
}

func TestTopPairs_ZeroLimitReturnsAll(t *testing.T) {
	pairs, err := TopPairs(fixtureCounts(), 0)
	require.NoError(t, err)
	assert.Len(t, pairs, 5)
}

func TestCompanions(t *testing.T) {
	companions, err := Companions(fixtureCounts(), 3, 10)
	require.NoError(t, err)

	assert.Equal(t, []Companion{
		{Hen: 1, Count: 5},
		{Hen: 2, Count: 2},
		{Hen: 7, Count: 1},
	}, companions)

	none, err := Companions(fixtureCounts(), 42, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNetwork_FiltersByThreshold(t *testing.T) {
	network, err := Network(fixtureCounts(), 5)
	require.NoError(t, err)

	assert.Equal(t, map[int][]int{
		1: {2, 3},
		2: {1},
		3: {1},
		4: {9},
		9: {4},
	}, network)
}
