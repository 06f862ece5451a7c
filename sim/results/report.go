package results

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// PairCount is one ranked co-occurrence pair.
type PairCount struct {
	HenA  int
	HenB  int
	Count int
}

// Companion is one ranked companion of a specific hen.
type Companion struct {
	Hen   int
	Count int
}

// ReportStats aggregates a co-occurrence mapping.
type ReportStats struct {
	Pairs int
	Mean  float64
	Max   int
	Min   int
}

// LoadCoOccurrences reads a co_occurrences.json file ("a,b" → count).
func LoadCoOccurrences(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading co-occurrences: %w", err)
	}
	var co map[string]int
	if err := json.Unmarshal(data, &co); err != nil {
		return nil, fmt.Errorf("parsing co-occurrences: %w", err)
	}
	return co, nil
}

// ParsePairKey splits an "a,b" key into its hen identifiers.
func ParsePairKey(key string) (int, int, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("pair key %q is not \"a,b\"", key)
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("pair key %q: %w", key, err)
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("pair key %q: %w", key, err)
	}
	return a, b, nil
}

// Summarize computes aggregate statistics over all pair counts.
// Safe for empty mappings (returns zero-value fields).
func Summarize(co map[string]int) ReportStats {
	stats := ReportStats{Pairs: len(co)}
	if len(co) == 0 {
		return stats
	}
	counts := make([]float64, 0, len(co))
	first := true
	for _, c := range co {
		counts = append(counts, float64(c))
		if first || c > stats.Max {
			stats.Max = c
		}
		if first || c < stats.Min {
			stats.Min = c
		}
		first = false
	}
	stats.Mean = stat.Mean(counts, nil)
	return stats
}

// TopPairs returns the topN pairs with the highest counts, ties broken by
// pair identifiers so the ranking is deterministic.
func TopPairs(co map[string]int, topN int) ([]PairCount, error) {
	pairs := make([]PairCount, 0, len(co))
	for key, count := range co {
		a, b, err := ParsePairKey(key)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, PairCount{HenA: a, HenB: b, Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].HenA != pairs[j].HenA {
			return pairs[i].HenA < pairs[j].HenA
		}
		return pairs[i].HenB < pairs[j].HenB
	})
	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs, nil
}

// Companions returns the topN hens most frequently co-occurring with henID.
func Companions(co map[string]int, henID, topN int) ([]Companion, error) {
	var companions []Companion
	for key, count := range co {
		a, b, err := ParsePairKey(key)
		if err != nil {
			return nil, err
		}
		switch henID {
		case a:
			companions = append(companions, Companion{Hen: b, Count: count})
		case b:
			companions = append(companions, Companion{Hen: a, Count: count})
		}
	}
	sort.Slice(companions, func(i, j int) bool {
		if companions[i].Count != companions[j].Count {
			return companions[i].Count > companions[j].Count
		}
		return companions[i].Hen < companions[j].Hen
	})
	if topN > 0 && len(companions) > topN {
		companions = companions[:topN]
	}
	return companions, nil
}

// Network derives a connectivity graph: hens joined by an edge when their
// co-occurrence count reaches minCount. Companion lists are sorted.
func Network(co map[string]int, minCount int) (map[int][]int, error) {
	network := make(map[int][]int)
	for key, count := range co {
		if count < minCount {
			continue
		}
		a, b, err := ParsePairKey(key)
		if err != nil {
			return nil, err
		}
		network[a] = append(network[a], b)
		network[b] = append(network[b], a)
	}
	for hen := range network {
		sort.Ints(network[hen])
	}
	return network, nil
}
