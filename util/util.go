package util

import (
	"sort"

	"github.com/mager/phrasegraph/phrasegraph"
	"golang.org/x/exp/maps"
)

// SegmentTypeCounts tallies phrases per segment type.
func SegmentTypeCounts(nodes []*phrasegraph.PhraseNode) map[string]int {
	counts := make(map[string]int)
	for _, n := range nodes {
		counts[n.SegmentType]++
	}
	return counts
}

// RankSegmentTypes returns segment types ranked by their number of occurrences
func RankSegmentTypes(counts map[string]int) []string {
	var sorted []string
	sorted = maps.Keys(counts)
	sort.Slice(sorted, func(i, j int) bool {
		return counts[sorted[i]] > counts[sorted[j]]
	})

	return sorted
}

// TempoRange returns the min and max tempo across nodes, or zeros when empty.
func TempoRange(nodes []*phrasegraph.PhraseNode) (float64, float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	min, max := nodes[0].Tempo, nodes[0].Tempo
	for _, n := range nodes[1:] {
		if n.Tempo < min {
			min = n.Tempo
		}
		if n.Tempo > max {
			max = n.Tempo
		}
	}
	return min, max
}

// LinksPerPhrase returns the min, max and mean out-degree across nodes, or
// zeros when empty.
func LinksPerPhrase(nodes []*phrasegraph.PhraseNode) (int, int, float64) {
	if len(nodes) == 0 {
		return 0, 0, 0
	}
	min, max, total := len(nodes[0].Links), len(nodes[0].Links), 0
	for _, n := range nodes {
		d := len(n.Links)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
		total += d
	}
	return min, max, float64(total) / float64(len(nodes))
}

// CountLinks returns the total link count and how many of them are
// original-sequence links.
func CountLinks(nodes []*phrasegraph.PhraseNode) (int, int) {
	total, original := 0, 0
	for _, n := range nodes {
		total += len(n.Links)
		for _, l := range n.Links {
			if l.IsOriginalSequence {
				original++
			}
		}
	}
	return total, original
}
