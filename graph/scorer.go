// Package graph scores phrase-to-phrase transitions and assembles the pruned
// compatibility graph.
package graph

import (
	"math"
	"strings"

	"github.com/mager/phrasegraph/phrasegraph"
)

var (
	// keyCircle orders the 12 pitch classes by fifths; neighbors on the
	// circle are harmonically close.
	keyCircle = []string{"C", "G", "D", "A", "E", "B", "F#", "Db", "Ab", "Eb", "Bb", "F"}
	keyNames  = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

	enharmonics = map[string]string{
		"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
	}

	// keyScores is indexed by circle distance 0..6.
	keyScores = []float64{1.0, 0.9, 0.8, 0.6, 0.4, 0.2, 0.1}
)

// SubScores holds the four component scores of a link.
type SubScores struct {
	Tempo    float64
	Key      float64
	Energy   float64
	Spectral float64
}

// Scorer computes transition compatibility between two phrases. All methods
// are pure and symmetric in their arguments.
type Scorer struct {
	tun phrasegraph.Tunables
}

// NewScorer builds a new Scorer.
func NewScorer(tun phrasegraph.Tunables) *Scorer {
	return &Scorer{tun: tun}
}

// TempoScore rates two tempos: same tempo scores best, half/double time
// nearly as well since phrases can be beat-matched at twice or half speed.
// Non-positive tempo is unknown and scores neutral.
func (s *Scorer) TempoScore(t1, t2 float64) float64 {
	if t1 <= 0 || t2 <= 0 {
		return 0.5
	}
	ratio := t1 / t2
	switch {
	case math.Abs(ratio-1.0) <= s.tun.TempoExactThreshold:
		return 1.0
	case math.Abs(ratio-2.0) <= s.tun.TempoHalfDoubleThreshold:
		return 0.85
	case math.Abs(ratio-0.5) <= s.tun.TempoHalfDoubleThreshold:
		return 0.85
	case math.Abs(ratio-1.0) <= 0.10:
		return 0.8
	case math.Abs(ratio-1.0) <= 0.20:
		return 0.5
	default:
		return 0.2
	}
}

// KeyScore rates harmonic compatibility by distance on the circle of fifths.
// Unknown keys land at moderate distance rather than failing.
func (s *Scorer) KeyScore(k1, k2 string) float64 {
	return keyScores[keyDistance(k1, k2)]
}

// keyDistance returns 0 (same key) to 6 (tritone apart).
func keyDistance(k1, k2 string) int {
	if k1 == "" || k2 == "" {
		return 3
	}
	n1 := normalizeKey(k1)
	n2 := normalizeKey(k2)
	if n1 == n2 {
		return 0
	}
	i1, ok1 := keyPosition(n1)
	i2, ok2 := keyPosition(n2)
	if !ok1 || !ok2 {
		return 3
	}
	dist := i1 - i2
	if dist < 0 {
		dist = -dist
	}
	if 12-dist < dist {
		dist = 12 - dist
	}
	if dist > 6 {
		dist = 6
	}
	return dist
}

// normalizeKey uppercases and folds flats onto their sharp equivalents
// (Db == C#).
func normalizeKey(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if sharp, ok := enharmonics[key]; ok {
		return sharp
	}
	return key
}

func keyPosition(key string) (int, bool) {
	for i, k := range keyCircle {
		if strings.ToUpper(k) == key {
			return i, true
		}
	}
	for i, k := range keyNames {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// EnergyScore rates the energy flow from e1 into e2. A gradual build is the
// best transition; abrupt jumps in either direction can still work but score
// low. Branches use closed intervals in this order, so a diff of exactly
// -0.1 counts as "similar"; the trailing 0.6 is only reachable for NaN.
func (s *Scorer) EnergyScore(e1, e2 float64) float64 {
	diff := e2 - e1
	switch {
	case math.Abs(diff) <= 0.1:
		return 0.85
	case diff > 0.1 && diff <= 0.3:
		return 0.9
	case diff > 0.3:
		return 0.5
	case diff >= -0.3 && diff < -0.1:
		return 0.75
	case diff < -0.3:
		return 0.4
	default:
		return 0.6
	}
}

// SpectralScore rates timbral similarity by the ratio of spectral centroids;
// similar brightness blends more smoothly. Non-positive centroid is unknown
// and scores neutral.
func (s *Scorer) SpectralScore(c1, c2 float64) float64 {
	if c1 <= 0 || c2 <= 0 {
		return 0.5
	}
	ratio := math.Max(c1, c2) / math.Min(c1, c2)
	switch {
	case ratio < 1.2:
		return 1.0
	case ratio < 1.5:
		return 0.8
	case ratio < 2.0:
		return 0.6
	default:
		return 0.4
	}
}

// Weight computes the overall link weight and its component scores for an
// ordered phrase pair. Tempo dominates; a mismatched beat grid is the hardest
// thing to mix around.
func (s *Scorer) Weight(p1, p2 *phrasegraph.PhraseNode) (float64, SubScores) {
	scores := SubScores{
		Tempo:    s.TempoScore(p1.Tempo, p2.Tempo),
		Key:      s.KeyScore(derefKey(p1.Key), derefKey(p2.Key)),
		Energy:   s.EnergyScore(p1.Energy, p2.Energy),
		Spectral: s.SpectralScore(p1.SpectralCentroid, p2.SpectralCentroid),
	}
	weight := scores.Tempo*s.tun.TempoWeight +
		scores.Key*s.tun.KeyWeight +
		scores.Energy*s.tun.EnergyWeight +
		scores.Spectral*s.tun.SpectralWeight
	return weight, scores
}

// SuggestTransition picks a transition style from the overall weight and the
// energy delta: clean pairs crossfade, decent ones blend through EQ, big
// energy moves get a filter sweep, everything else cuts on the beat.
func (s *Scorer) SuggestTransition(weight, energyDiff float64) string {
	switch {
	case weight > 0.8:
		return "crossfade"
	case weight > 0.6:
		return "eqSwap"
	case weight > 0.4 && math.Abs(energyDiff) > 0.3:
		return "filter"
	default:
		return "cut"
	}
}

func derefKey(k *string) string {
	if k == nil {
		return ""
	}
	return *k
}
