package phrasegraph

// Tunables collects the heuristic thresholds used by boundary detection,
// compatibility scoring and graph building. A single value is passed through
// the pipeline so alternate tunings can be tested without edits.
type Tunables struct {
	// MinLinkWeight is the minimum compatibility for a non-sequence link.
	MinLinkWeight float64 `json:"min_link_weight"`
	// MaxLinksPerPhrase caps the out-degree of every node.
	MaxLinksPerPhrase int `json:"max_links_per_phrase"`

	// TempoExactThreshold is the ratio tolerance for "same tempo".
	TempoExactThreshold float64 `json:"tempo_exact_threshold"`
	// TempoHalfDoubleThreshold is the tolerance for half/double time.
	TempoHalfDoubleThreshold float64 `json:"tempo_half_double_threshold"`

	// Sub-score weights for the overall link weight.
	TempoWeight    float64 `json:"tempo_weight"`
	KeyWeight      float64 `json:"key_weight"`
	EnergyWeight   float64 `json:"energy_weight"`
	SpectralWeight float64 `json:"spectral_weight"`

	// NoveltyPeakSigma: a smoothed novelty sample must exceed
	// mean + NoveltyPeakSigma*stddev to count as a structural peak.
	NoveltyPeakSigma float64 `json:"novelty_peak_sigma"`
	// MinPeakSpacing is the minimum distance between novelty peaks, seconds.
	MinPeakSpacing float64 `json:"min_peak_spacing"`
	// SplitTarget is the target piece length when subdividing long segments.
	SplitTarget float64 `json:"split_target"`
	// SplitCeiling: segments longer than this get subdivided.
	SplitCeiling float64 `json:"split_ceiling"`
}

// DefaultTunables returns the factory tuning.
func DefaultTunables() Tunables {
	return Tunables{
		MinLinkWeight:            0.3,
		MaxLinksPerPhrase:        20,
		TempoExactThreshold:      0.05,
		TempoHalfDoubleThreshold: 0.1,
		TempoWeight:              0.35,
		KeyWeight:                0.25,
		EnergyWeight:             0.25,
		SpectralWeight:           0.15,
		NoveltyPeakSigma:         1.5,
		MinPeakSpacing:           4.0,
		SplitTarget:              15.0,
		SplitCeiling:             30.0,
	}
}

// Options provides the default tuning to the app container.
var Options = DefaultTunables
