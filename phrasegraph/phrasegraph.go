package phrasegraph

// Library is the analysis output for a whole collection, as delivered by the
// feature extractor. Tracks may arrive pre-segmented or with raw features only.
type Library struct {
	Version        string          `json:"version"`
	CollectionPath string          `json:"collectionPath"`
	Tracks         []TrackAnalysis `json:"tracks"`
}

// TrackAnalysis holds the precomputed features for one track. The extractor
// owns these; they are never modified here.
type TrackAnalysis struct {
	// Path is the absolute path of the source audio file.
	Path string `json:"path"`
	// Duration of the track in seconds.
	Duration float64 `json:"duration"`
	// Tempo is the estimated tempo in beats per minute (BPM).
	// Example: 128.0
	Tempo float64 `json:"tempo"`
	// Key is one of the 12 pitch-class names (C, C#, D, ... B).
	// Empty when no key could be estimated.
	Key string `json:"key"`
	// SpectralCentroid is the average spectral centroid in Hz, a proxy for
	// perceived brightness.
	// Example: 1834.2
	SpectralCentroid float64 `json:"spectralCentroid"`
	// Beats are tracked beat times in seconds, strictly increasing.
	Beats []float64 `json:"beats"`
	// Downbeats are bar start times, every 4th beat under the 4/4 assumption.
	Downbeats []float64 `json:"downbeats"`
	// OnsetEnvelope is the onset strength (novelty) curve, one value per frame.
	OnsetEnvelope []float64 `json:"onsetEnvelope,omitempty"`
	// RMS is the frame-wise RMS energy curve, sampled like OnsetEnvelope.
	RMS []float64 `json:"rms,omitempty"`
	// SampleRate and HopLength fix the frame timing of OnsetEnvelope and RMS:
	// frame i starts at i*HopLength/SampleRate seconds. Defaults to 22050/512
	// when omitted.
	SampleRate int `json:"sampleRate,omitempty"`
	HopLength  int `json:"hopLength,omitempty"`
	// Segments, when present, is a pre-computed segmentation and boundary
	// detection is skipped for this track.
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is one contiguous, classified slice of a track. Segments of a track
// tile [0, duration) without gaps or overlap.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// Type is one of intro, verse, chorus, breakdown, drop, outro.
	Type string `json:"type"`
	// Energy is the mean RMS over the segment's frames.
	Energy float64 `json:"energy"`
	// EnergyVariance distinguishes stable sections from dynamic ones.
	EnergyVariance float64 `json:"energyVariance"`
}

// PhraseLink is a directed, weighted transition suggestion from its owning
// node to TargetID. Links are not symmetric by contract even though the
// current scoring happens to be.
type PhraseLink struct {
	TargetID string `json:"targetId"`
	// Weight is the overall compatibility in [0,1].
	Weight             float64 `json:"weight"`
	IsOriginalSequence bool    `json:"isOriginalSequence"`
	// SuggestedTransition is one of crossfade, eqSwap, filter, cut.
	SuggestedTransition string  `json:"suggestedTransition"`
	TempoScore          float64 `json:"tempoScore"`
	KeyScore            float64 `json:"keyScore"`
	EnergyScore         float64 `json:"energyScore"`
	SpectralScore       float64 `json:"spectralScore"`
}

// Waveform is an optional low-res banded waveform summary for display.
// Generation lives outside this service; the field is carried for schema
// compatibility with the playback engine.
type Waveform struct {
	Low    []float64 `json:"low"`
	Mid    []float64 `json:"mid"`
	High   []float64 `json:"high"`
	Points int       `json:"points"`
}

// PhraseNode is one navigable phrase of a track. Core attributes are set once
// by extraction; Links is assigned once by the graph builder and never
// mutated afterwards.
type PhraseNode struct {
	ID              string `json:"id"`
	SourceTrack     string `json:"sourceTrack"`
	SourceTrackName string `json:"sourceTrackName"`
	// TrackIndex is the phrase's position within its source track's segment
	// sequence and is the ordering key for original-sequence links.
	TrackIndex int `json:"trackIndex"`
	// AudioFile points at the original track; playback is gapless markers
	// into the source, not extracted clips.
	AudioFile string  `json:"audioFile"`
	Tempo     float64 `json:"tempo"`
	// Key is nil when unknown.
	Key              *string `json:"key"`
	Energy           float64 `json:"energy"`
	SpectralCentroid float64 `json:"spectralCentroid"`
	SegmentType      string  `json:"segmentType"`
	Duration         float64 `json:"duration"`
	// StartTime and EndTime are absolute positions in the source track.
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	// Beats and Downbeats are segment-relative (time since StartTime).
	Beats     []float64 `json:"beats"`
	Downbeats []float64 `json:"downbeats"`
	Waveform  *Waveform `json:"waveform"`
	Links     []PhraseLink `json:"links"`
}

// PhraseGraph is the persisted graph. Every link target resolves to a node in
// Nodes and no node links to itself.
type PhraseGraph struct {
	Version        string        `json:"version"`
	CreatedAt      string        `json:"createdAt"`
	CollectionPath string        `json:"collectionPath"`
	Nodes          []*PhraseNode `json:"nodes"`
}
