// Package phrase turns classified segments into phrase nodes with stable
// identity.
package phrase

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/zap"
)

// Extractor builds PhraseNode records from a track's segments.
type Extractor struct {
	log *zap.SugaredLogger
}

// NewExtractor builds a new Extractor.
func NewExtractor(log *zap.SugaredLogger) *Extractor {
	return &Extractor{log: log}
}

var Options = NewExtractor

// Extract returns one node per segment, in track order. Phrases are markers
// into the original song, so every segment is kept regardless of length; only
// zero or negative duration entries are dropped. TrackIndex keeps the
// position in the full segment sequence even across dropped entries.
func (e *Extractor) Extract(t *phrasegraph.TrackAnalysis, segments []phrasegraph.Segment) []*phrasegraph.PhraseNode {
	name := filepath.Base(t.Path)

	var key *string
	if t.Key != "" {
		k := t.Key
		key = &k
	}

	nodes := make([]*phrasegraph.PhraseNode, 0, len(segments))
	for i, seg := range segments {
		duration := seg.End - seg.Start
		if duration <= 0 {
			continue
		}

		nodes = append(nodes, &phrasegraph.PhraseNode{
			ID:               uuid.NewString(),
			SourceTrack:      t.Path,
			SourceTrackName:  name,
			TrackIndex:       i,
			AudioFile:        t.Path,
			Tempo:            t.Tempo,
			Key:              key,
			Energy:           seg.Energy,
			SpectralCentroid: t.SpectralCentroid,
			SegmentType:      seg.Type,
			Duration:         duration,
			StartTime:        seg.Start,
			EndTime:          seg.End,
			Beats:            relativeTo(t.Beats, seg),
			Downbeats:        relativeTo(t.Downbeats, seg),
			Links:            []phrasegraph.PhraseLink{},
		})
	}

	e.log.Infow("extracted phrases", "track", name, "segments", len(segments), "phrases", len(nodes))
	return nodes
}

// relativeTo keeps the times inside [start, end) and shifts them to be
// segment-relative.
func relativeTo(times []float64, seg phrasegraph.Segment) []float64 {
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if t >= seg.Start && t < seg.End {
			out = append(out, t-seg.Start)
		}
	}
	return out
}
