// Package analysis turns a track's precomputed features into phrase
// boundaries and classified segments.
package analysis

import (
	"math"
	"sort"

	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/zap"
)

// Frame timing defaults when the feature source omits them.
const (
	defaultSampleRate = 22050
	defaultHopLength  = 512
)

// Detector finds phrase boundaries in a single track. It is stateless across
// calls and safe to share.
type Detector struct {
	log *zap.SugaredLogger
	tun phrasegraph.Tunables
}

// NewDetector builds a new Detector.
func NewDetector(log *zap.SugaredLogger, tun phrasegraph.Tunables) *Detector {
	return &Detector{
		log: log,
		tun: tun,
	}
}

var Options = NewDetector

// Segments resolves a track to its segment list. Pre-segmented input is used
// as-is (malformed entries with end <= start are skipped, the rest of the
// track survives); raw-feature input runs boundary detection and
// classification.
func (d *Detector) Segments(t *phrasegraph.TrackAnalysis) []phrasegraph.Segment {
	if len(t.Segments) > 0 {
		out := make([]phrasegraph.Segment, 0, len(t.Segments))
		for _, s := range t.Segments {
			if s.End <= s.Start {
				d.log.Warnw("skipping malformed segment",
					"track", t.Path, "start", s.Start, "end", s.End)
				continue
			}
			out = append(out, s)
		}
		return out
	}

	if t.Duration <= 0 {
		return []phrasegraph.Segment{{Start: 0, End: t.Duration, Type: "intro", Energy: 0.5}}
	}

	return d.classifySegments(t, d.Boundaries(t))
}

// Boundaries returns the sorted, deduplicated phrase boundary times for a
// track, spanning [0, duration]. Bar-anchored boundaries come first; novelty
// peaks refine them; overlong gaps get subdivided.
func (d *Detector) Boundaries(t *phrasegraph.TrackAnalysis) []float64 {
	downbeats := barStarts(t.Beats)
	bars := barsPerPhrase(t.Beats)
	fd := frameDuration(t)

	bounds := everyNth(downbeats, bars)

	// Novelty refinement: smooth the onset envelope over ~2s and pick
	// prominent, well-separated peaks as structural transitions.
	window := int(2.0 / fd)
	smooth := movingAverage(t.OnsetEnvelope, window)
	for _, peak := range d.noveltyPeaks(smooth, fd) {
		if minDistance(bounds, peak) <= 2.0 {
			continue
		}
		if db, ok := nearest(downbeats, peak); ok && math.Abs(db-peak) < 1.0 {
			bounds = append(bounds, db)
		} else {
			bounds = append(bounds, peak)
		}
	}

	sort.Float64s(bounds)
	for len(bounds) > 0 && bounds[len(bounds)-1] > t.Duration {
		bounds = bounds[:len(bounds)-1]
	}

	// The segment tiling must cover [0, duration) exactly: snap the outermost
	// boundaries when they are within 2s of the track edges, insert otherwise.
	if len(bounds) == 0 || bounds[0] > 2.0 {
		bounds = append([]float64{0}, bounds...)
	} else {
		bounds[0] = 0
	}
	if last := bounds[len(bounds)-1]; last < t.Duration-2.0 || len(bounds) < 2 {
		bounds = append(bounds, t.Duration)
	} else {
		bounds[len(bounds)-1] = t.Duration
	}

	bounds = d.subdivide(bounds, downbeats)

	sort.Float64s(bounds)
	return dedupe(bounds)
}

// subdivide splits any gap longer than the ceiling into ceil(gap/target)
// equal pieces, snapping each split point to a downbeat within 2s.
func (d *Detector) subdivide(bounds, downbeats []float64) []float64 {
	out := make([]float64, 0, len(bounds))
	for i := range bounds {
		out = append(out, bounds[i])
		if i == len(bounds)-1 {
			break
		}
		gap := bounds[i+1] - bounds[i]
		if gap <= d.tun.SplitCeiling {
			continue
		}
		pieces := int(math.Ceil(gap / d.tun.SplitTarget))
		for j := 1; j < pieces; j++ {
			split := bounds[i] + gap*float64(j)/float64(pieces)
			if db, ok := nearest(downbeats, split); ok && math.Abs(db-split) < 2.0 {
				split = db
			}
			out = append(out, split)
		}
	}
	return out
}

// noveltyPeaks picks structural peaks from the smoothed onset envelope:
// above mean + sigma*stddev, a local maximum within a +/-10 frame window
// (at 95% tolerance), and at least MinPeakSpacing from the previous peak.
func (d *Detector) noveltyPeaks(env []float64, fd float64) []float64 {
	if len(env) == 0 {
		return nil
	}
	m := mean(env)
	threshold := m + d.tun.NoveltyPeakSigma*stddev(env, m)
	minDist := int(d.tun.MinPeakSpacing / fd)
	if minDist < 1 {
		minDist = 1
	}

	var peaks []float64
	last := -minDist
	for i := minDist; i < len(env)-minDist; i++ {
		if env[i] <= threshold || i-last < minDist {
			continue
		}
		lo, hi := i-10, i+10
		if lo < 0 {
			lo = 0
		}
		if hi > len(env) {
			hi = len(env)
		}
		windowMax := 0.0
		for j := lo; j < hi; j++ {
			if env[j] > windowMax {
				windowMax = env[j]
			}
		}
		if env[i] >= windowMax*0.95 {
			peaks = append(peaks, float64(i)*fd)
			last = i
		}
	}
	return peaks
}

func (d *Detector) classifySegments(t *phrasegraph.TrackAnalysis, bounds []float64) []phrasegraph.Segment {
	fd := frameDuration(t)
	trackMean := mean(t.RMS)

	segs := make([]phrasegraph.Segment, 0, len(bounds))
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]

		lo := int(start / fd)
		hi := int(end / fd)
		if hi > len(t.RMS) {
			hi = len(t.RMS)
		}
		energy, variance := 0.5, 0.0
		if lo >= 0 && lo < hi {
			frames := t.RMS[lo:hi]
			energy = mean(frames)
			sd := stddev(frames, energy)
			variance = sd * sd
		}

		segs = append(segs, phrasegraph.Segment{
			Start:          start,
			End:            end,
			Type:           classify(start, t.Duration, energy, variance, trackMean),
			Energy:         energy,
			EnergyVariance: variance,
		})
	}
	return segs
}

// classify labels a segment from its position and relative energy. Position
// checks run first: the opening and closing tenths of a track are intro and
// outro no matter how loud they are.
func classify(start, duration, energy, variance, trackMean float64) string {
	position := 0.0
	if duration > 0 {
		position = start / duration
	}
	energyRatio := energy / (trackMean + 1e-6)

	switch {
	case position < 0.1:
		return "intro"
	case position > 0.9:
		return "outro"
	case energyRatio < 0.6 && variance < 0.01:
		return "breakdown"
	case energyRatio > 1.3:
		return "drop"
	case energyRatio > 1.0:
		return "chorus"
	default:
		return "verse"
	}
}

// Downbeats derives bar start times from the beat grid under a 4/4
// assumption: every 4th beat, or every beat when there are fewer than 4.
func Downbeats(beats []float64) []float64 {
	if len(beats) < 4 {
		out := make([]float64, len(beats))
		copy(out, beats)
		return out
	}
	return everyNth(beats, 4)
}

// barStarts is Downbeats with a fallback anchor at time 0 for beatless
// tracks, so boundary detection always has something to snap to.
func barStarts(beats []float64) []float64 {
	if len(beats) == 0 {
		return []float64{0}
	}
	return Downbeats(beats)
}

// barsPerPhrase picks the phrase length in bars from the tempo implied by the
// beat grid: above 150 BPM a bar is short enough that 16 bars still lands in
// the 8-30s target, everything else gets 8.
func barsPerPhrase(beats []float64) int {
	if len(beats) < 8 {
		return 8
	}
	var sum float64
	for i := 1; i < len(beats); i++ {
		sum += beats[i] - beats[i-1]
	}
	interval := sum / float64(len(beats)-1)
	if interval <= 0 {
		return 8
	}
	if 60.0/interval > 150 {
		return 16
	}
	return 8
}

func frameDuration(t *phrasegraph.TrackAnalysis) float64 {
	sr := t.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	hop := t.HopLength
	if hop <= 0 {
		hop = defaultHopLength
	}
	return float64(hop) / float64(sr)
}

func everyNth(xs []float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, 0, len(xs)/n+1)
	for i := 0; i < len(xs); i += n {
		out = append(out, xs[i])
	}
	return out
}

// movingAverage is a centered, zero-padded moving mean; input shorter than
// the window is returned unsmoothed.
func movingAverage(x []float64, w int) []float64 {
	if w <= 1 || len(x) <= w {
		return x
	}
	out := make([]float64, len(x))
	shift := (w - 1) / 2
	for i := range x {
		lo := i + shift - w + 1
		hi := i + shift
		if lo < 0 {
			lo = 0
		}
		if hi > len(x)-1 {
			hi = len(x) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(w)
	}
	return out
}

// nearest returns the value in xs closest to target.
func nearest(xs []float64, target float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	best := xs[0]
	for _, x := range xs[1:] {
		if math.Abs(x-target) < math.Abs(best-target) {
			best = x
		}
	}
	return best, true
}

func minDistance(xs []float64, target float64) float64 {
	best := math.Inf(1)
	for _, x := range xs {
		if d := math.Abs(x - target); d < best {
			best = d
		}
	}
	return best
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for i, x := range sorted {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
