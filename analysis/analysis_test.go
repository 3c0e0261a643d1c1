package analysis

import (
	"math"
	"testing"

	"github.com/mager/phrasegraph/logger"
	"github.com/mager/phrasegraph/phrasegraph"
)

func newTestDetector() *Detector {
	log, _ := logger.NewTestLogger()
	return NewDetector(log, phrasegraph.DefaultTunables())
}

// beatsAt returns a beat grid covering [0, duration] at the given BPM.
func beatsAt(bpm, duration float64) []float64 {
	interval := 60.0 / bpm
	var beats []float64
	for t := 0.0; t <= duration; t += interval {
		beats = append(beats, t)
	}
	return beats
}

func constFrames(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// frames for a given number of seconds at the default 22050/512 timing.
func frameCount(seconds float64) int {
	return int(seconds * float64(defaultSampleRate) / float64(defaultHopLength))
}

func checkTiling(t *testing.T, segs []phrasegraph.Segment, duration float64) {
	t.Helper()
	if len(segs) == 0 {
		t.Fatal("no segments")
	}
	if segs[0].Start != 0 {
		t.Errorf("first segment starts at %v, want 0", segs[0].Start)
	}
	if math.Abs(segs[len(segs)-1].End-duration) > 1e-9 {
		t.Errorf("last segment ends at %v, want %v", segs[len(segs)-1].End, duration)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start != segs[i-1].End {
			t.Errorf("segment %d starts at %v, previous ends at %v", i, segs[i].Start, segs[i-1].End)
		}
	}
	for _, s := range segs {
		if s.End <= s.Start {
			t.Errorf("segment [%v, %v] has non-positive duration", s.Start, s.End)
		}
	}
}

func TestSegmentsTileTrack(t *testing.T) {
	d := newTestDetector()
	track := &phrasegraph.TrackAnalysis{
		Path:          "/music/test.mp3",
		Duration:      180,
		Tempo:         128,
		Beats:         beatsAt(128, 180),
		OnsetEnvelope: constFrames(0, frameCount(180)),
		RMS:           constFrames(0.3, frameCount(180)),
	}

	checkTiling(t, d.Segments(track), 180)
}

func TestSegmentsNoBeats(t *testing.T) {
	d := newTestDetector()
	track := &phrasegraph.TrackAnalysis{
		Path:     "/music/ambient.mp3",
		Duration: 20,
	}

	segs := d.Segments(track)
	checkTiling(t, segs, 20)
}

func TestSegmentsZeroDuration(t *testing.T) {
	d := newTestDetector()
	segs := d.Segments(&phrasegraph.TrackAnalysis{Path: "/music/empty.mp3"})

	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 0 {
		t.Errorf("got segment [%v, %v], want [0, 0]", segs[0].Start, segs[0].End)
	}
}

func TestSegmentsPreSegmented(t *testing.T) {
	d := newTestDetector()
	track := &phrasegraph.TrackAnalysis{
		Path:     "/music/done.mp3",
		Duration: 30,
		Segments: []phrasegraph.Segment{
			{Start: 0, End: 15, Type: "intro", Energy: 0.2},
			{Start: 20, End: 20, Type: "verse", Energy: 0.5},  // zero duration
			{Start: 25, End: 15, Type: "chorus", Energy: 0.7}, // end before start
			{Start: 15, End: 30, Type: "outro", Energy: 0.3},
		},
	}

	segs := d.Segments(track)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2 (malformed entries skipped)", len(segs))
	}
	if segs[0].Type != "intro" || segs[1].Type != "outro" {
		t.Errorf("unexpected segment types: %v, %v", segs[0].Type, segs[1].Type)
	}
}

func TestBoundariesNoveltyPeakSnapsToDownbeat(t *testing.T) {
	d := newTestDetector()

	// 120 BPM for 60s: downbeats every 2s, 8-bar phrases every 16s.
	env := constFrames(0, frameCount(60))
	for i := 1020; i < 1060; i++ { // burst around 23.7s
		env[i] = 1.0
	}
	track := &phrasegraph.TrackAnalysis{
		Path:          "/music/peaky.mp3",
		Duration:      60,
		Tempo:         120,
		Beats:         beatsAt(120, 60),
		OnsetEnvelope: env,
		RMS:           constFrames(0.3, frameCount(60)),
	}

	bounds := d.Boundaries(track)
	want := []float64{0, 16, 24, 32, 48, 60}
	if len(bounds) != len(want) {
		t.Fatalf("got boundaries %v, want %v", bounds, want)
	}
	for i := range want {
		if math.Abs(bounds[i]-want[i]) > 1e-9 {
			t.Fatalf("got boundaries %v, want %v", bounds, want)
		}
	}
}

func TestBoundariesSubdivideLongGap(t *testing.T) {
	d := newTestDetector()
	track := &phrasegraph.TrackAnalysis{
		Path:     "/music/drone.mp3",
		Duration: 100,
	}

	// No beats and no novelty: one 100s gap split into ceil(100/15) = 7 pieces.
	bounds := d.Boundaries(track)
	if len(bounds) != 8 {
		t.Fatalf("got %d boundaries (%v), want 8", len(bounds), bounds)
	}
	segs := d.Segments(track)
	checkTiling(t, segs, 100)
	for _, s := range segs {
		if s.End-s.Start > d.tun.SplitCeiling {
			t.Errorf("segment [%v, %v] longer than split ceiling", s.Start, s.End)
		}
	}
}

func TestBarsPerPhrase(t *testing.T) {
	tests := []struct {
		name  string
		beats []float64
		want  int
	}{
		{name: "140 BPM stays at 8 bars", beats: beatsAt(140, 60), want: 8},
		{name: "160 BPM doubles to 16 bars", beats: beatsAt(160, 60), want: 16},
		{name: "too few beats defaults to 8", beats: []float64{0, 0.4, 0.8}, want: 8},
		{name: "no beats defaults to 8", beats: nil, want: 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := barsPerPhrase(tc.beats); got != tc.want {
				t.Errorf("barsPerPhrase = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		energy    float64
		variance  float64
		trackMean float64
		want      string
	}{
		{name: "opening tenth is intro", start: 5, energy: 0.9, variance: 0.5, trackMean: 0.3, want: "intro"},
		{name: "closing tenth is outro", start: 95, energy: 0.1, variance: 0, trackMean: 0.3, want: "outro"},
		{name: "quiet and stable is breakdown", start: 50, energy: 0.1, variance: 0.001, trackMean: 0.3, want: "breakdown"},
		{name: "quiet but dynamic is verse", start: 50, energy: 0.1, variance: 0.05, trackMean: 0.3, want: "verse"},
		{name: "very loud is drop", start: 50, energy: 0.45, variance: 0.02, trackMean: 0.3, want: "drop"},
		{name: "above average is chorus", start: 50, energy: 0.35, variance: 0.02, trackMean: 0.3, want: "chorus"},
		{name: "average is verse", start: 50, energy: 0.3, variance: 0.02, trackMean: 0.3, want: "verse"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.start, 100, tc.energy, tc.variance, tc.trackMean)
			if got != tc.want {
				t.Errorf("classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDownbeats(t *testing.T) {
	beats := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5}
	got := Downbeats(beats)
	want := []float64{0, 2}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Downbeats = %v, want %v", got, want)
	}

	if got := Downbeats([]float64{0, 1}); len(got) != 2 {
		t.Errorf("short grid should keep all beats, got %v", got)
	}
	if got := Downbeats(nil); len(got) != 0 {
		t.Errorf("empty grid should stay empty, got %v", got)
	}
}

func TestMovingAverageShortInput(t *testing.T) {
	in := []float64{1, 2, 3}
	if got := movingAverage(in, 10); len(got) != 3 || got[0] != 1 {
		t.Errorf("short input should be returned unsmoothed, got %v", got)
	}
}
