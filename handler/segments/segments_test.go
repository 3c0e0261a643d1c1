package segments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/phrasegraph/analysis"
	"github.com/mager/phrasegraph/logger"
	"github.com/mager/phrasegraph/phrasegraph"
)

func newTestHandler() *SegmentsHandler {
	log, _ := logger.NewTestLogger()
	return NewSegmentsHandler(log, analysis.NewDetector(log, phrasegraph.DefaultTunables()))
}

func TestSegmentsHandler(t *testing.T) {
	handler := newTestHandler()

	beats := make([]float64, 0, 128)
	for bt := 0.0; bt < 60; bt += 0.5 {
		beats = append(beats, bt)
	}
	track := phrasegraph.TrackAnalysis{
		Path:     "/music/t.mp3",
		Duration: 60,
		Tempo:    120,
		Beats:    beats,
	}

	payload, err := json.Marshal(track)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/track/segments", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Path != track.Path {
		t.Errorf("path = %q, want %q", resp.Path, track.Path)
	}
	if len(resp.Segments) == 0 {
		t.Fatal("no segments returned")
	}

	// Segments tile the whole track.
	if resp.Segments[0].Start != 0 {
		t.Errorf("first segment starts at %v, want 0", resp.Segments[0].Start)
	}
	last := resp.Segments[len(resp.Segments)-1]
	if last.End != track.Duration {
		t.Errorf("last segment ends at %v, want %v", last.End, track.Duration)
	}
	for i := 1; i < len(resp.Segments); i++ {
		if resp.Segments[i].Start != resp.Segments[i-1].End {
			t.Errorf("gap between segment %d and %d: %v != %v",
				i-1, i, resp.Segments[i-1].End, resp.Segments[i].Start)
		}
	}
	for _, s := range resp.Segments {
		if s.Type == "" {
			t.Errorf("segment %+v has no type", s)
		}
	}
}

func TestSegmentsHandlerErrors(t *testing.T) {
	handler := newTestHandler()

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/track/segments", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/track/segments", bytes.NewReader([]byte("{")))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}
