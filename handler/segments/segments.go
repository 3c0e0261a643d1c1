package segments

import (
	"encoding/json"
	"net/http"

	"github.com/mager/phrasegraph/analysis"
	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/zap"
)

// SegmentsHandler is an http.Handler that runs boundary detection on a single
// track's features, for inspecting segmentation without a full graph build.
type SegmentsHandler struct {
	log      *zap.SugaredLogger
	detector *analysis.Detector
}

func (*SegmentsHandler) Pattern() string {
	return "/track/segments"
}

// NewSegmentsHandler builds a new SegmentsHandler.
func NewSegmentsHandler(log *zap.SugaredLogger, detector *analysis.Detector) *SegmentsHandler {
	return &SegmentsHandler{
		log:      log,
		detector: detector,
	}
}

type Response struct {
	Path     string                `json:"path"`
	Segments []phrasegraph.Segment `json:"segments"`
}

// ServeHTTP handles an HTTP request to the /track/segments endpoint.
func (h *SegmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var track phrasegraph.TrackAnalysis
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		h.log.Warnw("invalid segments request", "error", err)
		http.Error(w, "invalid track payload", http.StatusBadRequest)
		return
	}

	segs := h.detector.Segments(&track)
	h.log.Infow("segmented track", "track", track.Path, "segments", len(segs))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{Path: track.Path, Segments: segs})
}
