package graph

import (
	"encoding/json"
	"net/http"

	"github.com/mager/phrasegraph/analysis"
	"github.com/mager/phrasegraph/config"
	"github.com/mager/phrasegraph/database"
	graphbuilder "github.com/mager/phrasegraph/graph"
	"github.com/mager/phrasegraph/phrase"
	"github.com/mager/phrasegraph/phrasegraph"
	"github.com/mager/phrasegraph/util"
	"go.uber.org/zap"
)

// BuildGraphHandler is an http.Handler that runs the full pipeline: resolve
// segments per track, extract phrases, build and validate the compatibility
// graph, persist it.
type BuildGraphHandler struct {
	log       *zap.SugaredLogger
	detector  *analysis.Detector
	extractor *phrase.Extractor
	builder   *graphbuilder.Builder
	store     *database.GraphStore
	cfg       config.Config
}

func (*BuildGraphHandler) Pattern() string {
	return "/graph/build"
}

// NewBuildGraphHandler builds a new BuildGraphHandler.
func NewBuildGraphHandler(
	log *zap.SugaredLogger,
	detector *analysis.Detector,
	extractor *phrase.Extractor,
	builder *graphbuilder.Builder,
	store *database.GraphStore,
	cfg config.Config,
) *BuildGraphHandler {
	return &BuildGraphHandler{
		log:       log,
		detector:  detector,
		extractor: extractor,
		builder:   builder,
		store:     store,
		cfg:       cfg,
	}
}

type BuildGraphResponse struct {
	GraphID               int64          `json:"graphId"`
	Tracks                int            `json:"tracks"`
	SkippedTracks         int            `json:"skippedTracks"`
	Nodes                 int            `json:"nodes"`
	Links                 int            `json:"links"`
	OriginalSequenceLinks int            `json:"originalSequenceLinks"`
	SegmentTypes          map[string]int `json:"segmentTypes"`
	MinLinksPerPhrase     int            `json:"minLinksPerPhrase"`
	MaxLinksPerPhrase     int            `json:"maxLinksPerPhrase"`
	AvgLinksPerPhrase     float64        `json:"avgLinksPerPhrase"`
	TempoMin              float64        `json:"tempoMin"`
	TempoMax              float64        `json:"tempoMax"`
	GraphPath             string         `json:"graphPath,omitempty"`
}

// ServeHTTP handles an HTTP request to the /graph/build endpoint. The body is
// the feature extractor's library analysis JSON. A track that yields no
// usable segments is skipped and the build continues.
func (h *BuildGraphHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var lib phrasegraph.Library
	if err := json.NewDecoder(r.Body).Decode(&lib); err != nil {
		h.log.Warnw("invalid build request", "error", err)
		http.Error(w, "invalid analysis payload", http.StatusBadRequest)
		return
	}
	if len(lib.Tracks) == 0 {
		http.Error(w, "no tracks in analysis", http.StatusBadRequest)
		return
	}

	h.log.Infow("building phrase graph", "collection", lib.CollectionPath, "tracks", len(lib.Tracks))

	var nodes []*phrasegraph.PhraseNode
	skipped := 0
	for i := range lib.Tracks {
		t := &lib.Tracks[i]
		if len(t.Downbeats) == 0 {
			t.Downbeats = analysis.Downbeats(t.Beats)
		}
		segments := h.detector.Segments(t)
		if len(segments) == 0 {
			h.log.Warnw("no segments for track, skipping", "track", t.Path)
			skipped++
			continue
		}
		nodes = append(nodes, h.extractor.Extract(t, segments)...)
	}
	if len(nodes) == 0 {
		http.Error(w, "no phrases extracted", http.StatusUnprocessableEntity)
		return
	}

	g := h.builder.Build(lib.CollectionPath, nodes)
	if err := graphbuilder.Validate(g); err != nil {
		h.log.Errorw("graph failed validation", "error", err)
		http.Error(w, "graph failed validation", http.StatusInternalServerError)
		return
	}

	id, err := h.store.Save(r.Context(), g)
	if err != nil {
		h.log.Errorw("failed to save graph", "error", err)
		http.Error(w, "failed to save graph", http.StatusInternalServerError)
		return
	}

	resp := BuildGraphResponse{
		GraphID:       id,
		Tracks:        len(lib.Tracks) - skipped,
		SkippedTracks: skipped,
		Nodes:         len(nodes),
		SegmentTypes:  util.SegmentTypeCounts(nodes),
	}
	resp.Links, resp.OriginalSequenceLinks = util.CountLinks(nodes)
	resp.MinLinksPerPhrase, resp.MaxLinksPerPhrase, resp.AvgLinksPerPhrase = util.LinksPerPhrase(nodes)
	resp.TempoMin, resp.TempoMax = util.TempoRange(nodes)

	if h.cfg.GraphPath != "" {
		if err := graphbuilder.WriteFile(h.cfg.GraphPath, g); err != nil {
			h.log.Errorw("failed to write graph file", "error", err)
			http.Error(w, "failed to write graph file", http.StatusInternalServerError)
			return
		}
		resp.GraphPath = h.cfg.GraphPath
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
