package graph

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mager/phrasegraph/database"
	"go.uber.org/zap"
)

// GetGraphHandler is an http.Handler serving the most recently built graph.
type GetGraphHandler struct {
	log   *zap.SugaredLogger
	store *database.GraphStore
}

func (*GetGraphHandler) Pattern() string {
	return "/graph"
}

// NewGetGraphHandler builds a new GetGraphHandler.
func NewGetGraphHandler(log *zap.SugaredLogger, store *database.GraphStore) *GetGraphHandler {
	return &GetGraphHandler{
		log:   log,
		store: store,
	}
}

// ServeHTTP handles an HTTP request to the /graph endpoint.
func (h *GetGraphHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.Latest(r.Context())
	if errors.Is(err, database.ErrNoGraph) {
		http.Error(w, "no graph built yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorw("failed to load graph", "error", err)
		http.Error(w, "failed to load graph", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}
