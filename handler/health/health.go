package health

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler is an http.Handler reporting service and database liveness.
type HealthHandler struct {
	log *zap.SugaredLogger
	db  *sql.DB
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, db *sql.DB) *HealthHandler {
	return &HealthHandler{
		log: log,
		db:  db,
	}
}

type Response struct {
	Server   bool `json:"server"`
	Database bool `json:"database"`
}

// ServeHTTP handles an HTTP request to the /health endpoint.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response

	h.log.Info("health check")

	resp.Server = true
	if h.db != nil && h.db.Ping() == nil {
		resp.Database = true
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
