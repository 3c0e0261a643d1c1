package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/phrasegraph/config"
	"github.com/mager/phrasegraph/database"
	"github.com/mager/phrasegraph/logger"
)

func TestHealthHandler(t *testing.T) {
	log, _ := logger.NewTestLogger()
	db, err := database.ProvideDatabase(log, config.Config{DatabasePath: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	handler := NewHealthHandler(log, db)

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	// Check the response body
	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}

	if !resp.Server {
		t.Error("handler reported server not healthy")
	}
	if !resp.Database {
		t.Error("handler reported database not healthy")
	}
}

func TestHealthHandlerNoDatabase(t *testing.T) {
	log, _ := logger.NewTestLogger()
	handler := NewHealthHandler(log, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !resp.Server || resp.Database {
		t.Errorf("response = %+v, want server up and database down", resp)
	}
}
