package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mager/phrasegraph/config"
	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS phrase_graphs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	collection_path TEXT NOT NULL,
	node_count INTEGER NOT NULL,
	link_count INTEGER NOT NULL,
	payload TEXT NOT NULL
);`

// ProvideDatabase provides a sqlite client
func ProvideDatabase(logger *zap.SugaredLogger, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database connection", zap.Error(err))
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		logger.Error("Failed to ping database", zap.Error(err))
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		logger.Error("Failed to create schema", zap.Error(err))
		return nil, err
	}

	return db, nil
}

var Options = ProvideDatabase

// ErrNoGraph is returned by Latest when no graph has been built yet.
var ErrNoGraph = errors.New("database: no phrase graph stored")

// GraphStore persists built phrase graphs.
type GraphStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewGraphStore builds a new GraphStore.
func NewGraphStore(db *sql.DB, log *zap.SugaredLogger) *GraphStore {
	return &GraphStore{db: db, log: log}
}

var StoreOptions = NewGraphStore

// Save stores a graph and returns its row id.
func (s *GraphStore) Save(ctx context.Context, g *phrasegraph.PhraseGraph) (int64, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("database: marshal graph: %w", err)
	}

	links := 0
	for _, n := range g.Nodes {
		links += len(n.Links)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO phrase_graphs (created_at, collection_path, node_count, link_count, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		g.CreatedAt, g.CollectionPath, len(g.Nodes), links, string(payload))
	if err != nil {
		return 0, fmt.Errorf("database: insert graph: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.log.Infow("saved phrase graph", "id", id, "nodes", len(g.Nodes), "links", links)
	return id, nil
}

// Latest returns the most recently saved graph.
func (s *GraphStore) Latest(ctx context.Context) (*phrasegraph.PhraseGraph, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM phrase_graphs ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoGraph
	}
	if err != nil {
		return nil, fmt.Errorf("database: query latest graph: %w", err)
	}

	var g phrasegraph.PhraseGraph
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, fmt.Errorf("database: unmarshal graph: %w", err)
	}
	return &g, nil
}
