package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr   string
	DatabasePath string
	GraphPath    string
}

func ProvideConfig() Config {
	var cfg Config
	err := envconfig.Process("phrasegraph", &cfg)
	if err != nil {
		log.Fatal(err.Error())
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "phrasegraph.db"
	}
	if cfg.GraphPath == "" {
		cfg.GraphPath = "phrase_graph.json"
	}
	return cfg
}

var Options = ProvideConfig
