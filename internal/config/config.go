// Package config assembles and validates the runtime configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator"

	"github.com/OFFIS-RIT/wikigraph/internal/util"
)

const (
	AdapterNeo4j    = "neo4j"
	AdapterPostgres = "postgres"
)

// Config carries every knob of an ingestion run.
type Config struct {
	// IDPolicy selects identifier assignment: content-hash or time-ordered.
	IDPolicy string `validate:"oneof=content-hash time-ordered"`

	BatchSize int `validate:"gt=0"`
	Workers   int `validate:"gt=0"`
	// Window bounds batches handed off but not yet picked up by a worker.
	Window int `validate:"gt=0"`

	// StoreAdapter selects the graph store backend.
	StoreAdapter string `validate:"oneof=neo4j postgres"`
	ConnectTries int    `validate:"gt=0"`
	ConnectDelay time.Duration

	// Neo4j settings, used when StoreAdapter is neo4j.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// DatabaseURL is the postgres connection string, used when StoreAdapter
	// is postgres.
	DatabaseURL string

	// Port is the explorer listen port.
	Port string

	Debug bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		IDPolicy:     util.GetEnvString("ID_POLICY", "content-hash"),
		BatchSize:    util.GetEnvInt("BATCH_SIZE", 10_000),
		Workers:      util.GetEnvInt("WORKERS", 10),
		Window:       util.GetEnvInt("IN_FLIGHT_WINDOW", util.GetEnvInt("WORKERS", 10)),
		StoreAdapter: util.GetEnvString("STORE_ADAPTER", AdapterNeo4j),
		ConnectTries: util.GetEnvInt("STORE_CONNECT_TRIES", 5),
		ConnectDelay: time.Duration(util.GetEnvInt("STORE_CONNECT_DELAY_MS", 2000)) * time.Millisecond,

		Neo4jURI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase: util.GetEnv("NEO4J_DATABASE"),

		DatabaseURL: util.GetEnv("DATABASE_URL"),

		Port:  util.GetEnvString("PORT", "8080"),
		Debug: util.GetEnvBool("DEBUG", false),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.StoreAdapter == AdapterPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("invalid configuration: DATABASE_URL required for the postgres adapter")
	}
	return cfg, nil
}
