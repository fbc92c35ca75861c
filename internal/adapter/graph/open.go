package graph

import (
	"context"
	"fmt"
	"strings"

	"careerpath/config"
	"careerpath/internal/port"
)

// Open connects the backend selected by cfg.Backend. dataDir anchors the
// relative bolt path.
func Open(ctx context.Context, cfg config.GraphConfig, dataDir string) (port.GraphStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "bolt":
		s, err := NewBoltStore(config.ResolvePath(dataDir, cfg.Path))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "neo4j":
		uri := cfg.URI
		if uri == "" {
			uri = config.Secret(cfg.URIEnv)
		}
		username := cfg.Username
		if username == "" {
			username = "neo4j"
		}
		s, err := NewNeo4jStore(ctx, uri, username, config.Secret(cfg.PasswordEnv), cfg.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		s, err := NewPostgresStore(ctx, config.Secret(cfg.DSNEnv))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown graph backend: %s", cfg.Backend)
	}
}
