// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stockflow/pkg/persistence"
	"github.com/dukex/stockflow/pkg/persistence/file"
	"github.com/dukex/stockflow/pkg/persistence/postgresql"
	"github.com/dukex/stockflow/pkg/persistence/redis"
)

var supportedPersistenceProviders = map[string]string{
	"file":       "file",
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"redis":      "redis",
	"rediss":     "redis",
}

// NewPersistence opens the backend named by the scheme of databaseURL. A
// URL without a scheme is a directory for file persistence.
//
// nolint:ireturn
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, err := parsePersistenceProvider(databaseURL)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	switch provider {
	case "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}

		return p, nil
	case "redis":
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) (string, error) {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", nil
	}

	provider, ok := supportedPersistenceProviders[strings.ToLower(scheme)]
	if !ok {
		return "", fmt.Errorf("unsupported persistence provider: %s", scheme)
	}

	return provider, nil
}
