// Package cardlib loads card definitions from files or PostgreSQL.
package cardlib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
)

// ErrEmptyLibrary is returned when a source yields no usable definition.
var ErrEmptyLibrary = errors.New("card library is empty")

// Source yields raw definition entries, one per card.
type Source interface {
	Entries(ctx context.Context) ([]json.RawMessage, error)
	String() string
}

// Open returns the source selected by cfg. Postgres sources own a pool the
// caller must release with Close.
func Open(ctx context.Context, cfg config.LibraryConfig) (Source, error) {
	switch cfg.Source {
	case "", "file":
		return &FileSource{Path: cfg.Path}, nil
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown library source %q", cfg.Source)
	}
}

// Load opens the configured source and builds a library from it. Rejected
// entries are logged and skipped.
func Load(ctx context.Context, cfg config.LibraryConfig, logger *zap.Logger) (*carddef.Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := src.(interface{ Close() }); ok {
		defer closer.Close()
	}
	return FromSource(ctx, src, logger)
}

// FromSource builds a library from src.
func FromSource(ctx context.Context, src Source, logger *zap.Logger) (*carddef.Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}
	lib, rejected := carddef.Build(entries, logger)
	if lib.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyLibrary, src)
	}
	logger.Info("card library loaded",
		zap.Stringer("source", src),
		zap.Int("cards", lib.Len()),
		zap.Int("rejected", len(rejected)))
	return lib, nil
}
