// Package logstore persists one record per accepted submission in an
// append-only log and reads the log back for the admin listing.
//
// Three backends are available. The file backend appends newline-terminated
// JSON to a local file opened in append mode, so each record lands as one
// whole line even with concurrent writers. The Postgres and Redis backends
// serve deployments with more than one process writing the same log.
package logstore

import (
	"context"
	"errors"
	"fmt"

	"design-drop/internal/config"
	"design-drop/internal/model"
)

// Store is an append-only submission log.
type Store interface {
	// Append durably adds one record. It never rewrites earlier records.
	Append(ctx context.Context, rec model.Record) error
	// List returns every record in append order. An empty or missing log
	// yields an empty slice; a malformed record yields an error.
	List(ctx context.Context) ([]model.Record, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// ErrMalformedRecord is returned by List when a stored record cannot be
// decoded or fails schema validation.
var ErrMalformedRecord = errors.New("malformed submission record")

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreFile, "":
		return NewFileStore(cfg.Path), nil
	case config.StorePostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
