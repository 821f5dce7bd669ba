package logstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"design-drop/internal/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgresStore keeps the submission log in the submissions table. Rows are
// only ever inserted; List orders by the serial id, which is the append order.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to databaseURL, applies pending migrations and
// returns the store.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := OpenDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database whose schema is already current.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenDB opens a PostgreSQL connection pool and checks connectivity.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// MigrateUp applies every embedded migration not yet recorded in db.
func MigrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		src.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	// m is not closed: closing it would close db, which the caller owns.
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

const (
	insertSubmission  = `INSERT INTO submissions (name, email, ip, submitted, file_count) VALUES ($1, $2, $3, $4, $5)`
	selectSubmissions = `SELECT name, email, ip, submitted, file_count FROM submissions ORDER BY id`
)

func (s *PostgresStore) Append(ctx context.Context, rec model.Record) error {
	_, err := s.db.ExecContext(ctx, insertSubmission,
		rec.Name, rec.Email, rec.IP, rec.Timestamp, rec.FileCount)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectSubmissions)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.Name, &rec.Email, &rec.IP, &rec.Timestamp, &rec.FileCount); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := checkRecord(rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// checkRecord runs a decoded record through the same schema as log lines.
func checkRecord(rec model.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return ValidateRecord(raw)
}
