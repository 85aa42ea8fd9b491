package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// RegistryStore records worker registrations for audit. The coordinator's
// live membership is in-memory only; the store is an optional mirror.
type RegistryStore interface {
	SaveWorker(ctx context.Context, req *federation.RegisterRequest) error
	DeleteWorker(ctx context.Context, workerID string) error
	LoadAllWorkers(ctx context.Context) ([]federation.RegisterRequest, error)
}

// PostgresStore implements RegistryStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Database string `env:"POSTGRES_DB" envDefault:"agrismart"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS registered_workers (
		worker_id VARCHAR(128) PRIMARY KEY,
		endpoint VARCHAR(512) NOT NULL,
		train_samples INTEGER NOT NULL,
		eval_samples INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_workers_created ON registered_workers(created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveWorker persists a worker registration, replacing any previous row for
// the same worker ID.
func (s *PostgresStore) SaveWorker(ctx context.Context, req *federation.RegisterRequest) error {
	query := `
	INSERT INTO registered_workers
		(worker_id, endpoint, train_samples, eval_samples, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (worker_id) DO UPDATE SET
		endpoint = EXCLUDED.endpoint,
		train_samples = EXCLUDED.train_samples,
		eval_samples = EXCLUDED.eval_samples,
		updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		req.WorkerID,
		req.Endpoint,
		req.TrainSamples,
		req.EvalSamples,
	)
	return err
}

// DeleteWorker removes a worker registration.
func (s *PostgresStore) DeleteWorker(ctx context.Context, workerID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM registered_workers WHERE worker_id = $1", workerID)
	return err
}

// LoadAllWorkers retrieves all persisted worker registrations.
func (s *PostgresStore) LoadAllWorkers(ctx context.Context) ([]federation.RegisterRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, endpoint, train_samples, eval_samples
		FROM registered_workers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []federation.RegisterRequest
	for rows.Next() {
		var req federation.RegisterRequest
		if err := rows.Scan(&req.WorkerID, &req.Endpoint, &req.TrainSamples, &req.EvalSamples); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		workers = append(workers, req)
	}

	return workers, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InMemoryStore implements RegistryStore for testing without a database.
type InMemoryStore struct {
	mu      sync.Mutex
	workers map[string]federation.RegisterRequest
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{workers: make(map[string]federation.RegisterRequest)}
}

// SaveWorker stores a registration in memory.
func (s *InMemoryStore) SaveWorker(ctx context.Context, req *federation.RegisterRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[req.WorkerID] = *req
	return nil
}

// DeleteWorker removes a registration from memory.
func (s *InMemoryStore) DeleteWorker(ctx context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workers, workerID)
	return nil
}

// LoadAllWorkers returns all stored registrations.
func (s *InMemoryStore) LoadAllWorkers(ctx context.Context) ([]federation.RegisterRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workers := make([]federation.RegisterRequest, 0, len(s.workers))
	for _, req := range s.workers {
		workers = append(workers, req)
	}
	return workers, nil
}
