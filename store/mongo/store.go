package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

const colJobs = "plangen_jobs"

var _ job.Store = (*Store)(nil)

// Store is a MongoDB implementation of job.Store.
// The caller owns the client lifecycle; Store never closes it.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new MongoDB store on the given database handle.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the indexes the job collection needs.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []mongod.IndexModel{
		// Status index for claim and liveness queries.
		{Keys: bson.D{{Key: "status", Value: 1}}},
		// Stall index: non-terminal jobs ordered by last write.
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "updated_at", Value: 1},
		}},
	}

	_, err := s.db.Collection(colJobs).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("plangen/mongo: migrate %s indexes: %w", colJobs, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close is a no-op because the caller owns the client lifecycle.
func (s *Store) Close() error {
	return nil
}

// ── helpers ──────────────────────────────────────────────────────

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "E11000")
}

// terminalStatuses is the $nin filter value guarding terminal documents.
var terminalStatuses = []string{
	string(job.StatusDone),
	string(job.StatusError),
}
