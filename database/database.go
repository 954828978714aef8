package database

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// TransformStatus is the terminal state of a recorded transformation
type TransformStatus string

const (
	StatusCompleted TransformStatus = "completed"
	StatusFailed    TransformStatus = "failed"
)

// Transform is one transformation request recorded for the history view.
// Failed requests are recorded too; they carry the error kind instead of an
// output artifact.
type Transform struct {
	ID         int
	ULID       ulid.ULID // request id, also used in URLs
	Operation  string    // merge, split, convert, ...
	InputNames string    // comma-joined original file names
	OutputName string
	OutputSize int64
	Status     TransformStatus
	ErrorKind  string // taxonomy kind for failed requests
	Detail     string // JSON-encoded result metadata
	DurationMS int64
	CreatedAt  time.Time
}

// Repository defines database operations
type Repository interface {
	Close() error
	SaveTransform(rec *Transform) error
	GetTransformByULID(ulid string) (*Transform, error)
	GetRecentTransforms(limit int) ([]Transform, error)
	GetRecentTransformsWithPagination(page int, pageSize int) ([]Transform, int, error)
	CountTransforms() (int, error)
	DeleteTransformsOlderThan(olderThan time.Duration) (int, error)
}
