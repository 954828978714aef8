package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunTransform represents the transforms table for Bun ORM
type BunTransform struct {
	bun.BaseModel `bun:"table:transforms,alias:t"`

	ID         int       `bun:"id,pk,autoincrement"`
	ULID       string    `bun:"ulid,notnull,unique"` // Stored as string in DB
	Operation  string    `bun:"operation,notnull"`
	InputNames string    `bun:"input_names,notnull"`
	OutputName string    `bun:"output_name,nullzero"`
	OutputSize int64     `bun:"output_size,default:0"`
	Status     string    `bun:"status,notnull"`
	ErrorKind  string    `bun:"error_kind,nullzero"`
	Detail     string    `bun:"detail,nullzero"`
	DurationMS int64     `bun:"duration_ms,default:0"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToTransform converts BunTransform to Transform
func (bt *BunTransform) ToTransform() (*Transform, error) {
	parsedULID, err := ulid.Parse(bt.ULID)
	if err != nil {
		return nil, err
	}

	return &Transform{
		ID:         bt.ID,
		ULID:       parsedULID,
		Operation:  bt.Operation,
		InputNames: bt.InputNames,
		OutputName: bt.OutputName,
		OutputSize: bt.OutputSize,
		Status:     TransformStatus(bt.Status),
		ErrorKind:  bt.ErrorKind,
		Detail:     bt.Detail,
		DurationMS: bt.DurationMS,
		CreatedAt:  bt.CreatedAt,
	}, nil
}

// FromTransform converts Transform to BunTransform
func FromTransform(rec *Transform) *BunTransform {
	return &BunTransform{
		ID:         rec.ID,
		ULID:       rec.ULID.String(),
		Operation:  rec.Operation,
		InputNames: rec.InputNames,
		OutputName: rec.OutputName,
		OutputSize: rec.OutputSize,
		Status:     string(rec.Status),
		ErrorKind:  rec.ErrorKind,
		Detail:     rec.Detail,
		DurationMS: rec.DurationMS,
		CreatedAt:  rec.CreatedAt,
	}
}
