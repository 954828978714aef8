package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/drummonds/goPDFTools/config"
)

// BunDB implements Repository using Bun ORM
type BunDB struct {
	db     *bun.DB
	dbType string
}

// NewRepository initializes the database based on configuration
func NewRepository(config config.ServerConfig) *BunDB {
	var (
		db    *bun.DB
		sqlDB *sql.DB
		err   error
	)

	dbType := config.DatabaseType
	switch dbType {
	case "sqlite":
		Logger.Info("Initializing sqlite database with Bun ORM...", "type", dbType)
		dbName := config.DatabaseDbname
		if dbName == "" {
			dbName = "databases/gopdftools.sqlite"
		}
		if dir := filepath.Dir(dbName); dir != "." && dbName != ":memory:" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				Logger.Error("Unable to create folder for databases", "error", err)
				os.Exit(1)
			}
		}
		// eg "file:gopdftools.db?cache=shared&mode=rwc"
		connectionString := fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbName)
		Logger.Info("Bun connection strings", "connectionString", connectionString)
		sqlDB, err = sql.Open(sqliteshim.ShimName, connectionString)
		if err != nil {
			Logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}

	default:
		Logger.Error("Unknown database type", "type", dbType)
		Logger.Info("Supported database types: sqlite")
		os.Exit(1)
	}

	db = bun.NewDB(sqlDB, sqlitedialect.New())
	// Option to turn on verbose logging just returns failures otherwise
	db.AddQueryHook(bundebug.NewQueryHook((bundebug.WithVerbose(false))))
	Logger.Info("Connected to database successfully", "type", dbType)

	result := new(BunDB)
	result.db = db
	result.dbType = dbType

	// Run migrations
	Logger.Info("Running database migrations...")
	if err := result.runMigrations(context.Background()); err != nil {
		Logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	Logger.Info("Database migrations completed successfully")

	return result
}

// Close closes the database connection
func (b *BunDB) Close() error {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransform records one transformation request
func (b *BunDB) SaveTransform(rec *Transform) error {
	ctx := context.Background()
	bunRec := FromTransform(rec)

	_, err := b.db.NewInsert().
		Model(bunRec).
		Exec(ctx)
	if err != nil {
		return err
	}

	// Fetch the ID if it was auto-generated
	if bunRec.ID == 0 {
		err = b.db.NewSelect().
			Model(bunRec).
			Where("ulid = ?", bunRec.ULID).
			Scan(ctx)
		if err != nil {
			return err
		}
	}

	rec.ID = bunRec.ID
	return nil
}

// GetTransformByULID retrieves a transform record by ULID
func (b *BunDB) GetTransformByULID(ulidStr string) (*Transform, error) {
	ctx := context.Background()
	bunRec := new(BunTransform)

	err := b.db.NewSelect().
		Model(bunRec).
		Where("ulid = ?", ulidStr).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return bunRec.ToTransform()
}

// GetRecentTransforms retrieves the newest transform records
func (b *BunDB) GetRecentTransforms(limit int) ([]Transform, error) {
	ctx := context.Background()
	var bunRecs []BunTransform

	err := b.db.NewSelect().
		Model(&bunRecs).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return b.bunTransformsToTransforms(bunRecs)
}

// GetRecentTransformsWithPagination retrieves transform records with pagination support
func (b *BunDB) GetRecentTransformsWithPagination(page int, pageSize int) ([]Transform, int, error) {
	ctx := context.Background()

	// Calculate offset
	offset := (page - 1) * pageSize

	// Get total count
	totalCount, err := b.db.NewSelect().
		Model((*BunTransform)(nil)).
		Count(ctx)

	if err != nil {
		return nil, 0, err
	}

	// Get paginated records
	var bunRecs []BunTransform
	err = b.db.NewSelect().
		Model(&bunRecs).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, 0, err
	}

	recs, err := b.bunTransformsToTransforms(bunRecs)
	return recs, totalCount, err
}

// CountTransforms reports the total number of recorded transforms
func (b *BunDB) CountTransforms() (int, error) {
	ctx := context.Background()

	return b.db.NewSelect().
		Model((*BunTransform)(nil)).
		Count(ctx)
}

// DeleteTransformsOlderThan removes history records older than the cutoff
func (b *BunDB) DeleteTransformsOlderThan(olderThan time.Duration) (int, error) {
	ctx := context.Background()
	cutoffTime := time.Now().Add(-olderThan)

	result, err := b.db.NewDelete().
		Model((*BunTransform)(nil)).
		Where("created_at < ?", cutoffTime).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	count, err := result.RowsAffected()
	return int(count), err
}

// bunTransformsToTransforms converts a slice of BunTransform to Transform
func (b *BunDB) bunTransformsToTransforms(bunRecs []BunTransform) ([]Transform, error) {
	recs := make([]Transform, 0, len(bunRecs))
	for _, bunRec := range bunRecs {
		rec, err := bunRec.ToTransform()
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}
