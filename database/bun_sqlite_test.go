package database

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/goPDFTools/config"
)

func newTestRepository(t *testing.T) *BunDB {
	t.Helper()

	// Initialize logger for tests
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db := NewRepository(config.ServerConfig{DatabaseType: "sqlite", DatabaseDbname: ":memory:"})
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBunSQLiteDatabase(t *testing.T) {
	db := newTestRepository(t)

	t.Log("Bun SQLite database setup successfully")

	t.Run("Save and retrieve transform", func(t *testing.T) {
		rec := &Transform{
			ULID:       ulid.Make(),
			Operation:  "merge",
			InputNames: "a.pdf,b.pdf",
			OutputName: "merged_01HTEST.pdf",
			OutputSize: 20480,
			Status:     StatusCompleted,
			Detail:     `{"pageCount":7}`,
			DurationMS: 180,
			CreatedAt:  time.Now(),
		}

		err := db.SaveTransform(rec)
		if err != nil {
			t.Fatalf("Failed to save transform: %v", err)
		}

		if rec.ID == 0 {
			t.Error("Transform ID was not set after save")
		}

		retrieved, err := db.GetTransformByULID(rec.ULID.String())
		if err != nil {
			t.Fatalf("Failed to get transform by ULID: %v", err)
		}

		if retrieved.Operation != rec.Operation {
			t.Errorf("Expected operation %s, got %s", rec.Operation, retrieved.Operation)
		}
		if retrieved.OutputName != rec.OutputName {
			t.Errorf("Expected output %s, got %s", rec.OutputName, retrieved.OutputName)
		}
		if retrieved.Status != StatusCompleted {
			t.Errorf("Expected status %s, got %s", StatusCompleted, retrieved.Status)
		}

		t.Log("Transform save and retrieve test passed")
	})

	t.Run("Record failed transform", func(t *testing.T) {
		rec := &Transform{
			ULID:       ulid.Make(),
			Operation:  "unlock",
			InputNames: "locked.pdf",
			Status:     StatusFailed,
			ErrorKind:  "IncorrectPasswordOrUnsupported",
			DurationMS: 42,
			CreatedAt:  time.Now(),
		}

		if err := db.SaveTransform(rec); err != nil {
			t.Fatalf("Failed to save failed transform: %v", err)
		}

		retrieved, err := db.GetTransformByULID(rec.ULID.String())
		if err != nil {
			t.Fatalf("Failed to get transform by ULID: %v", err)
		}
		if retrieved.Status != StatusFailed {
			t.Errorf("Expected status %s, got %s", StatusFailed, retrieved.Status)
		}
		if retrieved.ErrorKind != "IncorrectPasswordOrUnsupported" {
			t.Errorf("Unexpected error kind: %s", retrieved.ErrorKind)
		}
		if retrieved.OutputName != "" {
			t.Errorf("Failed transform should have no output, got %q", retrieved.OutputName)
		}
	})

	t.Run("Recent transforms ordering", func(t *testing.T) {
		base := time.Now().Add(-1 * time.Hour)
		for i, op := range []string{"split", "compress", "watermark"} {
			rec := &Transform{
				ULID:       ulid.Make(),
				Operation:  op,
				InputNames: "doc.pdf",
				Status:     StatusCompleted,
				CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			}
			if err := db.SaveTransform(rec); err != nil {
				t.Fatalf("Failed to save transform %d: %v", i, err)
			}
		}

		recent, err := db.GetRecentTransforms(2)
		if err != nil {
			t.Fatalf("Failed to get recent transforms: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("Expected 2 transforms, got %d", len(recent))
		}
		if recent[0].CreatedAt.Before(recent[1].CreatedAt) {
			t.Error("Expected newest-first ordering")
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		total, err := db.CountTransforms()
		if err != nil {
			t.Fatalf("Failed to count transforms: %v", err)
		}

		page1, reportedTotal, err := db.GetRecentTransformsWithPagination(1, 2)
		if err != nil {
			t.Fatalf("Failed to get page 1: %v", err)
		}
		if reportedTotal != total {
			t.Errorf("Expected total %d, got %d", total, reportedTotal)
		}
		if len(page1) != 2 {
			t.Errorf("Expected 2 records on page 1, got %d", len(page1))
		}

		page2, _, err := db.GetRecentTransformsWithPagination(2, 2)
		if err != nil {
			t.Fatalf("Failed to get page 2: %v", err)
		}
		if len(page1) > 0 && len(page2) > 0 && page1[0].ULID == page2[0].ULID {
			t.Error("Page 2 should not repeat page 1")
		}
	})

	t.Run("Retention sweep", func(t *testing.T) {
		old := &Transform{
			ULID:       ulid.Make(),
			Operation:  "merge",
			InputNames: "old.pdf",
			Status:     StatusCompleted,
			CreatedAt:  time.Now().Add(-48 * time.Hour),
		}
		if err := db.SaveTransform(old); err != nil {
			t.Fatalf("Failed to save old transform: %v", err)
		}

		deleted, err := db.DeleteTransformsOlderThan(24 * time.Hour)
		if err != nil {
			t.Fatalf("Failed to delete old transforms: %v", err)
		}
		if deleted < 1 {
			t.Errorf("Expected at least 1 deleted record, got %d", deleted)
		}

		if _, err := db.GetTransformByULID(old.ULID.String()); err == nil {
			t.Error("Expected old transform to be gone after sweep")
		}
	})
}
