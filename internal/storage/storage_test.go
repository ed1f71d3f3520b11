package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRunStore(t *testing.T) {
	// Create temp directory
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data", "runs.db")

	store, err := NewRunStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	t.Run("Put and Get", func(t *testing.T) {
		err := store.Put(&Run{WebsetID: "ws_1", Query: "founders", Status: "running"})
		if err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		got, err := store.Get("ws_1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got == nil {
			t.Fatal("Expected to find stored run")
		}
		if got.Query != "founders" || got.Status != "running" {
			t.Errorf("Unexpected run: %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("Update keeps created_at and query", func(t *testing.T) {
		before, _ := store.Get("ws_1")

		err := store.Put(&Run{WebsetID: "ws_1", Status: "idle", Outcome: "idle", ItemCount: 3})
		if err != nil {
			t.Fatalf("Failed to update: %v", err)
		}

		got, _ := store.Get("ws_1")
		if !got.CreatedAt.Equal(before.CreatedAt) {
			t.Errorf("CreatedAt changed: %v -> %v", before.CreatedAt, got.CreatedAt)
		}
		if got.Query != "founders" {
			t.Errorf("Expected query to be kept, got %q", got.Query)
		}
		if got.ItemCount != 3 || got.Outcome != "idle" {
			t.Errorf("Unexpected run: %+v", got)
		}
	})

	t.Run("Get non-existent", func(t *testing.T) {
		got, err := store.Get("ws_missing")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != nil {
			t.Error("Expected not to find non-existent run")
		}
	})

	t.Run("Put without id", func(t *testing.T) {
		if err := store.Put(&Run{Status: "idle"}); err == nil {
			t.Error("Expected error for run without webset id")
		}
	})

	t.Run("List most recent first", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		if err := store.Put(&Run{WebsetID: "ws_2", Status: "pending"}); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		runs, err := store.List()
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(runs))
		}
		if runs[0].WebsetID != "ws_2" || runs[1].WebsetID != "ws_1" {
			t.Errorf("Unexpected order: %s, %s", runs[0].WebsetID, runs[1].WebsetID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete("ws_2"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}

		got, _ := store.Get("ws_2")
		if got != nil {
			t.Error("Expected not to find deleted run")
		}
	})
}

func TestRunStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "persist.db")

	// Store data
	store1, err := NewRunStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store1: %v", err)
	}
	store1.Put(&Run{WebsetID: "ws_persist", Status: "running"})
	store1.Close()

	// Verify persistence
	store2, err := NewRunStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store2: %v", err)
	}
	defer store2.Close()

	got, err := store2.Get("ws_persist")
	if err != nil || got == nil {
		t.Fatal("Expected to find persisted run after reopening")
	}

	if got.Status != "running" {
		t.Errorf("Expected 'running', got '%v'", got.Status)
	}
}
