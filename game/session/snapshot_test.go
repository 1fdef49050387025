package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
)

func TestSnapshotFilename(t *testing.T) {
	got := SnapshotFilename(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))
	if got != "umd_monopoly_20240309_140507.json" {
		t.Errorf("unexpected filename %s", got)
	}
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	session := newTestSession(t, "snap")
	snapshot := session.Engine.Snapshot()

	t.Run("default name", func(t *testing.T) {
		name, err := SaveSnapshot(dir, snapshot, "")
		if err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
		if !regexp.MustCompile(`^umd_monopoly_\d{8}_\d{6}\.json$`).MatchString(name) {
			t.Errorf("unexpected default name %s", name)
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("snapshot not written: %v", err)
		}
		if !strings.Contains(string(data), "\n  \"game_id\"") {
			t.Error("expected two-space indented JSON")
		}

		var back engine.Snapshot
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("snapshot is not valid JSON: %v", err)
		}
		if back.GameID != snapshot.GameID || len(back.Players) != 2 {
			t.Errorf("snapshot content mismatch: %+v", back)
		}
	})

	t.Run("explicit name gets an extension", func(t *testing.T) {
		name, err := SaveSnapshot(dir, snapshot, "final")
		if err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
		if name != "final.json" {
			t.Errorf("expected final.json, got %s", name)
		}
	})

	t.Run("path separators are rejected", func(t *testing.T) {
		if _, err := SaveSnapshot(dir, snapshot, "../escape.json"); !errors.Is(err, ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		blocker := filepath.Join(dir, "blocker")
		os.WriteFile(blocker, []byte("x"), 0644)
		if _, err := SaveSnapshot(filepath.Join(blocker, "sub"), snapshot, "x.json"); !errors.Is(err, ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("store writes into its directory", func(t *testing.T) {
		store := NewSnapshotStore(filepath.Join(dir, "saves"))
		name, err := store.SaveSnapshot(snapshot, "store.json")
		if err != nil {
			t.Fatalf("store SaveSnapshot failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
			t.Errorf("expected file in store dir: %v", err)
		}
	})
}

func TestPlayerRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	session := newTestSession(t, "rec")

	rec, err := session.Engine.PlayerRecord(0)
	if err != nil {
		t.Fatalf("PlayerRecord failed: %v", err)
	}
	path := filepath.Join(dir, "player.json")
	if err := SavePlayerRecord(path, rec); err != nil {
		t.Fatalf("SavePlayerRecord failed: %v", err)
	}

	loaded, ok := LoadPlayerRecord(path)
	if !ok {
		t.Fatal("expected record to load")
	}
	if loaded.Name != "Testudo" || loaded.Cash != engine.DefaultStartingCash || loaded.Token != "@" {
		t.Errorf("unexpected record %+v", loaded)
	}

	if _, ok := LoadPlayerRecord(filepath.Join(dir, "missing.json")); ok {
		t.Error("missing file should report absent")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("not json"), 0644)
	if _, ok := LoadPlayerRecord(bad); ok {
		t.Error("malformed file should report absent")
	}

	if err := SavePlayerRecord(filepath.Join(dir, "nope", "player.json"), rec); !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}
