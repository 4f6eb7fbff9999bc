package session

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

func TestManagerWithPersistence(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) SessionPersistence
	}{
		{"file", func(t *testing.T) SessionPersistence {
			p, err := NewFilePersistence(t.TempDir(), newConfigManager(t))
			if err != nil {
				t.Fatalf("Failed to create file persistence: %v", err)
			}
			return p
		}},
		{"sqlite", func(t *testing.T) SessionPersistence {
			return newSQLitePersistence(t, filepath.Join(t.TempDir(), "sessions.db"))
		}},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			testManagerWithPersistence(t, backend.open(t))
		})
	}
}

func testManagerWithPersistence(t *testing.T, persistence SessionPersistence) {
	configManager := newConfigManager(t)
	manager := NewManagerWithPersistence(persistence)

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", configManager.GetDefault())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if !persistence.Exists(session.ID) {
			t.Error("Session should be auto-saved on creation")
		}

		loadedSession, err := persistence.Load(session.ID)
		if err != nil {
			t.Fatalf("Failed to load auto-saved session: %v", err)
		}
		if loadedSession.Engine.GetState().DealID != session.Engine.GetState().DealID {
			t.Error("Loaded session should hold the same deal")
		}
	})

	t.Run("Create Refuses IDs Taken In Storage", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		if _, err := fresh.Create("AUTO1", configManager.GetDefault()); err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)

		session, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session from persistence: %v", err)
		}
		if session.ID != "auto1" {
			t.Errorf("Expected ID auto1, got %s", session.ID)
		}

		session2, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session from memory: %v", err)
		}
		if session2 != session {
			t.Error("Session should be cached in memory after loading from persistence")
		}
	})

	t.Run("Save Method Persists Changes", func(t *testing.T) {
		session, err := manager.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}

		result := session.Engine.DrawStock()
		if !result.Moved {
			t.Fatalf("Expected the draw to count as a move, got %+v", result)
		}

		if err := manager.Save("auto1"); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		manager3 := NewManagerWithPersistence(persistence)
		loadedSession, err := manager3.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to load session after manual save: %v", err)
		}

		if loadedSession.Engine.GetState().StockIdx != 0 {
			t.Errorf("Expected the drawn card to be persisted, stock index %d", loadedSession.Engine.GetState().StockIdx)
		}
		history := loadedSession.Engine.GetMoveHistory()
		if len(history) != 1 || history[0].Action != engine.ActionDraw {
			t.Errorf("Move history should be persisted, got %+v", history)
		}
	})

	t.Run("Delete Removes from Persistence", func(t *testing.T) {
		session, err := manager.Create("delete_test", configManager.GetDefault())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists(session.ID) {
			t.Error("Session should exist in persistence")
		}

		if err := manager.Delete(session.ID); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists(session.ID) {
			t.Error("Session should be removed from persistence on delete")
		}
		if _, err := manager.Get(session.ID); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
		}
	})

	t.Run("Expired Sessions Come Back From Storage", func(t *testing.T) {
		session, err := manager.Create("sleepy", configManager.GetDefault())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		session.Engine.DrawStock()
		session.LastAccessedAt = time.Now().Add(-2 * time.Hour)

		if removed := manager.CleanupExpiredSessions(time.Hour); removed != 1 {
			t.Fatalf("Expected 1 session to be evicted, got %d", removed)
		}

		back, err := manager.Get("sleepy")
		if err != nil {
			t.Fatalf("Expected evicted session to reload: %v", err)
		}
		if back.Engine.GetState().StockIdx != 0 {
			t.Error("Eviction should save the latest state first")
		}
	})

	t.Run("Load And Save All", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		if err := fresh.LoadPersistedSessions(); err != nil {
			t.Fatalf("Failed to load persisted sessions: %v", err)
		}
		if fresh.Count() != 2 {
			t.Errorf("Expected auto1 and sleepy to load, got %d sessions", fresh.Count())
		}
		if err := fresh.SaveAllSessions(); err != nil {
			t.Errorf("Failed to save all sessions: %v", err)
		}
	})
}

func TestManager_CloseFlushesSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	configManager := newConfigManager(t)

	store, err := NewSQLitePersistence(path, configManager)
	if err != nil {
		t.Fatalf("Failed to open sqlite persistence: %v", err)
	}
	manager := NewManagerWithPersistence(store)

	session, err := manager.Create("flush", configManager.GetDefault())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	session.Engine.DrawStock()

	if err := manager.Close(); err != nil {
		t.Fatalf("Failed to close manager: %v", err)
	}

	reopened := newSQLitePersistence(t, path)
	loaded, err := reopened.Load("flush")
	if err != nil {
		t.Fatalf("Failed to load flushed session: %v", err)
	}
	if loaded.Engine.GetState().StockIdx != 0 {
		t.Error("Close should flush in-memory changes")
	}
}

// failingPersistence refuses every save and remembers how often it was asked.
type failingPersistence struct {
	saves  int
	closed bool
}

func (f *failingPersistence) Save(*service.Session) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingPersistence) Load(string) (*service.Session, error) { return nil, ErrSessionNotFound }
func (f *failingPersistence) Delete(string) error                   { return ErrSessionNotFound }
func (f *failingPersistence) ListAll() ([]string, error)            { return nil, nil }
func (f *failingPersistence) Exists(string) bool                    { return false }
func (f *failingPersistence) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestManager_SaveAllSessionsCombinesFailures(t *testing.T) {
	store := &failingPersistence{}
	manager := NewManagerWithPersistence(store)

	for _, id := range []string{"aaa", "bbb"} {
		if _, err := manager.Create(id, createTestConfig()); err != nil {
			t.Fatalf("Create should not fail on a save error: %v", err)
		}
	}
	store.saves = 0

	err := manager.SaveAllSessions()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("Expected 2 combined errors, got %d: %v", got, err)
	}
	if store.saves != 2 {
		t.Errorf("Expected every session to be attempted, got %d saves", store.saves)
	}
	if !strings.Contains(err.Error(), "save session aaa") {
		t.Errorf("Expected the session ID in the error, got %v", err)
	}

	err = manager.Close()
	if !store.closed {
		t.Error("Close should release the backend even when saves fail")
	}
	if got := len(multierr.Errors(err)); got != 3 {
		t.Errorf("Expected save and close errors together, got %d: %v", got, err)
	}
}
