package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/wricardo/klondike/game/config"
	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

func newConfigManager(t *testing.T) *config.Manager {
	t.Helper()
	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	return configManager
}

// playedSession returns a practice session with a few draws and one
// selection made, so a round trip has something to lose.
func playedSession(t *testing.T, configManager *config.Manager, id string) *service.Session {
	t.Helper()
	gameConfig, err := configManager.LoadConfig("practice")
	if err != nil {
		t.Fatalf("Failed to load practice config: %v", err)
	}

	eng, err := engine.NewEngine(gameConfig)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	for i := 0; i < 3; i++ {
		eng.DrawStock()
	}
	eng.Click(engine.StockRevealRef())

	now := time.Now().Truncate(time.Second)
	return &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         gameConfig,
		CreatedAt:      now.Add(-time.Minute),
		LastAccessedAt: now,
	}
}

// assertSameGame compares what a player could observe of two sessions
func assertSameGame(t *testing.T, want, got *service.Session) {
	t.Helper()
	if got.ID != want.ID {
		t.Errorf("ID mismatch: want %s, got %s", want.ID, got.ID)
	}
	if got.Config.Name != want.Config.Name {
		t.Errorf("Config mismatch: want %s, got %s", want.Config.Name, got.Config.Name)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt mismatch: want %v, got %v", want.CreatedAt, got.CreatedAt)
	}

	ws, gs := want.Engine.GetState(), got.Engine.GetState()
	if gs.DealID != ws.DealID {
		t.Errorf("DealID mismatch: want %s, got %s", ws.DealID, gs.DealID)
	}
	if gs.StockIdx != ws.StockIdx {
		t.Errorf("StockIdx mismatch: want %d, got %d", ws.StockIdx, gs.StockIdx)
	}
	if gs.Moves != ws.Moves || gs.TotalMoves != ws.TotalMoves {
		t.Errorf("Move counters mismatch: want %d/%d, got %d/%d", ws.Moves, ws.TotalMoves, gs.Moves, gs.TotalMoves)
	}
	if gs.Selection != ws.Selection {
		t.Errorf("Selection mismatch: want %v, got %v", ws.Selection, gs.Selection)
	}
	if len(gs.MoveHistory) != len(ws.MoveHistory) {
		t.Errorf("History length mismatch: want %d, got %d", len(ws.MoveHistory), len(gs.MoveHistory))
	}

	wj, _ := json.Marshal(ws.Tableau)
	gj, _ := json.Marshal(gs.Tableau)
	if string(wj) != string(gj) {
		t.Error("Tableau differs after round trip")
	}
	wj, _ = json.Marshal(ws.Stock)
	gj, _ = json.Marshal(gs.Stock)
	if string(wj) != string(gj) {
		t.Error("Stock differs after round trip")
	}
}

func TestFilePersistence_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configManager := newConfigManager(t)

	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	original := playedSession(t, configManager, "TEST")

	if err := persistence.Save(original); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	// File names are lowercased IDs
	filePath := filepath.Join(tempDir, "test.json")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Fatalf("Session file was not created")
	}
	if _, err := os.Stat(filePath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should be renamed away")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}
	var persisted PersistedSessionData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("Failed to parse session file: %v", err)
	}
	if persisted.ConfigName != "practice" {
		t.Errorf("Expected config ID 'practice' on disk, got %q", persisted.ConfigName)
	}

	loaded, err := persistence.Load("test")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	assertSameGame(t, original, loaded)
}

func TestFilePersistence_RestoredSessionContinuesDealSequence(t *testing.T) {
	configManager := newConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	original := playedSession(t, configManager, "deals")
	original.Engine.Reset()
	if err := persistence.Save(original); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	loaded, err := persistence.Load("deals")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if got := loaded.Engine.GetState().DealNumber; got != 2 {
		t.Fatalf("Expected deal number 2 after restore, got %d", got)
	}

	want := original.Engine.Reset()
	got := loaded.Engine.Reset()
	if got.DealNumber != 3 {
		t.Errorf("Expected deal number 3, got %d", got.DealNumber)
	}
	if !reflect.DeepEqual(got.Tableau, want.Tableau) || !reflect.DeepEqual(got.Stock, want.Stock) {
		t.Error("Restored session should deal the same next hand as the uninterrupted one")
	}

	// A fresh engine on the same seed would replay the first deal instead.
	first := playedSession(t, configManager, "first").Engine.GetState()
	if reflect.DeepEqual(got.Tableau, first.Tableau) {
		t.Error("Restored session replayed the first deal")
	}
}

func TestFilePersistence_LoadMissing(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir(), newConfigManager(t))
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	if _, err := persistence.Load("nope"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := persistence.Delete("nope"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound on delete, got %v", err)
	}
}

func TestFilePersistence_RejectsCorruptState(t *testing.T) {
	tempDir := t.TempDir()
	configManager := newConfigManager(t)
	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	sess := playedSession(t, configManager, "corrupt")
	if err := persistence.Save(sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	// Duplicate a card by overwriting the stock's first slot with a tableau card
	path := filepath.Join(tempDir, "corrupt.json")
	var data PersistedSessionData
	raw, _ := os.ReadFile(path)
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Failed to parse session file: %v", err)
	}
	data.GameState.Stock[0].Card = data.GameState.Tableau[0][0].Card
	raw, _ = json.Marshal(data)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Failed to rewrite session file: %v", err)
	}

	if _, err := persistence.Load("corrupt"); err == nil {
		t.Error("Expected a board with a duplicated card to be refused")
	}
}

func TestFilePersistence_ListAllAndDelete(t *testing.T) {
	tempDir := t.TempDir()
	configManager := newConfigManager(t)

	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	for _, id := range []string{"s001", "s002", "s003"} {
		if err := persistence.Save(playedSession(t, configManager, id)); err != nil {
			t.Fatalf("Failed to save session %s: %v", id, err)
		}
	}
	os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("ignored"), 0644)

	ids, err := persistence.ListAll()
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 sessions, got %d: %v", len(ids), ids)
	}

	if !persistence.Exists("S002") {
		t.Error("Expected Exists to ignore case")
	}
	if err := persistence.Delete("s002"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if persistence.Exists("s002") {
		t.Error("Session should not exist after delete")
	}
}
