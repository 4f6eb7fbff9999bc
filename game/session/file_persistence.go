package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/klondike/game/service"
)

const sessionFileExt = ".json"

// FilePersistence stores each session as <id>.json in one directory. IDs are
// lowercased on disk so lookups ignore case like the manager does.
type FilePersistence struct {
	dir     string
	configs service.ConfigManager
}

// NewFilePersistence creates dir if needed.
func NewFilePersistence(dir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir, configs: configManager}, nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.dir, key(id)+sessionFileExt)
}

// Save writes the session through a temp file in the same directory and
// renames it into place, so readers never see a half-written board.
func (fp *FilePersistence) Save(session *service.Session) error {
	data, err := persistedData(fp.configs, session)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	tmp, err := os.CreateTemp(fp.dir, "."+key(session.ID)+"-*")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fp.path(session.ID)); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load reads and restores a session. A file whose stored ID disagrees with
// its name is rejected.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	body, err := os.ReadFile(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if key(data.ID) != key(id) {
		return nil, fmt.Errorf("session file %s holds session %q", filepath.Base(fp.path(id)), data.ID)
	}
	return restoreSession(fp.configs, &data)
}

func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the stored IDs in sorted order. Temp files and names that
// are not session IDs are skipped.
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		id, ok := strings.CutSuffix(name, sessionFileExt)
		if ok && validID(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (fp *FilePersistence) Exists(id string) bool {
	info, err := os.Stat(fp.path(id))
	return err == nil && info.Mode().IsRegular()
}
