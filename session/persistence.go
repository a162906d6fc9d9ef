package session

import (
	"errors"
	"fmt"
	"os"

	json "github.com/bytedance/sonic"
	"github.com/gtoxlili/echoChart/entity"
)

type snapshot struct {
	Users map[string]entity.UserContext `json:"users"`
}

// Load 从快照文件恢复画像，文件不存在时保持为空
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("session: failed to decode snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, uc := range snap.Users {
		uc.UserID = id
		if len(uc.RecentAnalyses) > m.recentCap {
			uc.RecentAnalyses = uc.RecentAnalyses[:m.recentCap]
		}
		m.contexts[id] = uc
	}
	m.log.Info("session: snapshot loaded", "path", path, "users", len(snap.Users))
	return nil
}

// Save 先写临时文件再重命名，避免留下半截快照
func (m *Manager) Save(path string) error {
	data, err := json.Marshal(snapshot{Users: m.GetAll()})
	if err != nil {
		return fmt.Errorf("session: failed to encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("session: failed to replace snapshot: %w", err)
	}
	return nil
}
