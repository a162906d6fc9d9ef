package session

import (
	"sync"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/logger"
)

// Manager 保存每个用户的会话画像，所有读写都返回副本
type Manager struct {
	mu sync.RWMutex
	// contexts 的 key 是 userId
	contexts  map[string]entity.UserContext
	recentCap int
	log       *logger.Logger
}

func NewManager(recentCap int, log *logger.Logger) *Manager {
	if recentCap <= 0 {
		recentCap = entity.DefaultRecentCap
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		contexts:  make(map[string]entity.UserContext),
		recentCap: recentCap,
		log:       log,
	}
}

// Get 返回用户画像，不存在时创建默认画像
func (m *Manager) Get(userID string) entity.UserContext {
	m.mu.RLock()
	uc, ok := m.contexts[userID]
	m.mu.RUnlock()
	if ok {
		return uc.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if uc, ok = m.contexts[userID]; !ok {
		uc = entity.NewUserContext(userID)
		m.contexts[userID] = uc
		m.log.Debug("session: created default user context", "user", userID)
	}
	return uc.Clone()
}

func (m *Manager) UpdatePreferences(userID string, patch entity.PreferencesPatch) (entity.UserContext, error) {
	return m.update(userID, func(uc *entity.UserContext) error {
		return uc.ApplyPreferences(patch)
	})
}

func (m *Manager) UpdateProfile(userID string, patch entity.ProfilePatch) (entity.UserContext, error) {
	return m.update(userID, func(uc *entity.UserContext) error {
		return uc.ApplyProfile(patch)
	})
}

// Update 同时应用画像和偏好补丁，任一校验失败都不会改动已保存的画像
func (m *Manager) Update(userID string, profile entity.ProfilePatch, prefs *entity.PreferencesPatch) (entity.UserContext, error) {
	return m.update(userID, func(uc *entity.UserContext) error {
		if err := uc.ApplyProfile(profile); err != nil {
			return err
		}
		if prefs == nil {
			return nil
		}
		return uc.ApplyPreferences(*prefs)
	})
}

// RecordAnalysis 在分析成功后调用，把分析类型放到最近列表队首
func (m *Manager) RecordAnalysis(userID, entry string) entity.UserContext {
	uc, _ := m.update(userID, func(uc *entity.UserContext) error {
		uc.RecordAnalysis(entry, m.recentCap)
		return nil
	})
	return uc
}

// Seed 用历史记录（最新在前）初始化最近分析列表，已有记录的用户不受影响
func (m *Manager) Seed(userID string, recent []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.contexts[userID]
	if !ok {
		uc = entity.NewUserContext(userID)
	}
	if len(uc.RecentAnalyses) > 0 {
		return
	}
	if len(recent) > m.recentCap {
		recent = recent[:m.recentCap]
	}
	uc.RecentAnalyses = append([]string{}, recent...)
	m.contexts[userID] = uc
}

func (m *Manager) RecentCap() int {
	return m.recentCap
}

// GetAll 返回所有画像的副本
func (m *Manager) GetAll() map[string]entity.UserContext {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clone := make(map[string]entity.UserContext, len(m.contexts))
	for k, v := range m.contexts {
		clone[k] = v.Clone()
	}
	return clone
}

func (m *Manager) update(userID string, fn func(*entity.UserContext) error) (entity.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.contexts[userID]
	if !ok {
		uc = entity.NewUserContext(userID)
	}
	uc = uc.Clone()
	if err := fn(&uc); err != nil {
		return entity.UserContext{}, err
	}
	m.contexts[userID] = uc
	return uc.Clone(), nil
}
