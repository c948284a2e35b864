package session

import (
	"sync"
	"time"
)

type entry struct {
	link     Link
	lastSeen time.Time
}

// Manager 内存版链路管理：一个网关通常只接一个协调器，多条链路时最后绑定者生效
type Manager struct {
	mu      sync.RWMutex
	links   map[uint64]*entry
	active  uint64
	timeout time.Duration
}

var _ LinkManager = (*Manager)(nil)

func New(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{links: make(map[uint64]*entry), timeout: timeout}
}

// Bind 绑定链路并设为活动链路
func (m *Manager) Bind(l Link, t time.Time) {
	m.mu.Lock()
	m.links[l.ID()] = &entry{link: l, lastSeen: t}
	m.active = l.ID()
	m.mu.Unlock()
}

// Unbind 解除绑定
func (m *Manager) Unbind(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, id)
	if m.active != id {
		return
	}
	m.active = 0
	var latest time.Time
	for lid, e := range m.links {
		if m.active == 0 || e.lastSeen.After(latest) {
			m.active, latest = lid, e.lastSeen
		}
	}
}

// Touch 更新链路最近收到数据的时间
func (m *Manager) Touch(id uint64, t time.Time) {
	m.mu.Lock()
	if e, ok := m.links[id]; ok {
		e.lastSeen = t
	}
	m.mu.Unlock()
}

// Active 返回活动链路
func (m *Manager) Active() (Link, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.links[m.active]
	if !ok {
		return nil, false
	}
	return e.link, true
}

// IsOnline 判断活动链路是否在线
func (m *Manager) IsOnline(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.links[m.active]
	if !ok {
		return false
	}
	return now.Sub(e.lastSeen) <= m.timeout
}

// Count 返回绑定链路数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}
