package server

import (
	"errors"
	"sort"
	"sync"
)

// RoomManager 管理多个房间的生命周期，房间之间互不共享状态
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
}

// NewRoomManager 创建房间管理器
func NewRoomManager(cfg Config) *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room), cfg: cfg}
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.cfg)
		r.onDispose = m.remove
		m.rooms[id] = r
		r.StartTicker()
		Log.Infof("room created: %s", id)
	}
	return r
}

// JoinOrCreate 加入指定名称的房间，不存在则创建；撞上正在销毁的房间时换新房间重试
func (m *RoomManager) JoinOrCreate(id string, pid PlayerID, conn Conn, meta map[string]string) (*Room, error) {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		r := m.GetOrCreateRoom(id)
		err = r.Join(pid, conn, meta)
		if errors.Is(err, ErrRoomDisposed) {
			m.remove(r)
			continue
		}
		return r, err
	}
	return nil, err
}

// Get 查找房间
func (m *RoomManager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomIDs 当前存活房间（排序）
func (m *RoomManager) RoomIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Shutdown 销毁全部房间
func (m *RoomManager) Shutdown() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()
	for _, r := range rooms {
		r.Dispose()
	}
}

// remove 只移除同一个实例，避免误删同名新房间
func (m *RoomManager) remove(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.ID]; ok && cur == r {
		delete(m.rooms, r.ID)
		Log.Infof("room removed: %s", r.ID)
	}
}
