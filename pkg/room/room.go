// Package room 负责会话到对局的映射
// 每个聊天会话对应至多一个房间，房间内的操作串行执行，
// 这是引擎要求的"一局同一时刻只处理一个动作"的外部保证
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/play/uno/pkg/uno"
)

var (
	ErrRoomExists   = errors.New("room already exists for this session")
	ErrRoomNotFound = errors.New("room not found")
)

const (
	defaultCapacity = 1024           // 默认同时保留的房间数
	defaultTTL      = time.Hour * 12 // 默认闲置回收时间
)

// Room 一个聊天会话持有的对局
type Room struct {
	ID   string
	mu   sync.Mutex
	Game *uno.Game
}

// Do 在房间锁内执行 fn，保证同一房间的动作串行
func (r *Room) Do(fn func(g *uno.Game) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.Game)
}

// Manager 管理所有活跃房间，闲置房间按 TTL 自动回收
type Manager struct {
	mu    sync.Mutex
	rooms *expirable.LRU[string, *Room]
}

// Option Manager 的配置选项
type Option func(*managerOptions)

type managerOptions struct {
	capacity int
	ttl      time.Duration
}

// WithCapacity 设置同时保留的房间数上限
func WithCapacity(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithTTL 设置房间的闲置回收时间
func WithTTL(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// NewManager 创建房间管理器
func NewManager(opts ...Option) *Manager {
	o := &managerOptions{
		capacity: defaultCapacity,
		ttl:      defaultTTL,
	}
	for _, opt := range opts {
		opt(o)
	}

	onEvict := func(sessionKey string, r *Room) {
		log.Debug().Str("session", sessionKey).Str("room_id", r.ID).Msg("room evicted")
	}
	return &Manager{
		rooms: expirable.NewLRU(o.capacity, onEvict, o.ttl),
	}
}

// Open 为会话创建一个新房间，房主直接入座
// 同一会话已有房间时返回 ErrRoomExists
func (m *Manager) Open(sessionKey, hostID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms.Get(sessionKey); ok {
		return nil, ErrRoomExists
	}

	r := &Room{
		ID:   uuid.NewString(),
		Game: uno.NewGame(sessionKey, hostID),
	}
	m.rooms.Add(sessionKey, r)
	log.Info().Str("session", sessionKey).Str("room_id", r.ID).Str("host", hostID).Msg("room opened")
	return r, nil
}

// Get 取会话对应的房间
func (m *Manager) Get(sessionKey string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms.Get(sessionKey)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Close 关闭会话对应的房间
func (m *Manager) Close(sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms.Get(sessionKey)
	if !ok {
		return ErrRoomNotFound
	}
	m.rooms.Remove(sessionKey)
	log.Info().Str("session", sessionKey).Str("room_id", r.ID).Msg("room closed")
	return nil
}

// Do 在会话房间的锁内执行 fn
func (m *Manager) Do(sessionKey string, fn func(g *uno.Game) error) error {
	r, err := m.Get(sessionKey)
	if err != nil {
		return err
	}
	return r.Do(fn)
}

// Len 返回当前活跃房间数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms.Len()
}
