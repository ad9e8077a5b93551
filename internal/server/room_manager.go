package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultRoomID    = "default" // 默认房间 ID
	MaxRooms         = 100       // 最大房间数
	RoomEmptyTimeout = 60 * time.Second
	cleanupInterval  = 30 * time.Second
)

type RoomManager struct {
	ctx context.Context
	cfg Config
	log *zap.SugaredLogger

	rooms      map[string]*Room     // 房间 ID -> 房间
	emptySince map[string]time.Time // 房间变空的时间
	roomMutex  sync.RWMutex         // 保护 rooms / emptySince
	wg         sync.WaitGroup
}

// NewRoomManager 创建新的房间管理器
func NewRoomManager(ctx context.Context, cfg Config, log *zap.SugaredLogger) *RoomManager {
	return &RoomManager{
		ctx:        ctx,
		cfg:        cfg,
		log:        log,
		rooms:      make(map[string]*Room),
		emptySince: make(map[string]time.Time),
	}
}

// Run 创建默认房间并定期清理空房间，ctx 取消后关闭所有房间再返回
func (m *RoomManager) Run() error {
	if _, err := m.getOrCreateRoom(DefaultRoomID); err != nil {
		return err
	}

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.Shutdown()
			return nil
		case now := <-ticker.C:
			m.cleanupEmptyRooms(now)
		}
	}
}

// cleanupEmptyRooms 清理空置超时的房间（保留默认房间）
func (m *RoomManager) cleanupEmptyRooms(now time.Time) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	for roomID, room := range m.rooms {
		if roomID == DefaultRoomID {
			continue
		}
		if room.PlayerCount() > 0 {
			delete(m.emptySince, roomID)
			continue
		}
		since, ok := m.emptySince[roomID]
		if !ok {
			m.emptySince[roomID] = now
			continue
		}
		if now.Sub(since) >= RoomEmptyTimeout {
			m.log.Infof("清理空房间: %s", roomID)
			room.Shutdown()
			delete(m.rooms, roomID)
			delete(m.emptySince, roomID)
		}
	}
}

// getOrCreateRoom 获取或创建房间
func (m *RoomManager) getOrCreateRoom(roomID string) (*Room, error) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	if room, exists := m.rooms[roomID]; exists {
		return room, nil
	}
	if len(m.rooms) >= MaxRooms {
		return nil, fmt.Errorf("房间数已达上限 (%d)", MaxRooms)
	}

	m.log.Infof("创建新房间: %s", roomID)
	room := NewRoom(m.ctx, roomID, m.cfg, m.log)
	m.rooms[roomID] = room

	m.wg.Add(1)
	go room.Run(&m.wg)

	return room, nil
}

func (m *RoomManager) room(roomID string) (*Room, bool) {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// CreateRoom 创建新房间（返回房间 ID）
func (m *RoomManager) CreateRoom() (string, error) {
	roomID := uuid.NewString()
	if _, err := m.getOrCreateRoom(roomID); err != nil {
		return "", err
	}
	return roomID, nil
}

// Join 玩家加入房间
func (m *RoomManager) Join(session Session, req JoinEvent) error {
	roomID := req.RoomID
	if roomID == "" {
		roomID = DefaultRoomID
	}

	room, err := m.getOrCreateRoom(roomID)
	if err != nil {
		return err
	}
	if err := room.Join(session, req); err != nil {
		return err
	}

	m.log.Infof("玩家 %d 加入房间 %s", session.ID(), roomID)
	return nil
}

// Reconnect 用会话令牌把新连接接回原实体
func (m *RoomManager) Reconnect(session Session, token string) error {
	entityID, roomID, err := VerifySessionToken(token)
	if err != nil {
		return err
	}
	room, ok := m.room(roomID)
	if !ok {
		return fmt.Errorf("房间 %s 不存在", roomID)
	}
	return room.Reconnect(session, entityID)
}

// EnqueueInput 将输入放入对应房间的队列
func (m *RoomManager) EnqueueInput(roomID string, ev InputEvent) {
	room, ok := m.room(roomID)
	if !ok {
		m.log.Debugf("房间 %s 不存在，玩家 %d 的输入被丢弃", roomID, ev.EntityID)
		return
	}
	room.EnqueueInput(ev)
}

// EnqueueInteract 将交互请求放入对应房间
func (m *RoomManager) EnqueueInteract(roomID string, ev InteractEvent) {
	room, ok := m.room(roomID)
	if !ok {
		m.log.Debugf("房间 %s 不存在，玩家 %d 的交互被丢弃", roomID, ev.EntityID)
		return
	}
	room.EnqueueInteract(ev)
}

// Buy 转发购买请求
func (m *RoomManager) Buy(roomID string, session Session, ev BuyEvent) {
	room, ok := m.room(roomID)
	if !ok {
		return
	}
	room.Buy(session, ev)
}

// Leave 玩家离开房间
func (m *RoomManager) Leave(roomID string, session Session) {
	room, ok := m.room(roomID)
	if !ok {
		m.log.Debugf("房间 %s 不存在，玩家 %d 的离开请求被忽略", roomID, session.ID())
		return
	}
	room.Leave(session.ID(), session)
}

// Shutdown 关闭所有房间并等待房间循环结束
func (m *RoomManager) Shutdown() {
	m.roomMutex.Lock()
	m.log.Infof("关闭 %d 个房间...", len(m.rooms))
	for _, room := range m.rooms {
		room.Shutdown()
	}
	m.roomMutex.Unlock()

	m.wg.Wait()
	m.log.Info("所有房间已关闭")
}

// RoomStats 房间统计信息
type RoomStats struct {
	PlayerCount int
}

// GetRoomStats 获取房间统计信息
func (m *RoomManager) GetRoomStats() map[string]RoomStats {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()

	stats := make(map[string]RoomStats, len(m.rooms))
	for roomID, room := range m.rooms {
		stats[roomID] = RoomStats{PlayerCount: room.PlayerCount()}
	}
	return stats
}
