package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GameServer 游戏服务器
type GameServer struct {
	cfg Config
	log *zap.SugaredLogger

	rooms    *RoomManager
	listener ServerListener
	ready    chan struct{}
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg Config, log *zap.SugaredLogger) *GameServer {
	return &GameServer{
		cfg:   cfg,
		log:   log,
		ready: make(chan struct{}),
	}
}

// Start 启动服务器，阻塞到 ctx 取消
func (s *GameServer) Start(ctx context.Context) error {
	listener, err := newListener(s.cfg.Proto, s.cfg.Addr, s.cfg.WSPath)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	s.listener = listener
	s.log.Infof("服务器监听中: %s (%s)", listener.Addr(), s.cfg.Proto)

	g, gctx := errgroup.WithContext(ctx)
	s.rooms = NewRoomManager(gctx, s.cfg, s.log)
	close(s.ready)

	g.Go(s.rooms.Run)
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("服务器正在关闭...")
		_ = s.listener.Close()
		return nil
	})
	g.Go(func() error {
		return s.acceptLoop(gctx, g)
	})

	err = g.Wait()
	s.log.Info("服务器已关闭")
	return err
}

// Ready 监听成功后关闭
func (s *GameServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr 实际监听地址，Ready 之后有效
func (s *GameServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Rooms 房间管理器，Ready 之后有效
func (s *GameServer) Rooms() *RoomManager {
	return s.rooms
}

// acceptLoop 接受客户端连接
func (s *GameServer) acceptLoop(ctx context.Context, g *errgroup.Group) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warnf("接受连接失败: %v", err)
			continue
		}

		s.log.Debugf("新连接来自: %s", conn.RemoteAddr())
		connection := NewConnection(conn, s)
		g.Go(func() error {
			return connection.Handle(ctx)
		})
	}
}

// removePlayer 连接断开
func (s *GameServer) removePlayer(session Session) {
	roomID := session.RoomID()
	if s.rooms == nil || roomID == "" || session.ID() < 0 {
		return
	}
	s.rooms.Leave(roomID, session)
}
