package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"riftline/pkg/protocol"
)

const (
	MaxPacketSize = 4096             // 最大消息大小
	readTimeout   = 20 * time.Second // 读取超时，大于心跳超时
	writeTimeout  = 1 * time.Second  // 写入超时
)

var (
	ErrSendQueueFull    = errors.New("发送队列满")
	ErrConnectionClosed = errors.New("连接已关闭")
	ErrNotJoined        = errors.New("尚未加入房间")
)

// Connection 表示一个客户端连接
type Connection struct {
	conn    net.Conn
	server  *GameServer
	log     *zap.SugaredLogger
	limiter *rate.Limiter

	entityID atomic.Int32
	roomMu   sync.RWMutex
	roomID   string

	// 发送队列
	sendChan chan []byte
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	lastRecvTime atomic.Value
	rtt          atomic.Int64
}

var _ Session = (*Connection)(nil)

// NewConnection 创建新连接，连接到服务器上
func NewConnection(conn net.Conn, server *GameServer) *Connection {
	c := &Connection{
		conn:     conn,
		server:   server,
		log:      server.log,
		limiter:  rate.NewLimiter(rate.Limit(server.cfg.MessageRate), server.cfg.MessageBurst),
		sendChan: make(chan []byte, 256), // 发送队列缓冲区
		closeCh:  make(chan struct{}),
	}
	c.entityID.Store(-1) // -1 表示未分配
	c.lastRecvTime.Store(time.Now())
	return c
}

// Handle 处理连接，直到连接关闭或 ctx 取消
func (c *Connection) Handle(ctx context.Context) error {
	c.log.Debugf("新连接处理开始: %s", c.conn.RemoteAddr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.startHeartbeat(gctx)
		return nil
	})
	g.Go(func() error {
		c.sendLoop(gctx)
		return nil
	})
	g.Go(func() error {
		c.receiveLoop(gctx)
		return nil
	})
	g.Go(func() error {
		// 等待上下文取消或连接关闭
		select {
		case <-gctx.Done():
		case <-c.closeCh:
		}
		c.Close()
		return nil
	})
	return g.Wait()
}

// Close 关闭连接
func (c *Connection) Close() {
	c.closeWithNotify(true)
}

// CloseWithoutNotify 关闭连接但不触发移除玩家逻辑
func (c *Connection) CloseWithoutNotify() {
	c.closeWithNotify(false)
}

func (c *Connection) closeWithNotify(notify bool) {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}

	c.closed = true
	close(c.closeCh)

	if c.conn != nil {
		c.conn.Close()
	}
	close(c.sendChan)
	c.closeMu.Unlock()

	// 房间循环可能正在 Send，通知必须在释放锁之后
	if notify {
		c.server.removePlayer(c)
	}

	c.log.Infof("玩家 %d: 连接已关闭", c.ID())
}

// Send 发送数据（异步）
func (c *Connection) Send(data []byte) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Connection) sendMessage(m protocol.Message) {
	if err := c.Send(protocol.Encode(m)); err != nil {
		c.log.Debugf("玩家 %d: 发送 %s 失败: %v", c.ID(), m.MessageType(), err)
	}
}

// sendLoop 发送循环，每个包前面带 4 字节长度
func (c *Connection) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-c.sendChan:
			if !ok {
				return
			}

			frame := make([]byte, 4+len(data))
			binary.BigEndian.PutUint32(frame, uint32(len(data)))
			copy(frame[4:], data)

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(frame); err != nil {
				c.log.Debugf("玩家 %d: 发送数据失败: %v", c.ID(), err)
				c.Close()
				return
			}
		}
	}
}

// receiveLoop 接收循环
func (c *Connection) receiveLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		var length uint32
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if err := binary.Read(c.conn, binary.BigEndian, &length); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				c.log.Infof("玩家 %d: 读取超时", c.ID())
			} else if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debugf("玩家 %d: 读取长度失败: %v", c.ID(), err)
			}
			c.Close()
			return
		}

		if length > MaxPacketSize {
			c.log.Warnf("玩家 %d: 消息过大 (%d bytes)", c.ID(), length)
			c.Close()
			return
		}
		if length == 0 {
			continue
		}

		data := make([]byte, length)
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, err := io.ReadFull(c.conn, data); err != nil {
			c.log.Debugf("玩家 %d: 读取数据失败: %v", c.ID(), err)
			c.Close()
			return
		}

		c.lastRecvTime.Store(time.Now())
		if !c.limiter.Allow() {
			c.log.Debugf("玩家 %d: 消息过快，丢弃", c.ID())
			continue
		}
		if err := c.handleMessage(data); err != nil {
			// 协议错误只丢弃当前消息
			c.log.Debugf("玩家 %d: 处理消息失败: %v", c.ID(), err)
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(data []byte) error {
	event, err := DecodePacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventJoin:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家已加入")
		}
		if err := c.server.rooms.Join(c, *event.Join); err != nil {
			c.sendMessage(protocol.JoinResponse{Success: false, EntityID: -1, ErrorMessage: err.Error()})
			return fmt.Errorf("处理加入请求失败: %w", err)
		}

	case EventReconnect:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家已加入")
		}
		if err := c.server.rooms.Reconnect(c, event.Reconnect.SessionToken); err != nil {
			c.sendMessage(protocol.ReconnectResponse{Success: false, EntityID: -1, ErrorMessage: err.Error()})
			return fmt.Errorf("处理重连请求失败: %w", err)
		}

	case EventInput:
		id, roomID, err := c.joined()
		if err != nil {
			return err
		}
		event.Input.EntityID = id
		c.server.rooms.EnqueueInput(roomID, *event.Input)

	case EventInteract:
		id, roomID, err := c.joined()
		if err != nil {
			return err
		}
		event.Interact.EntityID = id
		c.server.rooms.EnqueueInteract(roomID, *event.Interact)

	case EventBuy:
		id, roomID, err := c.joined()
		if err != nil {
			return err
		}
		event.Buy.EntityID = id
		c.server.rooms.Buy(roomID, c, *event.Buy)

	case EventPing:
		c.sendMessage(protocol.Pong{ClientTime: event.Ping.ClientTime, ServerTime: time.Now().UnixMilli()})

	case EventPong:
		c.handlePong(event.Pong)

	default:
		c.log.Debugf("玩家 %d: 未知消息类型 %d，忽略", c.ID(), event.Type)
	}

	return nil
}

func (c *Connection) joined() (int32, string, error) {
	id := c.ID()
	if id < 0 {
		return 0, "", ErrNotJoined
	}
	return id, c.RoomID(), nil
}

// String 返回连接的字符串表示
func (c *Connection) String() string {
	if id := c.ID(); id >= 0 {
		return fmt.Sprintf("Connection{%d, %s}", id, c.conn.RemoteAddr())
	}
	return fmt.Sprintf("Connection{%s}", c.conn.RemoteAddr())
}

func (c *Connection) ID() int32 {
	return c.entityID.Load()
}

func (c *Connection) SetPlayerID(id int32) {
	c.entityID.Store(id)
}

func (c *Connection) RoomID() string {
	c.roomMu.RLock()
	defer c.roomMu.RUnlock()
	return c.roomID
}

func (c *Connection) SetRoomID(id string) {
	c.roomMu.Lock()
	c.roomID = id
	c.roomMu.Unlock()
}

// RTT 最近一次心跳的往返时间（毫秒）
func (c *Connection) RTT() int64 {
	return c.rtt.Load()
}

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 15 * time.Second
)

func (c *Connection) startHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if !lastRecv.IsZero() && time.Since(lastRecv) > heartbeatTimeout {
				c.log.Infof("玩家 %d: 心跳超时", c.ID())
				c.Close()
				return
			}
			c.sendMessage(protocol.Ping{ClientTime: time.Now().UnixMilli()})
		}
	}
}

func (c *Connection) handlePong(pong *PongEvent) {
	if pong == nil || pong.ClientTime <= 0 {
		return
	}
	c.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
}
