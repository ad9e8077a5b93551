package client

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

	"github.com/coder/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riftline/pkg/core"
	"riftline/pkg/interact"
	"riftline/pkg/protocol"
)

var (
	ErrNotConnected  = errors.New("未连接")
	ErrSendQueueFull = errors.New("发送队列满")
	ErrJoinTimeout   = errors.New("等待加入响应超时")
	ErrJoinRejected  = errors.New("服务器拒绝加入")
)

// NetworkClient 网络客户端
// 收发循环只做编解码，解码后的消息通过通道交给游戏循环
type NetworkClient struct {
	cfg  Config
	log  *zap.SugaredLogger
	conn net.Conn

	// 玩家信息
	entityID atomic.Int32
	infoMu   sync.RWMutex
	roomID   string
	token    string

	// 网络
	connected atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	g         *errgroup.Group
	closeOnce sync.Once

	// 消息队列
	joinChan      chan protocol.JoinResponse
	reconnectChan chan protocol.ReconnectResponse
	stateChan     chan protocol.WorldState
	shopChan      chan protocol.ShopSync
	buyChan       chan protocol.BuyResponse
	properties    *propertyInbox
	leaveChan     chan int32

	// 发送队列
	sendChan chan []byte

	rtt atomic.Int64

	// 错误
	errChan chan error
}

// NewNetworkClient 创建网络客户端
func NewNetworkClient(cfg Config, log *zap.SugaredLogger) *NetworkClient {
	nc := &NetworkClient{
		cfg:           cfg,
		log:           log,
		joinChan:      make(chan protocol.JoinResponse, 1),
		reconnectChan: make(chan protocol.ReconnectResponse, 1),
		stateChan:     make(chan protocol.WorldState, stateBufferSize),
		shopChan:      make(chan protocol.ShopSync, eventBufferSize),
		buyChan:       make(chan protocol.BuyResponse, eventBufferSize),
		properties:    newPropertyInbox(),
		leaveChan:     make(chan int32, eventBufferSize),
		sendChan:      make(chan []byte, 256),
		errChan:       make(chan error, 1),
	}
	nc.entityID.Store(-1)
	return nc
}

// Connect 连接服务器并加入房间，返回服务器的加入响应
func (nc *NetworkClient) Connect(ctx context.Context) (protocol.JoinResponse, error) {
	if err := nc.open(ctx); err != nil {
		return protocol.JoinResponse{}, err
	}
	if err := nc.SendPacket(protocol.NewJoinRequestPacket(nc.cfg.PlayerName, nc.cfg.RoomID)); err != nil {
		nc.Close()
		return protocol.JoinResponse{}, fmt.Errorf("发送加入请求失败: %w", err)
	}

	// 等待加入响应
	select {
	case resp := <-nc.joinChan:
		if !resp.Success {
			nc.Close()
			return resp, fmt.Errorf("%w: %s", ErrJoinRejected, resp.ErrorMessage)
		}
		nc.setSession(resp.EntityID, resp.RoomID, resp.SessionToken)
		nc.log.Infof("玩家 ID: %d, 房间: %s", resp.EntityID, resp.RoomID)
		return resp, nil

	case err := <-nc.errChan:
		nc.Close()
		return protocol.JoinResponse{}, err

	case <-time.After(joinTimeout):
		nc.Close()
		return protocol.JoinResponse{}, ErrJoinTimeout
	}
}

// Resume 用上一次连接拿到的会话令牌接回原实体
func (nc *NetworkClient) Resume(ctx context.Context, token string) (protocol.ReconnectResponse, error) {
	if err := nc.open(ctx); err != nil {
		return protocol.ReconnectResponse{}, err
	}
	if err := nc.SendPacket(protocol.NewReconnectRequestPacket(token)); err != nil {
		nc.Close()
		return protocol.ReconnectResponse{}, fmt.Errorf("发送重连请求失败: %w", err)
	}

	select {
	case resp := <-nc.reconnectChan:
		if !resp.Success {
			nc.Close()
			return resp, fmt.Errorf("%w: %s", ErrJoinRejected, resp.ErrorMessage)
		}
		nc.setSession(resp.EntityID, resp.RoomID, token)
		nc.log.Infof("玩家 %d 重连成功", resp.EntityID)
		return resp, nil

	case err := <-nc.errChan:
		nc.Close()
		return protocol.ReconnectResponse{}, err

	case <-time.After(joinTimeout):
		nc.Close()
		return protocol.ReconnectResponse{}, ErrJoinTimeout
	}
}

func (nc *NetworkClient) open(ctx context.Context) error {
	nc.log.Infof("连接到服务器: %s (%s)", nc.cfg.Addr, nc.cfg.Proto)

	nc.ctx, nc.cancel = context.WithCancel(ctx)
	conn, err := nc.dial(nc.ctx)
	if err != nil {
		nc.cancel()
		return fmt.Errorf("连接服务器失败: %w", err)
	}
	nc.conn = conn
	nc.connected.Store(true)
	nc.log.Infof("已连接到服务器: %s", conn.RemoteAddr())

	g, gctx := errgroup.WithContext(nc.ctx)
	nc.g = g
	g.Go(func() error { return nc.receiveLoop(gctx) })
	g.Go(func() error { return nc.sendLoop(gctx) })
	g.Go(func() error { return nc.pingLoop(gctx) })
	g.Go(func() error {
		// ctx 取消后解除阻塞中的读
		<-gctx.Done()
		return conn.Close()
	})
	return nil
}

func (nc *NetworkClient) dial(ctx context.Context) (net.Conn, error) {
	switch nc.cfg.Proto {
	case "", "tcp":
		return net.DialTimeout("tcp", nc.cfg.Addr, dialTimeout)
	case "kcp":
		conn, err := kcp.DialWithOptions(nc.cfg.Addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		conn.SetStreamMode(true)
		conn.SetNoDelay(1, 10, 2, 1)
		return conn, nil
	case "ws":
		dctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		c, _, err := websocket.Dial(dctx, "ws://"+nc.cfg.Addr+nc.cfg.WSPath, nil)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(MaxPacketSize + 4)
		return websocket.NetConn(ctx, c, websocket.MessageBinary), nil
	default:
		return nil, fmt.Errorf("不支持的协议: %s", nc.cfg.Proto)
	}
}

// Close 关闭连接
func (nc *NetworkClient) Close() {
	nc.closeOnce.Do(func() {
		nc.connected.Store(false)
		if nc.cancel != nil {
			nc.cancel()
		}
		if nc.g != nil {
			_ = nc.g.Wait()
		}
		nc.log.Info("网络客户端已关闭")
	})
}

func (nc *NetworkClient) setSession(entityID int32, roomID, token string) {
	nc.entityID.Store(entityID)
	nc.infoMu.Lock()
	nc.roomID = roomID
	nc.token = token
	nc.infoMu.Unlock()
}

// EntityID 获取玩家实体 ID，未加入时为 -1
func (nc *NetworkClient) EntityID() int32 {
	return nc.entityID.Load()
}

// SessionToken 重连用的令牌
func (nc *NetworkClient) SessionToken() string {
	nc.infoMu.RLock()
	defer nc.infoMu.RUnlock()
	return nc.token
}

// RoomID 当前房间
func (nc *NetworkClient) RoomID() string {
	nc.infoMu.RLock()
	defer nc.infoMu.RUnlock()
	return nc.roomID
}

// IsConnected 检查是否已连接
func (nc *NetworkClient) IsConnected() bool {
	return nc.connected.Load()
}

// RTT 最近一次 ping 的往返时间（毫秒）
func (nc *NetworkClient) RTT() int64 {
	return nc.rtt.Load()
}

// Err 连接出错时收到一个错误
func (nc *NetworkClient) Err() <-chan error {
	return nc.errChan
}

// ========== 消息接收 ==========

// receiveLoop 接收循环
func (nc *NetworkClient) receiveLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		// 读取消息长度（4 字节）
		var length uint32
		if err := binary.Read(nc.conn, binary.BigEndian, &length); err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				nc.fail(fmt.Errorf("读取长度失败: %w", err))
			} else {
				nc.fail(ErrNotConnected)
			}
			return nil
		}

		// 检查消息大小
		if length > MaxPacketSize {
			nc.fail(fmt.Errorf("消息过大 (%d bytes)", length))
			return nil
		}
		if length == 0 {
			continue
		}

		// 读取消息体
		data := make([]byte, length)
		if _, err := io.ReadFull(nc.conn, data); err != nil {
			nc.fail(fmt.Errorf("读取数据失败: %w", err))
			return nil
		}

		if err := nc.handleMessage(data); err != nil {
			nc.log.Debugf("处理消息失败: %v", err)
		}
	}
}

func (nc *NetworkClient) fail(err error) {
	nc.connected.Store(false)
	select {
	case nc.errChan <- err:
	default:
	}
	if nc.cancel != nil {
		nc.cancel()
	}
}

// handleMessage 处理接收到的消息
func (nc *NetworkClient) handleMessage(data []byte) error {
	p, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	// 根据消息类型分发
	switch p.Type {
	case protocol.MessageTypeWorldState:
		var m protocol.WorldState
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		select {
		case nc.stateChan <- m:
		default:
			// 队列满，丢弃状态，下一次广播会覆盖
		}

	case protocol.MessageTypeJoinResponse:
		var m protocol.JoinResponse
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		offer(nc.joinChan, m)

	case protocol.MessageTypeReconnectResponse:
		var m protocol.ReconnectResponse
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		offer(nc.reconnectChan, m)

	case protocol.MessageTypeShopSync:
		var m protocol.ShopSync
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		offer(nc.shopChan, m)

	case protocol.MessageTypeBuyResponse:
		var m protocol.BuyResponse
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		offer(nc.buyChan, m)

	case protocol.MessageTypePropertySync:
		var m protocol.PropertySync
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		nc.properties.put(m)

	case protocol.MessageTypePlayerLeave:
		var m protocol.PlayerLeave
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		offer(nc.leaveChan, m.EntityID)

	case protocol.MessageTypePing:
		// 服务器心跳
		var m protocol.Ping
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		return nc.SendPacket(protocol.NewPongPacket(m.ClientTime, time.Now().UnixMilli()))

	case protocol.MessageTypePong:
		var m protocol.Pong
		if err := protocol.ParsePayload(p, &m); err != nil {
			return err
		}
		if m.ClientTime > 0 {
			nc.rtt.Store(time.Now().UnixMilli() - m.ClientTime)
		}

	default:
		nc.log.Debugf("未知消息类型: %s", p.Type)
	}

	return nil
}

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// ========== 消息发送 ==========

// sendLoop 发送循环
func (nc *NetworkClient) sendLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case data := <-nc.sendChan:
			// 长度前缀（4 字节）和数据体一次写出
			frame := make([]byte, 4+len(data))
			binary.BigEndian.PutUint32(frame, uint32(len(data)))
			copy(frame[4:], data)

			if _, err := nc.conn.Write(frame); err != nil {
				nc.log.Debugf("发送数据失败: %v", err)
				nc.fail(fmt.Errorf("发送数据失败: %w", err))
				return nil
			}
		}
	}
}

func (nc *NetworkClient) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = nc.SendPacket(protocol.NewPingPacket(time.Now().UnixMilli()))
		}
	}
}

// SendPacket 发送消息包（异步）
func (nc *NetworkClient) SendPacket(p protocol.Packet) error {
	if !nc.connected.Load() {
		return ErrNotConnected
	}
	select {
	case nc.sendChan <- protocol.MarshalPacket(p):
		return nil
	default:
		return ErrSendQueueFull
	}
}

// SendInputs 发送一批输入（冗余窗口由调用方决定）
func (nc *NetworkClient) SendInputs(inputs []core.InputCommand) error {
	if len(inputs) == 0 {
		return nil
	}
	return nc.SendPacket(protocol.NewClientInputPacket(inputs))
}

// SendInteract 发送交互请求（可靠通道）
func (nc *NetworkClient) SendInteract(req interact.Request) error {
	m, err := protocol.InteractToProto(req)
	if err != nil {
		return err
	}
	return nc.SendPacket(protocol.NewPacket(m))
}

// Buy 购买自己商店里的报价
func (nc *NetworkClient) Buy(offerID int64, count int32) error {
	return nc.SendPacket(protocol.NewBuyRequestPacket(nc.EntityID(), offerID, count))
}

// ========== 状态接收（非阻塞）==========

// ReceiveState 接收世界状态
func (nc *NetworkClient) ReceiveState() (protocol.WorldState, bool) {
	return poll(nc.stateChan)
}

// ReceiveShop 接收商店同步
func (nc *NetworkClient) ReceiveShop() (protocol.ShopSync, bool) {
	return poll(nc.shopChan)
}

// ReceiveBuy 接收购买结果
func (nc *NetworkClient) ReceiveBuy() (protocol.BuyResponse, bool) {
	return poll(nc.buyChan)
}

// ReceiveProperties 取出积压的属性同步，每个实体只有最新一条
func (nc *NetworkClient) ReceiveProperties() []protocol.PropertySync {
	return nc.properties.drain()
}

// ReceivePlayerLeave 接收玩家离开，没有时返回 -1
func (nc *NetworkClient) ReceivePlayerLeave() int32 {
	if id, ok := poll(nc.leaveChan); ok {
		return id
	}
	return -1
}

func poll[T any](ch chan T) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
