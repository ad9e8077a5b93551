package protocol

import (
	"errors"
	"fmt"

	"riftline/pkg/core"
)

// ErrTruncated 空包或长度不足
var ErrTruncated = errors.New("protocol: truncated packet")

// Marshal 序列化消息体
func Marshal(m appender) []byte {
	var e encoder
	m.appendTo(&e)
	return e.b
}

// Unmarshal 反序列化消息体，未知字段会被跳过
func Unmarshal(data []byte, m decoder) error {
	return m.decode(data)
}

// ========== 包 ==========

// NewPacket 把消息包装成 Packet
func NewPacket(m Message) Packet {
	return Packet{Type: m.MessageType(), Payload: Marshal(m)}
}

// MarshalPacket 序列化 Packet
func MarshalPacket(p Packet) []byte {
	var e encoder
	p.appendTo(&e)
	return e.b
}

// UnmarshalPacket 反序列化 Packet
func UnmarshalPacket(data []byte) (Packet, error) {
	if len(data) == 0 {
		return Packet{}, ErrTruncated
	}
	var p Packet
	if err := p.decode(data); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// Encode 直接得到可以写到连接上的包体
func Encode(m Message) []byte {
	return MarshalPacket(NewPacket(m))
}

// ParsePayload 按包类型解析载荷到 m
func ParsePayload(p Packet, m Payload) error {
	if p.Type != m.MessageType() {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongType, p.Type, m.MessageType())
	}
	if err := m.decode(p.Payload); err != nil {
		return fmt.Errorf("parse %s: %w", p.Type, err)
	}
	return nil
}

// ========== 辅助构造方法 ==========

// NewClientInputPacket 构造输入消息包
func NewClientInputPacket(inputs []core.InputCommand) Packet {
	msg := ClientInput{Inputs: make([]PlayerInput, 0, len(inputs))}
	for _, in := range inputs {
		msg.Inputs = append(msg.Inputs, InputToProto(in))
	}
	return NewPacket(msg)
}

// NewJoinRequestPacket 构造加入请求消息包
func NewJoinRequestPacket(playerName, roomID string) Packet {
	return NewPacket(JoinRequest{PlayerName: playerName, RoomID: roomID})
}

// NewReconnectRequestPacket 构造重连请求消息包
func NewReconnectRequestPacket(token string) Packet {
	return NewPacket(ReconnectRequest{SessionToken: token})
}

// NewPingPacket 构造心跳消息包
func NewPingPacket(clientTime int64) Packet {
	return NewPacket(Ping{ClientTime: clientTime})
}

// NewPongPacket 构造心跳响应消息包
func NewPongPacket(clientTime, serverTime int64) Packet {
	return NewPacket(Pong{ClientTime: clientTime, ServerTime: serverTime})
}

// NewBuyRequestPacket 构造购买请求消息包
func NewBuyRequestPacket(connectionID int32, offerID int64, count int32) Packet {
	return NewPacket(BuyRequest{OfferID: offerID, Count: count, ConnectionID: connectionID})
}

// NewPlayerLeavePacket 构造离开消息包
func NewPlayerLeavePacket(entityID int32) Packet {
	return NewPacket(PlayerLeave{EntityID: entityID})
}
