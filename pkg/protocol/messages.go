package protocol

import (
	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

// MessageType 包类型
type MessageType uint32

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeJoinRequest
	MessageTypeJoinResponse
	MessageTypeReconnectRequest
	MessageTypeReconnectResponse
	MessageTypePing
	MessageTypePong
	MessageTypeClientInput
	MessageTypeWorldState
	MessageTypePlayerLeave
	MessageTypeInteractRequest
	MessageTypeShopSync
	MessageTypeBuyRequest
	MessageTypeBuyResponse
	MessageTypePropertySync
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeJoinRequest:
		return "JoinRequest"
	case MessageTypeJoinResponse:
		return "JoinResponse"
	case MessageTypeReconnectRequest:
		return "ReconnectRequest"
	case MessageTypeReconnectResponse:
		return "ReconnectResponse"
	case MessageTypePing:
		return "Ping"
	case MessageTypePong:
		return "Pong"
	case MessageTypeClientInput:
		return "ClientInput"
	case MessageTypeWorldState:
		return "WorldState"
	case MessageTypePlayerLeave:
		return "PlayerLeave"
	case MessageTypeInteractRequest:
		return "InteractRequest"
	case MessageTypeShopSync:
		return "ShopSync"
	case MessageTypeBuyRequest:
		return "BuyRequest"
	case MessageTypeBuyResponse:
		return "BuyResponse"
	case MessageTypePropertySync:
		return "PropertySync"
	}
	return "Unknown"
}

// Packet 传输层的外层包
type Packet struct {
	Type    MessageType
	Payload []byte
}

type appender interface {
	appendTo(e *encoder)
}

type decoder interface {
	decode(b []byte) error
}

// Message 可以单独成包的顶层消息
type Message interface {
	appender
	MessageType() MessageType
}

// Payload 可以从包里解析出来的消息，即顶层消息的指针
type Payload interface {
	Message
	decoder
}

// ========== 交互 ==========

// InteractHeader 交互请求头
type InteractHeader struct {
	CommandID           uint32
	RequestConnectionID int32
	Tick                int32
	Category            uint8
	Position            core.CompressedVector3
	TimestampUTC        int64
	Authority           uint8
}

type SceneInteractRequest struct {
	Header          InteractHeader
	SceneItemID     uint32
	InteractionType uint8
}

type PlayerInteractRequest struct {
	Header         InteractHeader
	TargetPlayerID uint32
	InteractionID  uint16
}

type EnvironmentInteractRequest struct {
	Header    InteractHeader
	HazardID  uint32
	Intensity float32
}

// InteractRequest 交互请求信封，三种请求只设置一种
type InteractRequest struct {
	Scene       *SceneInteractRequest
	Player      *PlayerInteractRequest
	Environment *EnvironmentInteractRequest
}

// ========== 移动 ==========

// PlayerInput 单条输入，走不可靠通道
type PlayerInput struct {
	InputID       uint32
	MoveDirection mgl32.Vec2
	JumpPressed   bool
	Timestamp     float32
}

// ClientInput 一个包里带上最近若干条未确认的输入
type ClientInput struct {
	Inputs []PlayerInput
}

// ServerState 单个实体的权威状态
type ServerState struct {
	EntityID    int32
	Position    mgl32.Vec3
	Velocity    mgl32.Vec3
	LastInputID uint32
	Timestamp   float32
}

// WorldState 一次广播
type WorldState struct {
	Tick   int32
	States []ServerState
}

// ========== 指令 / 商店 ==========

type CommandHeader struct {
	ConnectionID int32
	CommandType  uint8
	Authority    uint8
	ExecuteType  uint8
}

type BuyItem struct {
	Count        int32
	ItemShopID   int64
	ItemType     uint8
	ItemConfigID uint32
}

type ItemsBuyCommand struct {
	Header CommandHeader
	Items  []BuyItem
}

type ShopOffer struct {
	ShopID         int64
	ItemType       uint8
	ItemConfigID   uint32
	Price          int32
	RemainingCount int32
}

type ShopSync struct {
	ConnectionID int32
	Offers       []ShopOffer
}

// BuyRequest ConnectionID 是被购买商店的归属连接，服务器会核对调用方
type BuyRequest struct {
	OfferID      int64
	Count        int32
	ConnectionID int32
}

type BuyResponse struct {
	Success      bool
	ErrorMessage string
	Command      ItemsBuyCommand
	Replaced     *ShopOffer
}

// ========== 会话 ==========

type JoinRequest struct {
	PlayerName string
	RoomID     string
}

// JoinResponse 加入结果，带上移动参数，客户端预测必须和服务器用同一套
type JoinResponse struct {
	Success      bool
	EntityID     int32
	ErrorMessage string
	TPS          int32
	SessionToken string
	RoomID       string
	Spawn        mgl32.Vec3
	MoveSpeed    float32
	JumpSpeed    float32
	Gravity      float32
	SyncInterval float32
}

type ReconnectRequest struct {
	SessionToken string
}

type ReconnectResponse struct {
	Success      bool
	EntityID     int32
	ErrorMessage string
	RoomID       string
	State        *ServerState
}

type Ping struct {
	ClientTime int64
}

type Pong struct {
	ClientTime int64
	ServerTime int64
}

type PlayerLeave struct {
	EntityID int32
}

type PropertyValue struct {
	Type       uint8
	Current    float32
	MaxCurrent float32
}

type PropertySync struct {
	EntityID   int32
	Properties []PropertyValue
}
