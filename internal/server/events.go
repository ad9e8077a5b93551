package server

import (
	"riftline/pkg/core"
	"riftline/pkg/interact"
)

type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoin
	EventReconnect
	EventInput
	EventInteract
	EventBuy
	EventPing
	EventPong
)

type JoinEvent struct {
	PlayerName string
	RoomID     string // 房间 ID，空字符串表示自动分配到默认房间
}

type ReconnectEvent struct {
	SessionToken string
}

// InputEvent 一个包里的若干条输入，可能包含已经收到过的冗余输入
type InputEvent struct {
	EntityID int32
	Inputs   []core.InputCommand
}

type InteractEvent struct {
	EntityID int32
	Request  interact.Request
}

type BuyEvent struct {
	EntityID     int32
	ConnectionID int32
	OfferID      int64
	Count        int32
}

type PingEvent struct {
	ClientTime int64
}

type PongEvent struct {
	ClientTime int64
	ServerTime int64
}

type ServerEvent struct {
	Kind      EventKind
	Type      uint32 // 原始包类型，便于记录未知消息
	Join      *JoinEvent
	Reconnect *ReconnectEvent
	Input     *InputEvent
	Interact  *InteractEvent
	Buy       *BuyEvent
	Ping      *PingEvent
	Pong      *PongEvent
}
