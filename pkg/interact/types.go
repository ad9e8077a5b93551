package interact

import (
	"math"

	"riftline/pkg/core"
)

// Category 交互类别，决定由哪个处理器分发
type Category uint8

const (
	CategoryPlayerToScene  Category = iota + 1 // 拾取物品/宝箱
	CategoryPlayerToPlayer                     // 协议已定义，尚未实现
	CategorySceneToPlayer                      // 协议已定义，尚未实现
	CategoryCommand                            // 通用指令（购买等）
)

func (c Category) known() bool {
	return c >= CategoryPlayerToScene && c <= CategoryCommand
}

// String 返回类别名
func (c Category) String() string {
	switch c {
	case CategoryPlayerToScene:
		return "player_to_scene"
	case CategoryPlayerToPlayer:
		return "player_to_player"
	case CategorySceneToPlayer:
		return "scene_to_player"
	case CategoryCommand:
		return "command"
	}
	return "unknown"
}

// Authority 指令数值的权威来源。客户端权威的数值服务器需要重新推导，不能直接信任
type Authority uint8

const (
	AuthorityClient Authority = iota + 1
	AuthorityServer
)

func (a Authority) known() bool {
	return a == AuthorityClient || a == AuthorityServer
}

// InteractionType 场景交互类型
type InteractionType uint8

const (
	InteractionPickupItem InteractionType = iota + 1
	InteractionPickupChest
)

func (t InteractionType) known() bool {
	return t == InteractionPickupItem || t == InteractionPickupChest
}

// Header 所有交互请求共有的头部
type Header struct {
	CommandID          uint32
	RequestingEntityID int32
	Tick               int32
	Category           Category
	Position           core.CompressedVector3
	TimestampUTC       int64 // 毫秒
	Authority          Authority
}

func (h Header) valid(want Category) bool {
	return h.CommandID != 0 &&
		h.RequestingEntityID > 0 &&
		h.Tick >= 0 &&
		h.Category == want &&
		h.Authority.known()
}

// Request 服务器队列中的交互请求
type Request interface {
	RequestHeader() Header
	IsValid() bool
}

// SceneInteractRequest 玩家对场景物体的交互
type SceneInteractRequest struct {
	Header
	SceneItemID     uint32
	InteractionType InteractionType
}

func (r SceneInteractRequest) RequestHeader() Header { return r.Header }

func (r SceneInteractRequest) IsValid() bool {
	return r.Header.valid(CategoryPlayerToScene) && r.SceneItemID != 0 && r.InteractionType.known()
}

// PlayerInteractRequest 玩家对玩家的交互
type PlayerInteractRequest struct {
	Header
	TargetPlayerID uint32
	InteractionID  uint16
}

func (r PlayerInteractRequest) RequestHeader() Header { return r.Header }

func (r PlayerInteractRequest) IsValid() bool {
	return r.Header.valid(CategoryPlayerToPlayer) &&
		r.TargetPlayerID != 0 &&
		int64(r.TargetPlayerID) != int64(r.RequestingEntityID)
}

// EnvironmentInteractRequest 环境（危险区域等）对玩家的作用
type EnvironmentInteractRequest struct {
	Header
	HazardID  uint32
	Intensity float32
}

func (r EnvironmentInteractRequest) RequestHeader() Header { return r.Header }

func (r EnvironmentInteractRequest) IsValid() bool {
	v := float64(r.Intensity)
	return r.Header.valid(CategorySceneToPlayer) &&
		r.HazardID != 0 &&
		!math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// CommandRequest 通用指令，载荷是序列化后的指令体
type CommandRequest struct {
	Header
	CommandType CommandType
	Payload     []byte
}

func (r CommandRequest) RequestHeader() Header { return r.Header }

func (r CommandRequest) IsValid() bool {
	return r.Header.valid(CategoryCommand) && r.CommandType.known() && len(r.Payload) > 0
}
