package protocol

import (
	"fmt"

	"riftline/pkg/core"
	"riftline/pkg/interact"
	"riftline/pkg/shop"
)

// ========== 移动 ==========

// InputToProto core 输入转网络消息
func InputToProto(in core.InputCommand) PlayerInput {
	return PlayerInput{
		InputID:       in.ID,
		MoveDirection: in.MoveDirection,
		JumpPressed:   in.JumpRequested,
		Timestamp:     in.Timestamp,
	}
}

// ProtoToInput 网络消息转 core 输入
func ProtoToInput(in PlayerInput) core.InputCommand {
	return core.InputCommand{
		ID:            in.InputID,
		MoveDirection: in.MoveDirection,
		JumpRequested: in.JumpPressed,
		Timestamp:     in.Timestamp,
	}
}

// StateToProto 权威状态转网络消息
func StateToProto(entityID int32, s core.AuthoritativeState) ServerState {
	return ServerState{
		EntityID:    entityID,
		Position:    s.Position,
		Velocity:    s.Velocity,
		LastInputID: s.LastProcessedInputID,
		Timestamp:   s.Timestamp,
	}
}

// ProtoToState 网络消息转权威状态
func ProtoToState(s ServerState) core.AuthoritativeState {
	return core.AuthoritativeState{
		Position:             s.Position,
		Velocity:             s.Velocity,
		LastProcessedInputID: s.LastInputID,
		Timestamp:            s.Timestamp,
	}
}

// ========== 交互 ==========

func headerToProto(h interact.Header) InteractHeader {
	return InteractHeader{
		CommandID:           h.CommandID,
		RequestConnectionID: h.RequestingEntityID,
		Tick:                h.Tick,
		Category:            uint8(h.Category),
		Position:            h.Position,
		TimestampUTC:        h.TimestampUTC,
		Authority:           uint8(h.Authority),
	}
}

func protoToHeader(h InteractHeader) interact.Header {
	return interact.Header{
		CommandID:          h.CommandID,
		RequestingEntityID: h.RequestConnectionID,
		Tick:               h.Tick,
		Category:           interact.Category(h.Category),
		Position:           h.Position,
		TimestampUTC:       h.TimestampUTC,
		Authority:          interact.Authority(h.Authority),
	}
}

// InteractToProto 交互请求转网络信封；CommandRequest 不走这个信封
func InteractToProto(req interact.Request) (InteractRequest, error) {
	switch r := req.(type) {
	case interact.SceneInteractRequest:
		return InteractRequest{Scene: &SceneInteractRequest{
			Header:          headerToProto(r.Header),
			SceneItemID:     r.SceneItemID,
			InteractionType: uint8(r.InteractionType),
		}}, nil
	case interact.PlayerInteractRequest:
		return InteractRequest{Player: &PlayerInteractRequest{
			Header:         headerToProto(r.Header),
			TargetPlayerID: r.TargetPlayerID,
			InteractionID:  r.InteractionID,
		}}, nil
	case interact.EnvironmentInteractRequest:
		return InteractRequest{Environment: &EnvironmentInteractRequest{
			Header:    headerToProto(r.Header),
			HazardID:  r.HazardID,
			Intensity: r.Intensity,
		}}, nil
	}
	return InteractRequest{}, fmt.Errorf("%w: %T", ErrWrongType, req)
}

// ProtoToInteract 网络信封转交互请求，不做合法性检查，由队列排空时校验
func ProtoToInteract(m InteractRequest) (interact.Request, error) {
	switch {
	case m.Scene != nil:
		return interact.SceneInteractRequest{
			Header:          protoToHeader(m.Scene.Header),
			SceneItemID:     m.Scene.SceneItemID,
			InteractionType: interact.InteractionType(m.Scene.InteractionType),
		}, nil
	case m.Player != nil:
		return interact.PlayerInteractRequest{
			Header:         protoToHeader(m.Player.Header),
			TargetPlayerID: m.Player.TargetPlayerID,
			InteractionID:  m.Player.InteractionID,
		}, nil
	case m.Environment != nil:
		return interact.EnvironmentInteractRequest{
			Header:    protoToHeader(m.Environment.Header),
			HazardID:  m.Environment.HazardID,
			Intensity: m.Environment.Intensity,
		}, nil
	}
	return nil, fmt.Errorf("%w: empty interact request", ErrMalformed)
}

// ========== 指令 / 商店 ==========

// ItemsBuyToProto 购买指令转网络消息
func ItemsBuyToProto(cmd interact.ItemsBuyCommand) ItemsBuyCommand {
	out := ItemsBuyCommand{
		Header: CommandHeader{
			ConnectionID: cmd.Header.ConnectionID,
			CommandType:  uint8(cmd.Header.CommandType),
			Authority:    uint8(cmd.Header.Authority),
			ExecuteType:  uint8(cmd.Header.ExecuteType),
		},
		Items: make([]BuyItem, 0, len(cmd.Items)),
	}
	for _, it := range cmd.Items {
		out.Items = append(out.Items, BuyItem{
			Count:        it.Count,
			ItemShopID:   it.ItemShopID,
			ItemType:     it.ItemType,
			ItemConfigID: it.ItemConfigID,
		})
	}
	return out
}

// ProtoToItemsBuy 网络消息转购买指令
func ProtoToItemsBuy(m ItemsBuyCommand) interact.ItemsBuyCommand {
	out := interact.ItemsBuyCommand{
		Header: interact.CommandHeader{
			ConnectionID: m.Header.ConnectionID,
			CommandType:  interact.CommandType(m.Header.CommandType),
			Authority:    interact.Authority(m.Header.Authority),
			ExecuteType:  interact.ExecuteType(m.Header.ExecuteType),
		},
	}
	for _, it := range m.Items {
		out.Items = append(out.Items, interact.ItemPurchase{
			Count:        it.Count,
			ItemShopID:   it.ItemShopID,
			ItemType:     it.ItemType,
			ItemConfigID: it.ItemConfigID,
		})
	}
	return out
}

// OfferToProto 商品转网络消息
func OfferToProto(o shop.Offer) ShopOffer {
	return ShopOffer{
		ShopID:         o.ShopID,
		ItemType:       uint8(o.ItemType),
		ItemConfigID:   o.ItemConfigID,
		Price:          o.Price,
		RemainingCount: o.RemainingCount,
	}
}

// NewShopSync 构造商店同步消息
func NewShopSync(connectionID int32, offers []shop.Offer) ShopSync {
	out := ShopSync{ConnectionID: connectionID, Offers: make([]ShopOffer, 0, len(offers))}
	for _, o := range offers {
		out.Offers = append(out.Offers, OfferToProto(o))
	}
	return out
}

// ========== 属性 ==========

// NewPropertySync 按属性类型顺序导出当前值
func NewPropertySync(entityID int32, set core.PropertySet) PropertySync {
	out := PropertySync{EntityID: entityID}
	for _, t := range set.Types() {
		d, _ := set.Get(t)
		out.Properties = append(out.Properties, PropertyValue{
			Type:       uint8(t),
			Current:    d.Current,
			MaxCurrent: d.MaxCurrent,
		})
	}
	return out
}
