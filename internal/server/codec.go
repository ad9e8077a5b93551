package server

import (
	"fmt"

	"riftline/pkg/core"
	"riftline/pkg/protocol"
)

// DecodePacket 解析服务器收到的数据包
// 未知类型不算错误，返回 EventUnknown 由调用方记录后忽略
func DecodePacket(data []byte) (*ServerEvent, error) {
	pkt, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}

	switch pkt.Type {
	case protocol.MessageTypeJoinRequest:
		var req protocol.JoinRequest
		if err := protocol.ParsePayload(pkt, &req); err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventJoin,
			Join: &JoinEvent{PlayerName: req.PlayerName, RoomID: req.RoomID},
		}, nil

	case protocol.MessageTypeReconnectRequest:
		var req protocol.ReconnectRequest
		if err := protocol.ParsePayload(pkt, &req); err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:      EventReconnect,
			Reconnect: &ReconnectEvent{SessionToken: req.SessionToken},
		}, nil

	case protocol.MessageTypeClientInput:
		var input protocol.ClientInput
		if err := protocol.ParsePayload(pkt, &input); err != nil {
			return nil, err
		}
		items := make([]core.InputCommand, 0, len(input.Inputs))
		for _, in := range input.Inputs {
			items = append(items, protocol.ProtoToInput(in))
		}
		return &ServerEvent{
			Kind:  EventInput,
			Input: &InputEvent{Inputs: items},
		}, nil

	case protocol.MessageTypeInteractRequest:
		var msg protocol.InteractRequest
		if err := protocol.ParsePayload(pkt, &msg); err != nil {
			return nil, err
		}
		req, err := protocol.ProtoToInteract(msg)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:     EventInteract,
			Interact: &InteractEvent{Request: req},
		}, nil

	case protocol.MessageTypeBuyRequest:
		var req protocol.BuyRequest
		if err := protocol.ParsePayload(pkt, &req); err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventBuy,
			Buy: &BuyEvent{
				ConnectionID: req.ConnectionID,
				OfferID:      req.OfferID,
				Count:        req.Count,
			},
		}, nil

	case protocol.MessageTypePing:
		var ping protocol.Ping
		if err := protocol.ParsePayload(pkt, &ping); err != nil {
			return nil, err
		}
		return &ServerEvent{Kind: EventPing, Ping: &PingEvent{ClientTime: ping.ClientTime}}, nil

	case protocol.MessageTypePong:
		var pong protocol.Pong
		if err := protocol.ParsePayload(pkt, &pong); err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventPong,
			Pong: &PongEvent{ClientTime: pong.ClientTime, ServerTime: pong.ServerTime},
		}, nil

	default:
		return &ServerEvent{Kind: EventUnknown, Type: uint32(pkt.Type)}, nil
	}
}
