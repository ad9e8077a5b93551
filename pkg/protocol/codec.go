package protocol

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// 字段号按声明顺序从 1 开始

func (e *encoder) msg(num protowire.Number, m appender) {
	e.message(num, m.appendTo)
}

func (p Packet) appendTo(e *encoder) {
	e.varint(1, uint64(p.Type))
	e.bytes(2, p.Payload)
}

func (p *Packet) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readVarint(typ, b)
			p.Type = MessageType(v)
			return n
		case 2:
			v, n := readBytes(typ, b)
			p.Payload = append([]byte(nil), v...)
			return n
		}
		return 0
	})
}

// ---------- 交互 ----------

func (h InteractHeader) appendTo(e *encoder) {
	e.varint(1, uint64(h.CommandID))
	e.sint(2, int64(h.RequestConnectionID))
	e.sint(3, int64(h.Tick))
	e.varint(4, uint64(h.Category))
	e.cvec3(5, h.Position)
	e.sint(6, h.TimestampUTC)
	e.varint(7, uint64(h.Authority))
}

func (h *InteractHeader) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readVarint(typ, b)
			h.CommandID = uint32(v)
			return n
		case 2:
			v, n := readSint(typ, b)
			h.RequestConnectionID = int32(v)
			return n
		case 3:
			v, n := readSint(typ, b)
			h.Tick = int32(v)
			return n
		case 4:
			v, n := readVarint(typ, b)
			h.Category = uint8(v)
			return n
		case 5:
			return readMessage(typ, b, func(v []byte) error { return decodeCVec3(v, &h.Position) })
		case 6:
			v, n := readSint(typ, b)
			h.TimestampUTC = v
			return n
		case 7:
			v, n := readVarint(typ, b)
			h.Authority = uint8(v)
			return n
		}
		return 0
	})
}

func (r SceneInteractRequest) appendTo(e *encoder) {
	e.msg(1, r.Header)
	e.varint(2, uint64(r.SceneItemID))
	e.varint(3, uint64(r.InteractionType))
}

func (r *SceneInteractRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return readMessage(typ, b, r.Header.decode)
		case 2:
			v, n := readVarint(typ, b)
			r.SceneItemID = uint32(v)
			return n
		case 3:
			v, n := readVarint(typ, b)
			r.InteractionType = uint8(v)
			return n
		}
		return 0
	})
}

func (r PlayerInteractRequest) appendTo(e *encoder) {
	e.msg(1, r.Header)
	e.varint(2, uint64(r.TargetPlayerID))
	e.varint(3, uint64(r.InteractionID))
}

func (r *PlayerInteractRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return readMessage(typ, b, r.Header.decode)
		case 2:
			v, n := readVarint(typ, b)
			r.TargetPlayerID = uint32(v)
			return n
		case 3:
			v, n := readVarint(typ, b)
			r.InteractionID = uint16(v)
			return n
		}
		return 0
	})
}

func (r EnvironmentInteractRequest) appendTo(e *encoder) {
	e.msg(1, r.Header)
	e.varint(2, uint64(r.HazardID))
	e.float(3, r.Intensity)
}

func (r *EnvironmentInteractRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return readMessage(typ, b, r.Header.decode)
		case 2:
			v, n := readVarint(typ, b)
			r.HazardID = uint32(v)
			return n
		case 3:
			v, n := readFloat(typ, b)
			r.Intensity = v
			return n
		}
		return 0
	})
}

func (InteractRequest) MessageType() MessageType { return MessageTypeInteractRequest }

func (r InteractRequest) appendTo(e *encoder) {
	switch {
	case r.Scene != nil:
		e.msg(1, *r.Scene)
	case r.Player != nil:
		e.msg(2, *r.Player)
	case r.Environment != nil:
		e.msg(3, *r.Environment)
	}
}

func (r *InteractRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			r.Scene, r.Player, r.Environment = &SceneInteractRequest{}, nil, nil
			return readMessage(typ, b, r.Scene.decode)
		case 2:
			r.Scene, r.Player, r.Environment = nil, &PlayerInteractRequest{}, nil
			return readMessage(typ, b, r.Player.decode)
		case 3:
			r.Scene, r.Player, r.Environment = nil, nil, &EnvironmentInteractRequest{}
			return readMessage(typ, b, r.Environment.decode)
		}
		return 0
	})
}

// ---------- 移动 ----------

func (in PlayerInput) appendTo(e *encoder) {
	e.varint(1, uint64(in.InputID))
	e.vec2(2, in.MoveDirection)
	e.boolean(3, in.JumpPressed)
	e.float(4, in.Timestamp)
}

func (in *PlayerInput) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readVarint(typ, b)
			in.InputID = uint32(v)
			return n
		case 2:
			return readMessage(typ, b, func(v []byte) error { return decodeVec2(v, &in.MoveDirection) })
		case 3:
			v, n := readBool(typ, b)
			in.JumpPressed = v
			return n
		case 4:
			v, n := readFloat(typ, b)
			in.Timestamp = v
			return n
		}
		return 0
	})
}

func (ClientInput) MessageType() MessageType { return MessageTypeClientInput }

func (c ClientInput) appendTo(e *encoder) {
	for _, in := range c.Inputs {
		e.msg(1, in)
	}
}

func (c *ClientInput) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return 0
		}
		var in PlayerInput
		n := readMessage(typ, b, in.decode)
		if n > 0 {
			c.Inputs = append(c.Inputs, in)
		}
		return n
	})
}

func (s ServerState) appendTo(e *encoder) {
	e.sint(1, int64(s.EntityID))
	e.vec3(2, s.Position)
	e.vec3(3, s.Velocity)
	e.varint(4, uint64(s.LastInputID))
	e.float(5, s.Timestamp)
}

func (s *ServerState) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			s.EntityID = int32(v)
			return n
		case 2:
			return readMessage(typ, b, func(v []byte) error { return decodeVec3(v, &s.Position) })
		case 3:
			return readMessage(typ, b, func(v []byte) error { return decodeVec3(v, &s.Velocity) })
		case 4:
			v, n := readVarint(typ, b)
			s.LastInputID = uint32(v)
			return n
		case 5:
			v, n := readFloat(typ, b)
			s.Timestamp = v
			return n
		}
		return 0
	})
}

func (WorldState) MessageType() MessageType { return MessageTypeWorldState }

func (w WorldState) appendTo(e *encoder) {
	e.sint(1, int64(w.Tick))
	for _, s := range w.States {
		e.msg(2, s)
	}
}

func (w *WorldState) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			w.Tick = int32(v)
			return n
		case 2:
			var s ServerState
			n := readMessage(typ, b, s.decode)
			if n > 0 {
				w.States = append(w.States, s)
			}
			return n
		}
		return 0
	})
}

// ---------- 指令 / 商店 ----------

func (h CommandHeader) appendTo(e *encoder) {
	e.sint(1, int64(h.ConnectionID))
	e.varint(2, uint64(h.CommandType))
	e.varint(3, uint64(h.Authority))
	e.varint(4, uint64(h.ExecuteType))
}

func (h *CommandHeader) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			h.ConnectionID = int32(v)
			return n
		case 2:
			v, n := readVarint(typ, b)
			h.CommandType = uint8(v)
			return n
		case 3:
			v, n := readVarint(typ, b)
			h.Authority = uint8(v)
			return n
		case 4:
			v, n := readVarint(typ, b)
			h.ExecuteType = uint8(v)
			return n
		}
		return 0
	})
}

func (it BuyItem) appendTo(e *encoder) {
	e.sint(1, int64(it.Count))
	e.sint(2, it.ItemShopID)
	e.varint(3, uint64(it.ItemType))
	e.varint(4, uint64(it.ItemConfigID))
}

func (it *BuyItem) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			it.Count = int32(v)
			return n
		case 2:
			v, n := readSint(typ, b)
			it.ItemShopID = v
			return n
		case 3:
			v, n := readVarint(typ, b)
			it.ItemType = uint8(v)
			return n
		case 4:
			v, n := readVarint(typ, b)
			it.ItemConfigID = uint32(v)
			return n
		}
		return 0
	})
}

func (c ItemsBuyCommand) appendTo(e *encoder) {
	e.msg(1, c.Header)
	for _, it := range c.Items {
		e.msg(2, it)
	}
}

func (c *ItemsBuyCommand) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return readMessage(typ, b, c.Header.decode)
		case 2:
			var it BuyItem
			n := readMessage(typ, b, it.decode)
			if n > 0 {
				c.Items = append(c.Items, it)
			}
			return n
		}
		return 0
	})
}

func (o ShopOffer) appendTo(e *encoder) {
	e.sint(1, o.ShopID)
	e.varint(2, uint64(o.ItemType))
	e.varint(3, uint64(o.ItemConfigID))
	e.sint(4, int64(o.Price))
	e.sint(5, int64(o.RemainingCount))
}

func (o *ShopOffer) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			o.ShopID = v
			return n
		case 2:
			v, n := readVarint(typ, b)
			o.ItemType = uint8(v)
			return n
		case 3:
			v, n := readVarint(typ, b)
			o.ItemConfigID = uint32(v)
			return n
		case 4:
			v, n := readSint(typ, b)
			o.Price = int32(v)
			return n
		case 5:
			v, n := readSint(typ, b)
			o.RemainingCount = int32(v)
			return n
		}
		return 0
	})
}

func (ShopSync) MessageType() MessageType { return MessageTypeShopSync }

func (s ShopSync) appendTo(e *encoder) {
	e.sint(1, int64(s.ConnectionID))
	for _, o := range s.Offers {
		e.msg(2, o)
	}
}

func (s *ShopSync) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			s.ConnectionID = int32(v)
			return n
		case 2:
			var o ShopOffer
			n := readMessage(typ, b, o.decode)
			if n > 0 {
				s.Offers = append(s.Offers, o)
			}
			return n
		}
		return 0
	})
}

func (BuyRequest) MessageType() MessageType { return MessageTypeBuyRequest }

func (r BuyRequest) appendTo(e *encoder) {
	e.sint(1, r.OfferID)
	e.sint(2, int64(r.Count))
	e.sint(3, int64(r.ConnectionID))
}

func (r *BuyRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			r.OfferID = v
			return n
		case 2:
			v, n := readSint(typ, b)
			r.Count = int32(v)
			return n
		case 3:
			v, n := readSint(typ, b)
			r.ConnectionID = int32(v)
			return n
		}
		return 0
	})
}

func (BuyResponse) MessageType() MessageType { return MessageTypeBuyResponse }

func (r BuyResponse) appendTo(e *encoder) {
	e.boolean(1, r.Success)
	e.str(2, r.ErrorMessage)
	e.msg(3, r.Command)
	if r.Replaced != nil {
		e.msg(4, *r.Replaced)
	}
}

func (r *BuyResponse) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readBool(typ, b)
			r.Success = v
			return n
		case 2:
			v, n := readString(typ, b)
			r.ErrorMessage = v
			return n
		case 3:
			return readMessage(typ, b, r.Command.decode)
		case 4:
			r.Replaced = &ShopOffer{}
			return readMessage(typ, b, r.Replaced.decode)
		}
		return 0
	})
}

// ---------- 会话 ----------

func (JoinRequest) MessageType() MessageType { return MessageTypeJoinRequest }

func (r JoinRequest) appendTo(e *encoder) {
	e.str(1, r.PlayerName)
	e.str(2, r.RoomID)
}

func (r *JoinRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readString(typ, b)
			r.PlayerName = v
			return n
		case 2:
			v, n := readString(typ, b)
			r.RoomID = v
			return n
		}
		return 0
	})
}

func (JoinResponse) MessageType() MessageType { return MessageTypeJoinResponse }

func (r JoinResponse) appendTo(e *encoder) {
	e.boolean(1, r.Success)
	e.sint(2, int64(r.EntityID))
	e.str(3, r.ErrorMessage)
	e.sint(4, int64(r.TPS))
	e.str(5, r.SessionToken)
	e.str(6, r.RoomID)
	e.vec3(7, r.Spawn)
	e.float(8, r.MoveSpeed)
	e.float(9, r.JumpSpeed)
	e.float(10, r.Gravity)
	e.float(11, r.SyncInterval)
}

func (r *JoinResponse) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			r.Success, n = readBool(typ, b)
		case 2:
			var v int64
			v, n = readSint(typ, b)
			r.EntityID = int32(v)
		case 3:
			r.ErrorMessage, n = readString(typ, b)
		case 4:
			var v int64
			v, n = readSint(typ, b)
			r.TPS = int32(v)
		case 5:
			r.SessionToken, n = readString(typ, b)
		case 6:
			r.RoomID, n = readString(typ, b)
		case 7:
			n = readMessage(typ, b, func(v []byte) error { return decodeVec3(v, &r.Spawn) })
		case 8:
			r.MoveSpeed, n = readFloat(typ, b)
		case 9:
			r.JumpSpeed, n = readFloat(typ, b)
		case 10:
			r.Gravity, n = readFloat(typ, b)
		case 11:
			r.SyncInterval, n = readFloat(typ, b)
		}
		return n
	})
}

func (ReconnectRequest) MessageType() MessageType { return MessageTypeReconnectRequest }

func (r ReconnectRequest) appendTo(e *encoder) {
	e.str(1, r.SessionToken)
}

func (r *ReconnectRequest) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return 0
		}
		v, n := readString(typ, b)
		r.SessionToken = v
		return n
	})
}

func (ReconnectResponse) MessageType() MessageType { return MessageTypeReconnectResponse }

func (r ReconnectResponse) appendTo(e *encoder) {
	e.boolean(1, r.Success)
	e.sint(2, int64(r.EntityID))
	e.str(3, r.ErrorMessage)
	e.str(4, r.RoomID)
	if r.State != nil {
		e.msg(5, *r.State)
	}
}

func (r *ReconnectResponse) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			r.Success, n = readBool(typ, b)
		case 2:
			var v int64
			v, n = readSint(typ, b)
			r.EntityID = int32(v)
		case 3:
			r.ErrorMessage, n = readString(typ, b)
		case 4:
			r.RoomID, n = readString(typ, b)
		case 5:
			r.State = &ServerState{}
			n = readMessage(typ, b, r.State.decode)
		}
		return n
	})
}

func (Ping) MessageType() MessageType { return MessageTypePing }

func (p Ping) appendTo(e *encoder) {
	e.sint(1, p.ClientTime)
}

func (p *Ping) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return 0
		}
		v, n := readSint(typ, b)
		p.ClientTime = v
		return n
	})
}

func (Pong) MessageType() MessageType { return MessageTypePong }

func (p Pong) appendTo(e *encoder) {
	e.sint(1, p.ClientTime)
	e.sint(2, p.ServerTime)
}

func (p *Pong) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			p.ClientTime, n = readSint(typ, b)
		case 2:
			p.ServerTime, n = readSint(typ, b)
		}
		return n
	})
}

func (PlayerLeave) MessageType() MessageType { return MessageTypePlayerLeave }

func (p PlayerLeave) appendTo(e *encoder) {
	e.sint(1, int64(p.EntityID))
}

func (p *PlayerLeave) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return 0
		}
		v, n := readSint(typ, b)
		p.EntityID = int32(v)
		return n
	})
}

func (v PropertyValue) appendTo(e *encoder) {
	e.varint(1, uint64(v.Type))
	e.float(2, v.Current)
	e.float(3, v.MaxCurrent)
}

func (v *PropertyValue) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			var t uint64
			t, n = readVarint(typ, b)
			v.Type = uint8(t)
		case 2:
			v.Current, n = readFloat(typ, b)
		case 3:
			v.MaxCurrent, n = readFloat(typ, b)
		}
		return n
	})
}

func (PropertySync) MessageType() MessageType { return MessageTypePropertySync }

func (s PropertySync) appendTo(e *encoder) {
	e.sint(1, int64(s.EntityID))
	for _, v := range s.Properties {
		e.msg(2, v)
	}
}

func (s *PropertySync) decode(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			v, n := readSint(typ, b)
			s.EntityID = int32(v)
			return n
		case 2:
			var v PropertyValue
			n := readMessage(typ, b, v.decode)
			if n > 0 {
				s.Properties = append(s.Properties, v)
			}
			return n
		}
		return 0
	})
}
