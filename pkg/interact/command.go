package interact

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"riftline/pkg/core"
)

// CommandType 通用指令类型
type CommandType uint8

const (
	CommandTypeItem CommandType = iota + 1
)

func (t CommandType) known() bool {
	return t == CommandTypeItem
}

// ExecuteType 指令执行时机
type ExecuteType uint8

const (
	ExecuteImmediate ExecuteType = iota + 1 // 下一次队列排空时执行
)

// CommandHeader 通用指令头
type CommandHeader struct {
	ConnectionID int32       `msgpack:"cid"`
	CommandType  CommandType `msgpack:"type"`
	Authority    Authority   `msgpack:"auth"`
	ExecuteType  ExecuteType `msgpack:"exec"`
}

// ItemPurchase 一条购买记录
type ItemPurchase struct {
	Count        int32  `msgpack:"count"`
	ItemShopID   int64  `msgpack:"shop_id"`
	ItemType     uint8  `msgpack:"item_type"`
	ItemConfigID uint32 `msgpack:"config_id"`
}

// ItemsBuyCommand 购买指令，商店不直接改背包，而是把它当作普通指令排队
type ItemsBuyCommand struct {
	Header CommandHeader  `msgpack:"header"`
	Items  []ItemPurchase `msgpack:"items"`
}

// NewItemsBuyCommand 构造购买指令
func NewItemsBuyCommand(connectionID int32, items ...ItemPurchase) ItemsBuyCommand {
	return ItemsBuyCommand{
		Header: CommandHeader{
			ConnectionID: connectionID,
			CommandType:  CommandTypeItem,
			Authority:    AuthorityClient,
			ExecuteType:  ExecuteImmediate,
		},
		Items: items,
	}
}

// EncodeItemsBuy 序列化购买指令
func EncodeItemsBuy(cmd ItemsBuyCommand) ([]byte, error) {
	data, err := msgpack.Marshal(&cmd)
	if err != nil {
		return nil, fmt.Errorf("interact: encode items buy: %w", err)
	}
	return data, nil
}

// DecodeItemsBuy 反序列化购买指令
func DecodeItemsBuy(data []byte) (ItemsBuyCommand, error) {
	var cmd ItemsBuyCommand
	if err := msgpack.Unmarshal(data, &cmd); err != nil {
		return ItemsBuyCommand{}, fmt.Errorf("interact: decode items buy: %w", err)
	}
	return cmd, nil
}

// NewItemsBuyRequest 把购买指令包装成可以入队的请求
func NewItemsBuyRequest(cmd ItemsBuyCommand, commandID uint32, entityID int32, tick int32, pos core.CompressedVector3, now time.Time) (CommandRequest, error) {
	payload, err := EncodeItemsBuy(cmd)
	if err != nil {
		return CommandRequest{}, err
	}
	return CommandRequest{
		Header: Header{
			CommandID:          commandID,
			RequestingEntityID: entityID,
			Tick:               tick,
			Category:           CategoryCommand,
			Position:           pos,
			TimestampUTC:       now.UTC().UnixMilli(),
			Authority:          cmd.Header.Authority,
		},
		CommandType: CommandTypeItem,
		Payload:     payload,
	}, nil
}
