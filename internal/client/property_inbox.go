package client

import (
	"sync"

	"riftline/pkg/protocol"
)

// propertyInbox 每个实体只保留最新一次属性同步
// 同步带的是完整属性集，旧的被覆盖不会丢信息
type propertyInbox struct {
	mu     sync.Mutex
	latest map[int32]protocol.PropertySync
	order  []int32
}

func newPropertyInbox() *propertyInbox {
	return &propertyInbox{latest: make(map[int32]protocol.PropertySync)}
}

func (b *propertyInbox) put(m protocol.PropertySync) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.latest[m.EntityID]; !ok {
		b.order = append(b.order, m.EntityID)
	}
	b.latest[m.EntityID] = m
}

// drain 按实体第一次出现的顺序取出全部
func (b *propertyInbox) drain() []protocol.PropertySync {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.order) == 0 {
		return nil
	}
	out := make([]protocol.PropertySync, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.latest[id])
	}
	clear(b.latest)
	b.order = b.order[:0]
	return out
}
