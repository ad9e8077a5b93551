package client

import (
	"testing"

	"riftline/pkg/core"
	"riftline/pkg/protocol"
)

func speedSync(entityID int32, speed float32) protocol.PropertySync {
	return protocol.PropertySync{
		EntityID:   entityID,
		Properties: []protocol.PropertyValue{{Type: uint8(core.PropertyMoveSpeed), Current: speed}},
	}
}

func TestPropertyInbox_KeepsLatestPerEntity(t *testing.T) {
	b := newPropertyInbox()
	// 远超原来通道容量的同步也不会丢掉最新值
	for i := 0; i < 4*eventBufferSize; i++ {
		b.put(speedSync(1, float32(i)))
	}
	b.put(speedSync(2, 3))
	b.put(speedSync(1, 12))

	got := b.drain()
	if len(got) != 2 {
		t.Fatalf("drained %d syncs, want 2", len(got))
	}
	if got[0].EntityID != 1 || got[0].Properties[0].Current != 12 {
		t.Fatalf("entity 1 sync = %+v, want move speed 12", got[0])
	}
	if got[1].EntityID != 2 || got[1].Properties[0].Current != 3 {
		t.Fatalf("entity 2 sync = %+v", got[1])
	}
	if again := b.drain(); again != nil {
		t.Fatalf("second drain = %+v, want nothing", again)
	}
}
