package core

// HybridIDGenerator 由配置 id、当前 tick 与同 tick 内序号拼出的 id
// 同一局内配置 id 被反复使用时依然唯一
//
//	bit 63      0
//	bit 48..62  configID（低 15 位）
//	bit 16..47  tick
//	bit 0..15   序号
type HybridIDGenerator struct {
	tick int32
	seq  map[uint32]uint16
}

// NewHybridIDGenerator 创建生成器
func NewHybridIDGenerator() *HybridIDGenerator {
	return &HybridIDGenerator{seq: make(map[uint32]uint16)}
}

// Next 生成新 id；tick 需要单调不减
func (g *HybridIDGenerator) Next(configID uint32, tick int32) int64 {
	if tick > g.tick {
		g.tick = tick
		clear(g.seq)
	}
	n := g.seq[configID]
	g.seq[configID] = n + 1
	return int64(configID&0x7FFF)<<48 | int64(uint32(tick))<<16 | int64(n)
}
