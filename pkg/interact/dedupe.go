package interact

type dedupeKey struct {
	entityID  int32
	commandID uint32
}

// Deduper 记录最近处理过的 (实体, 指令 id)，重发的同一指令在 ttl 个 tick 内不会重复执行
type Deduper struct {
	ttl       int32
	seen      map[dedupeKey]int32
	lastEvict int32
}

// NewDeduper ttl <= 0 时不做去重
func NewDeduper(ttl int32) *Deduper {
	return &Deduper{ttl: ttl, seen: make(map[dedupeKey]int32)}
}

// Seen 已处理过返回 true，否则记录并返回 false
func (d *Deduper) Seen(entityID int32, commandID uint32, tick int32) bool {
	if d.ttl <= 0 {
		return false
	}
	key := dedupeKey{entityID: entityID, commandID: commandID}
	if at, ok := d.seen[key]; ok && tick-at < d.ttl {
		return true
	}
	d.seen[key] = tick
	return false
}

// Evict 清理过期记录
func (d *Deduper) Evict(tick int32) {
	if d.ttl <= 0 || tick-d.lastEvict < d.ttl/4 {
		return
	}
	d.lastEvict = tick
	for key, at := range d.seen {
		if tick-at >= d.ttl {
			delete(d.seen, key)
		}
	}
}

// Forget 清掉某个实体的全部记录，重连后客户端的指令 id 会从头开始
func (d *Deduper) Forget(entityID int32) {
	for key := range d.seen {
		if key.entityID == entityID {
			delete(d.seen, key)
		}
	}
}

// Len 当前记录数
func (d *Deduper) Len() int {
	return len(d.seen)
}
