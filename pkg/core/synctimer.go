package core

// SyncTimer 按固定间隔触发快照广播，累计误差留到下一次
type SyncTimer struct {
	interval float32
	accum    float32
}

func NewSyncTimer(interval float32) *SyncTimer {
	return &SyncTimer{interval: interval}
}

// Advance 推进 dt 秒，到达间隔时返回 true
func (t *SyncTimer) Advance(dt float32) bool {
	t.accum += dt
	if t.accum+1e-6 < t.interval {
		return false
	}
	t.accum -= t.interval
	if t.accum < 0 {
		t.accum = 0
	}
	return true
}

// SetInterval 修改间隔，已累计的时间保留
func (t *SyncTimer) SetInterval(interval float32) {
	t.interval = interval
}
