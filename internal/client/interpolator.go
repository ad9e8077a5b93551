package client

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

// RemoteView 远端实体的显示状态
type RemoteView struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
}

type remoteEntity struct {
	view   RemoteView
	target core.AuthoritativeState
}

// Interpolator 远端实体插值：只保留最近一份快照，不预测，不回滚
type Interpolator struct {
	syncInterval float32
	entities     map[int32]*remoteEntity
}

// NewInterpolator 创建插值器，syncInterval 为服务器快照间隔（秒）
func NewInterpolator(syncInterval float32) *Interpolator {
	return &Interpolator{
		syncInterval: syncInterval,
		entities:     make(map[int32]*remoteEntity),
	}
}

// Push 收到权威快照；第一次出现的实体直接放到快照位置
func (ip *Interpolator) Push(entityID int32, s core.AuthoritativeState) {
	e, ok := ip.entities[entityID]
	if !ok {
		ip.entities[entityID] = &remoteEntity{
			view:   RemoteView{Position: s.Position, Velocity: s.Velocity},
			target: s,
		}
		return
	}
	e.target = s
}

// Step 每帧向最新快照靠近 clamp(dt/syncInterval, 0, 1)
func (ip *Interpolator) Step(dt float32) {
	t := float32(1)
	if ip.syncInterval > 0 {
		t = mgl32.Clamp(dt/ip.syncInterval, 0, 1)
	}
	for _, e := range ip.entities {
		e.view.Position = core.LerpVec3(e.view.Position, e.target.Position, t)
		e.view.Velocity = core.LerpVec3(e.view.Velocity, e.target.Velocity, t)
	}
}

// Get 读取显示状态
func (ip *Interpolator) Get(entityID int32) (RemoteView, bool) {
	e, ok := ip.entities[entityID]
	if !ok {
		return RemoteView{}, false
	}
	return e.view, true
}

// Remove 实体离开
func (ip *Interpolator) Remove(entityID int32) {
	delete(ip.entities, entityID)
}

// IDs 按 id 排序的远端实体
func (ip *Interpolator) IDs() []int32 {
	ids := make([]int32, 0, len(ip.entities))
	for id := range ip.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetSyncInterval 服务器快照间隔变化
func (ip *Interpolator) SetSyncInterval(syncInterval float32) {
	ip.syncInterval = syncInterval
}
