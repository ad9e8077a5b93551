package interact

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultDedupeTTL 去重窗口（tick），60 TPS 下约 10 秒
const DefaultDedupeTTL = 600

// Handler 处理某个类别的请求；返回的错误只记录日志，不会反馈给客户端
type Handler interface {
	Handle(tick int32, req Request) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(tick int32, req Request) error

func (f HandlerFunc) Handle(tick int32, req Request) error {
	return f(tick, req)
}

// ProcessStats 一次排空的统计
type ProcessStats struct {
	Dispatched int
	Invalid    int
	Duplicates int
	Rejected   int // 处理器拒绝
}

// Queue 服务器端交互指令 FIFO，每个权威 tick 排空一次
// 只由房间循环使用：网络回调通过房间通道把请求送进来，不直接访问队列
type Queue struct {
	items    []Request
	handlers map[Category]Handler
	dedupe   *Deduper
	log      *zap.SugaredLogger
}

// NewQueue 创建队列
func NewQueue(log *zap.SugaredLogger, dedupeTTL int32) *Queue {
	return &Queue{
		items:    make([]Request, 0, 32),
		handlers: make(map[Category]Handler),
		dedupe:   NewDeduper(dedupeTTL),
		log:      log,
	}
}

// Register 注册类别处理器
func (q *Queue) Register(c Category, h Handler) {
	q.handlers[c] = h
}

// Enqueue 追加请求，这是客户端唯一能触达的入口
func (q *Queue) Enqueue(req Request) {
	if req == nil {
		return
	}
	q.items = append(q.items, req)
}

// Forget 实体换了连接，之前的去重记录作废
func (q *Queue) Forget(entityID int32) {
	q.dedupe.Forget(entityID)
}

// Len 队列长度
func (q *Queue) Len() int {
	return len(q.items)
}

// ProcessCommands 按 FIFO 顺序排空本 tick 之前入队的所有请求
// 处理过程中新入队的请求留到下一个 tick
func (q *Queue) ProcessCommands(tick int32) ProcessStats {
	var stats ProcessStats
	if len(q.items) == 0 {
		q.dedupe.Evict(tick)
		return stats
	}

	items := q.items
	q.items = make([]Request, 0, cap(items))

	for _, req := range items {
		if !req.IsValid() {
			stats.Invalid++
			q.log.Debugf("丢弃非法交互请求: %T %+v", req, req.RequestHeader())
			continue
		}

		h := req.RequestHeader()
		if q.dedupe.Seen(h.RequestingEntityID, h.CommandID, tick) {
			stats.Duplicates++
			q.log.Debugf("丢弃重复交互请求: entity=%d command=%d", h.RequestingEntityID, h.CommandID)
			continue
		}

		handler, ok := q.handlers[h.Category]
		if !ok {
			// 类别合法但没有注册处理器：构建/配置错误
			panic(fmt.Sprintf("interact: no handler registered for category %s", h.Category))
		}

		if err := handler.Handle(tick, req); err != nil {
			stats.Rejected++
			q.log.Debugf("交互请求被拒绝: entity=%d command=%d: %v", h.RequestingEntityID, h.CommandID, err)
			continue
		}
		stats.Dispatched++
	}

	q.dedupe.Evict(tick)
	return stats
}

// PassThrough 已定义但尚未实现的类别
func PassThrough(log *zap.SugaredLogger) Handler {
	return HandlerFunc(func(tick int32, req Request) error {
		h := req.RequestHeader()
		log.Debugf("交互类别 %s 暂未实现: entity=%d command=%d", h.Category, h.RequestingEntityID, h.CommandID)
		return nil
	})
}
