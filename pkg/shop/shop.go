package shop

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"riftline/pkg/core"
	"riftline/pkg/interact"
)

const (
	// DefaultOffersPerShop 每个连接的商品数
	DefaultOffersPerShop = 4

	// 商店产生的指令 id 占用高位，和客户端自增的交互指令 id 不会撞车
	shopCommandIDBase uint32 = 1 << 31
)

var (
	ErrNotOwner          = errors.New("shop: caller does not own connection")
	ErrOfferNotFound     = errors.New("shop: offer not found")
	ErrInvalidCount      = errors.New("shop: invalid count")
	ErrInsufficientStock = errors.New("shop: count exceeds remaining stock")
	ErrEmptyTier         = errors.New("shop: no item config in tier")
)

// Offer 一个随机商品及其剩余可购数量
type Offer struct {
	ShopID         int64
	ItemType       ItemType
	ItemConfigID   uint32
	Price          int32
	RemainingCount int32
}

// State 单个连接的商店状态
// 按值使用：每次修改都产生新的 offers 表并整体写回 Service.states
type State struct {
	ConnectionID int32
	offers       map[int64]Offer
}

func (s State) with(remove int64, put ...Offer) State {
	next := make(map[int64]Offer, len(s.offers)+len(put))
	for id, o := range s.offers {
		if id != remove {
			next[id] = o
		}
	}
	for _, o := range put {
		next[o.ShopID] = o
	}
	return State{ConnectionID: s.ConnectionID, offers: next}
}

// Sorted 按 ShopID 排序的商品列表
func (s State) Sorted() []Offer {
	out := make([]Offer, 0, len(s.offers))
	for _, o := range s.offers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShopID < out[j].ShopID })
	return out
}

// CommandSink 购买指令的去处，通常是交互指令队列
type CommandSink interface {
	Enqueue(req interact.Request)
}

// Service 商店服务，由房间循环独占使用
type Service struct {
	catalog       *Catalog
	rng           *rand.Rand
	ids           *core.HybridIDGenerator
	sink          CommandSink
	now           func() time.Time
	offersPerShop int

	states        map[int32]State
	nextCommandID uint32
}

// NewService 创建商店服务
func NewService(catalog *Catalog, sink CommandSink, seed uint64, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:       catalog,
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ids:           core.NewHybridIDGenerator(),
		sink:          sink,
		now:           now,
		offersPerShop: DefaultOffersPerShop,
		states:        make(map[int32]State),
	}
}

// Roll 为连接生成一组新商品，覆盖旧的
func (s *Service) Roll(connectionID int32, tick int32) ([]Offer, error) {
	types := s.catalog.Types()
	if len(types) == 0 {
		return nil, ErrEmptyTier
	}

	offers := make([]Offer, 0, s.offersPerShop)
	for i := 0; i < s.offersPerShop; i++ {
		o, err := s.rollOffer(types[i%len(types)], tick)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}

	state := State{ConnectionID: connectionID}.with(0, offers...)
	s.states[connectionID] = state
	return state.Sorted(), nil
}

func (s *Service) rollOffer(t ItemType, tick int32) (Offer, error) {
	tier := s.catalog.Tier(t)
	if len(tier) == 0 {
		return Offer{}, fmt.Errorf("%w: %d", ErrEmptyTier, t)
	}
	cfg := tier[s.rng.IntN(len(tier))]
	stock := int32(1)
	if cfg.MaxStock > 1 {
		stock = 1 + s.rng.Int32N(cfg.MaxStock)
	}
	return Offer{
		ShopID:         s.ids.Next(cfg.ID, tick),
		ItemType:       cfg.Type,
		ItemConfigID:   cfg.ID,
		Price:          cfg.Price,
		RemainingCount: stock,
	}, nil
}

// Offers 连接当前的商品
func (s *Service) Offers(connectionID int32) []Offer {
	state, ok := s.states[connectionID]
	if !ok {
		return nil
	}
	return state.Sorted()
}

// Remove 连接离开时清理
func (s *Service) Remove(connectionID int32) {
	delete(s.states, connectionID)
}

// BuyResult 购买结果
type BuyResult struct {
	Command  interact.ItemsBuyCommand
	Replaced *Offer // 商品售罄后补上的新商品
}

// Buy 购买商品。售罄的商品会被同档位的新商品替换，
// 购买本身只产生一条 ItemsBuyCommand 进入指令队列，背包在队列排空时才变化
func (s *Service) Buy(caller int32, connectionID int32, offerID int64, count int32, tick int32, pos core.CompressedVector3) (BuyResult, error) {
	if caller != connectionID {
		return BuyResult{}, ErrNotOwner
	}
	state, ok := s.states[connectionID]
	if !ok {
		return BuyResult{}, fmt.Errorf("%w: %d", ErrOfferNotFound, offerID)
	}
	offer, ok := state.offers[offerID]
	if !ok {
		return BuyResult{}, fmt.Errorf("%w: %d", ErrOfferNotFound, offerID)
	}
	if count <= 0 {
		return BuyResult{}, ErrInvalidCount
	}
	if count > offer.RemainingCount {
		return BuyResult{}, fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, count, offer.RemainingCount)
	}

	var res BuyResult
	offer.RemainingCount -= count
	if offer.RemainingCount == 0 {
		fresh, err := s.rollOffer(offer.ItemType, tick)
		if err != nil {
			return BuyResult{}, err
		}
		s.states[connectionID] = state.with(offerID, fresh)
		res.Replaced = &fresh
	} else {
		s.states[connectionID] = state.with(0, offer)
	}

	res.Command = interact.NewItemsBuyCommand(connectionID, interact.ItemPurchase{
		Count:        count,
		ItemShopID:   offerID,
		ItemType:     uint8(offer.ItemType),
		ItemConfigID: offer.ItemConfigID,
	})

	s.nextCommandID++
	req, err := interact.NewItemsBuyRequest(res.Command, shopCommandIDBase|s.nextCommandID, connectionID, tick, pos, s.now())
	if err != nil {
		return BuyResult{}, err
	}
	s.sink.Enqueue(req)
	return res, nil
}
