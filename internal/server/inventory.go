package server

import "sort"

// ItemStack 背包中的一格
type ItemStack struct {
	ItemConfigID uint32
	Count        int32
}

// Inventory 房间内所有实体的背包，只由房间循环访问
type Inventory struct {
	items map[int32]map[uint32]int32
}

func NewInventory() *Inventory {
	return &Inventory{items: make(map[int32]map[uint32]int32)}
}

// Add 增加物品，count <= 0 忽略
func (inv *Inventory) Add(entityID int32, itemConfigID uint32, count int32) {
	if count <= 0 {
		return
	}
	bag, ok := inv.items[entityID]
	if !ok {
		bag = make(map[uint32]int32)
		inv.items[entityID] = bag
	}
	bag[itemConfigID] += count
}

func (inv *Inventory) Count(entityID int32, itemConfigID uint32) int32 {
	return inv.items[entityID][itemConfigID]
}

// Items 按配置 id 排序
func (inv *Inventory) Items(entityID int32) []ItemStack {
	bag := inv.items[entityID]
	out := make([]ItemStack, 0, len(bag))
	for id, n := range bag {
		out = append(out, ItemStack{ItemConfigID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemConfigID < out[j].ItemConfigID })
	return out
}

func (inv *Inventory) Remove(entityID int32) {
	delete(inv.items, entityID)
}
