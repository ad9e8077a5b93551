package shop

import "sort"

// ItemType 商品档位，同档位商品可以互相替换
type ItemType uint8

const (
	ItemTypeConsumable ItemType = iota + 1
	ItemTypeMaterial
	ItemTypeEquipment
)

// ItemConfig 商品配置
type ItemConfig struct {
	ID       uint32
	Type     ItemType
	Price    int32
	MaxStock int32
}

// Catalog 按档位分组的商品配置
type Catalog struct {
	byType map[ItemType][]ItemConfig
	types  []ItemType
}

// NewCatalog 创建商品表
func NewCatalog(configs []ItemConfig) *Catalog {
	c := &Catalog{byType: make(map[ItemType][]ItemConfig)}
	for _, cfg := range configs {
		if _, ok := c.byType[cfg.Type]; !ok {
			c.types = append(c.types, cfg.Type)
		}
		c.byType[cfg.Type] = append(c.byType[cfg.Type], cfg)
	}
	sort.Slice(c.types, func(i, j int) bool { return c.types[i] < c.types[j] })
	return c
}

// DefaultCatalog 内置商品表
func DefaultCatalog() *Catalog {
	return NewCatalog([]ItemConfig{
		{ID: 1001, Type: ItemTypeConsumable, Price: 10, MaxStock: 5},
		{ID: 1002, Type: ItemTypeConsumable, Price: 15, MaxStock: 3},
		{ID: 1003, Type: ItemTypeConsumable, Price: 25, MaxStock: 2},
		{ID: 2001, Type: ItemTypeMaterial, Price: 5, MaxStock: 10},
		{ID: 2002, Type: ItemTypeMaterial, Price: 8, MaxStock: 6},
		{ID: 3001, Type: ItemTypeEquipment, Price: 120, MaxStock: 1},
		{ID: 3002, Type: ItemTypeEquipment, Price: 200, MaxStock: 1},
	})
}

// Tier 某档位的全部配置
func (c *Catalog) Tier(t ItemType) []ItemConfig {
	return c.byType[t]
}

// Types 全部档位，升序
func (c *Catalog) Types() []ItemType {
	return c.types
}
