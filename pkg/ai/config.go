package ai

// BotConfig 机器人的行为参数
type BotConfig struct {
	// ThinkIntervalSteps 思考间隔（固定步），两次思考之间沿用上一次的决定
	ThinkIntervalSteps int

	// MistakeRate 随机失误率 (0.0-1.0)
	MistakeRate float64

	// ArriveRadius 离目标小于该距离就尝试交互，需要比服务器的拾取距离小
	ArriveRadius float32

	// BuyLimit 最多购买几次，0 表示不买
	BuyLimit int
}

// 预设配置：普通
var BotConfigNormal = BotConfig{
	ThinkIntervalSteps: 30, // 0.5s
	MistakeRate:        0.05,
	ArriveRadius:       1.5,
	BuyLimit:           1,
}

// 预设配置：积极，反应更快、买得更多
var BotConfigEager = BotConfig{
	ThinkIntervalSteps: 10,
	MistakeRate:        0,
	ArriveRadius:       1.0,
	BuyLimit:           3,
}
