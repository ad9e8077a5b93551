package client

// Config 客户端连接参数
type Config struct {
	Addr       string // 服务器地址 host:port
	Proto      string // tcp | kcp | ws
	WSPath     string // ws 协议的路径
	PlayerName string
	RoomID     string // 空表示默认房间
}

// DefaultConfig 本地默认配置
func DefaultConfig() Config {
	return Config{
		Addr:       "127.0.0.1:9000",
		Proto:      "tcp",
		WSPath:     "/ws",
		PlayerName: "bot",
	}
}
