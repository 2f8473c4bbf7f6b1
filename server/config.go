package server

import "github.com/go-gl/mathgl/mgl64"

// Config 房间与连接的基本规则
type Config struct {
	MapWidth  float64
	MapHeight float64
	Spawn     mgl64.Vec2

	// MaxInputQueue 每个玩家输入队列上限，超出丢弃最新输入
	MaxInputQueue int
	// InputsPerSecond / InputBurst 单连接入站输入限流
	InputsPerSecond float64
	InputBurst      int

	// AutoDispose 最后一个连接离开后销毁房间
	AutoDispose bool
}

// DefaultConfig 默认配置：800x600 地图，出生点 (1000, 400)
func DefaultConfig() Config {
	return Config{
		MapWidth:        800,
		MapHeight:       600,
		Spawn:           mgl64.Vec2{1000, 400},
		MaxInputQueue:   64,
		InputsPerSecond: 120, // 客户端每秒 60 条，留出抖动余量
		InputBurst:      30,
		AutoDispose:     true,
	}
}
