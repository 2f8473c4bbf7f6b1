package client

import (
	"sync"

	"tickarena/sim"
)

// InputSource 每个本地固定步读取一次当前方向键状态
type InputSource interface {
	Poll() sim.Input
}

// InputFunc 函数适配 InputSource
type InputFunc func() sim.Input

func (f InputFunc) Poll() sim.Input { return f() }

// Keys 可由其他协程（键盘、脚本）更新的按键状态
type Keys struct {
	mu    sync.Mutex
	state sim.Input
}

// Set 更新按键状态
func (k *Keys) Set(left, right, up, down bool) {
	k.mu.Lock()
	k.state = sim.Input{Left: left, Right: right, Up: up, Down: down}
	k.mu.Unlock()
}

// Poll 实现 InputSource
func (k *Keys) Poll() sim.Input {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}
