package server

import (
	"errors"

	"tickarena/sim"
)

var (
	// ErrStaleMessage 输入到达时该连接没有对应的玩家（加入未完成或已离开）
	ErrStaleMessage = errors.New("stale message: no player for connection")
	// ErrInputQueueFull 玩家输入队列已满，最新一条被丢弃
	ErrInputQueueFull = errors.New("input queue full")
)

// OnInput 入站输入（不立即改变位置），仅入队，等下一次 Tick 处理
// 可在连接的读协程中调用
func (r *Room) OnInput(id PlayerID, in sim.Input) error {
	r.inboxMu.RLock()
	inbox, ok := r.inboxes[id]
	r.inboxMu.RUnlock()
	if !ok {
		r.metrics.IncStaleDropped()
		return ErrStaleMessage
	}
	// 不阻塞：队列满时丢弃最新一条，保证 Tick 准时且内存有界
	select {
	case inbox <- in:
		r.metrics.IncAccepted()
		return nil
	default:
		r.metrics.IncQueueFullDiscarded()
		return ErrInputQueueFull
	}
}

func (r *Room) registerInbox(id PlayerID, ch chan<- sim.Input) {
	r.inboxMu.Lock()
	r.inboxes[id] = ch
	r.inboxMu.Unlock()
}

func (r *Room) unregisterInbox(id PlayerID) {
	r.inboxMu.Lock()
	delete(r.inboxes, id)
	r.inboxMu.Unlock()
}
