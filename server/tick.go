package server

import (
	"time"

	"tickarena/sim"
)

// tickInterval 模拟回调间隔，与固定步同频（约 16.67ms）
var tickInterval = time.Second / sim.TicksPerSecond

// StartTicker 启动房间的模拟循环（单协程推进世界），把真实流逝时间交给 Update
func (r *Room) StartTicker() {
	if !r.tickerStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		defer r.release()
		last := time.Now()
		for {
			select {
			case <-r.done:
				return
			case now := <-ticker.C:
				delta := now.Sub(last)
				last = now
				start := time.Now()
				r.Update(float64(delta) / float64(time.Millisecond))
				r.metrics.AddUpdate(time.Since(start).Nanoseconds())
			}
		}
	}()
}
