package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	UpdateCount        int64 // 模拟回调次数
	StepCount          int64 // 固定步次数
	InputsAccepted     int64 // 入队成功的输入数
	RateLimited        int64 // 因连接限流被拒绝的输入数
	StaleDropped       int64 // 找不到玩家而丢弃的输入数
	QueueFullDiscarded int64 // 因输入队列满被丢弃的输入数
	PatchesSent        int64 // 发出的补丁条数（按连接计）
	TotalUpdateNs      int64 // 回调累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted() { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncStaleDropped() { atomic.AddInt64(&m.StaleDropped, 1) }
func (m *RoomMetrics) IncQueueFullDiscarded() { atomic.AddInt64(&m.QueueFullDiscarded, 1) }
func (m *RoomMetrics) IncStep() { atomic.AddInt64(&m.StepCount, 1) }
func (m *RoomMetrics) AddPatchesSent(n int) { atomic.AddInt64(&m.PatchesSent, int64(n)) }
func (m *RoomMetrics) AddUpdate(ns int64) {
	atomic.AddInt64(&m.UpdateCount, 1)
	atomic.AddInt64(&m.TotalUpdateNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	updates := atomic.LoadInt64(&m.UpdateCount)
	total := atomic.LoadInt64(&m.TotalUpdateNs)
	var avgMs float64
	if updates > 0 {
		avgMs = float64(total) / float64(updates) / 1e6
	}
	return map[string]any{
		"update_count":         updates,
		"step_count":           atomic.LoadInt64(&m.StepCount),
		"inputs_accepted":      atomic.LoadInt64(&m.InputsAccepted),
		"rate_limited":         atomic.LoadInt64(&m.RateLimited),
		"stale_dropped":        atomic.LoadInt64(&m.StaleDropped),
		"queue_full_discarded": atomic.LoadInt64(&m.QueueFullDiscarded),
		"patches_sent":         atomic.LoadInt64(&m.PatchesSent),
		"avg_update_ms":        avgMs,
	}
}
