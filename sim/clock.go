package sim

import "math"

const (
	// TicksPerSecond 客户端与服务端共同的固定模拟频率（60 TPS）
	TicksPerSecond = 60
	// FixedTimeStepMs 每个固定步的时长（毫秒）
	FixedTimeStepMs = 1000.0 / TicksPerSecond
)

// Clock 累加器式固定步调度：把不规则的帧/回调间隔换算为确定数量的固定步
// 不变量：每次 Advance 之后 0 <= accumulator < step
type Clock struct {
	accumulator float64
	step        float64
}

// NewClock 创建调度器，stepMs <= 0 时使用 FixedTimeStepMs
func NewClock(stepMs float64) *Clock {
	if stepMs <= 0 || math.IsNaN(stepMs) || math.IsInf(stepMs, 0) {
		stepMs = FixedTimeStepMs
	}
	return &Clock{step: stepMs}
}

// Advance 累加 delta，并为每个完整的固定步调用一次 fn，返回执行的步数
// 大 delta 会在同一次调用内产生多次追帧步，不合并、不跳过
func (c *Clock) Advance(deltaMs float64, fn func()) int {
	if deltaMs > 0 && !math.IsInf(deltaMs, 1) {
		c.accumulator += deltaMs
	}
	steps := 0
	for c.accumulator >= c.step {
		c.accumulator -= c.step
		steps++
		if fn != nil {
			fn()
		}
	}
	return steps
}

// Accumulator 当前未消耗的剩余时间（毫秒）
func (c *Clock) Accumulator() float64 { return c.accumulator }

// Step 固定步时长（毫秒）
func (c *Clock) Step() float64 { return c.step }
