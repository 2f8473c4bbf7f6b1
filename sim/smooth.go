package sim

import "github.com/go-gl/mathgl/mgl64"

// SmoothingFactor 远端实体每个固定步向最新快照靠近的比例
const SmoothingFactor = 0.2

// Smooth 指数平滑：display + (target - display) * t，逐轴独立，不做外推
func Smooth(display, target mgl64.Vec2, t float64) mgl64.Vec2 {
	return display.Add(target.Sub(display).Mul(t))
}
