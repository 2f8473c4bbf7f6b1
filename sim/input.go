package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Velocity 每条输入命令的位移（单位/命令），客户端预测与服务端权威共用
const Velocity = 10.0

// Input 单个本地固定步的方向意图快照，构造后不可变
type Input struct {
	Left  bool   `msgpack:"left"`
	Right bool   `msgpack:"right"`
	Up    bool   `msgpack:"up"`
	Down  bool   `msgpack:"down"`
	Tick  uint64 `msgpack:"tick"`
}

// WithTick 返回带新 tick 的副本
func (in Input) WithTick(tick uint64) Input {
	in.Tick = tick
	return in
}

// Idle 四个方向都未按下
func (in Input) Idle() bool {
	return !in.Left && !in.Right && !in.Up && !in.Down
}

func (in Input) String() string {
	return fmt.Sprintf("input{l=%t r=%t u=%t d=%t tick=%d}", in.Left, in.Right, in.Up, in.Down, in.Tick)
}

// Direction 按每轴互斥规则解析方向：左优先于右，上优先于下（先判先得，不抵消）
func Direction(in Input) mgl64.Vec2 {
	var dir mgl64.Vec2
	if in.Left {
		dir[0] = -1
	} else if in.Right {
		dir[0] = 1
	}
	// 屏幕坐标：上为 -y
	if in.Up {
		dir[1] = -1
	} else if in.Down {
		dir[1] = 1
	}
	return dir
}

// Apply 对位置应用一条输入，返回新位置
// 服务端存储与客户端预测都只走这里，保证同一输入序列得到逐位相同的结果
func Apply(pos mgl64.Vec2, in Input) mgl64.Vec2 {
	return pos.Add(Direction(in).Mul(Velocity))
}
