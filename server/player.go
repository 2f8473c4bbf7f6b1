package server

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"

	"tickarena/protocol"
	"tickarena/sim"
)

// PlayerID 即连接的会话 ID，玩家实体与连接一一对应
type PlayerID string

// Player 房间内的玩家实体（服务端权威状态）
// 只在房间的固定步内被修改；消息处理器只往 inputs 里投递
type Player struct {
	ID              PlayerID
	Pos             mgl64.Vec2
	LastAppliedTick uint64

	// 额外的可复制标量字段（如 score），核心逻辑不解释它们
	Extra *orderedmap.OrderedMap[string, float64]

	inputs chan sim.Input // 单生产者（所属连接）/ 单消费者（Tick）
}

func newPlayer(id PlayerID, spawn mgl64.Vec2, queueSize int) *Player {
	if queueSize < 1 {
		queueSize = 1
	}
	extra := orderedmap.NewOrderedMap[string, float64]()
	extra.Set(protocol.FieldScore, 0)
	return &Player{
		ID:     id,
		Pos:    spawn,
		Extra:  extra,
		inputs: make(chan sim.Input, queueSize),
	}
}

// SetField 设置额外字段，下一次复制时作为 change 下发
func (p *Player) SetField(name string, v float64) {
	switch name {
	case protocol.FieldX, protocol.FieldY, protocol.FieldTick:
		return // 位置与 tick 只由输入驱动
	}
	p.Extra.Set(name, v)
}

// drainInputs 按 FIFO 应用本步开始时已排队的全部输入，返回应用条数
func (p *Player) drainInputs() int {
	n := len(p.inputs)
	for i := 0; i < n; i++ {
		p.apply(<-p.inputs)
	}
	return n
}

func (p *Player) apply(in sim.Input) {
	p.Pos = sim.Apply(p.Pos, in)
	// lastAppliedTick 单调不减：乱序到达的旧 tick 仍移动，但不回退
	if in.Tick >= p.LastAppliedTick {
		p.LastAppliedTick = in.Tick
	}
}

// Fields 当前可复制状态（有序）：x, y, tick 之后是额外字段
func (p *Player) Fields() []protocol.Field {
	fields := make([]protocol.Field, 0, 3+p.Extra.Len())
	fields = append(fields,
		protocol.Field{Name: protocol.FieldX, Value: p.Pos.X()},
		protocol.Field{Name: protocol.FieldY, Value: p.Pos.Y()},
		protocol.Field{Name: protocol.FieldTick, Value: float64(p.LastAppliedTick)},
	)
	for el := p.Extra.Front(); el != nil; el = el.Next() {
		fields = append(fields, protocol.Field{Name: el.Key, Value: el.Value})
	}
	return fields
}
