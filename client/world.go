package client

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"tickarena/protocol"
	"tickarena/sim"
)

// Entity 客户端本地的实体副本
// 本地玩家：Display 为预测位置，Target 为最近一次权威位置（调试标记）
// 远端玩家：Display 每个固定步向 Target（最新快照）平滑靠近
type Entity struct {
	ID      string
	Display mgl64.Vec2
	Target  mgl64.Vec2
	Fields  map[string]float64
	Local   bool
}

// Reconciler 预测纠偏的扩展点：返回纠正后的本地显示位置
// 默认不设置，预测与权威位置的偏差不做任何纠正
type Reconciler func(predicted, authoritative mgl64.Vec2, ackTick, localTick uint64) mgl64.Vec2

// World 客户端模拟：本地玩家预测 + 远端玩家插值，单协程使用
type World struct {
	SessionID string
	Room      string
	Reconcile Reconciler

	session  map[string]float64
	entities *orderedmap.OrderedMap[string, *Entity]
	clock    *sim.Clock
	tick     uint64
	log      *zap.SugaredLogger
}

// NewWorld 创建空世界，log 可为 nil
func NewWorld(log *zap.SugaredLogger) *World {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &World{
		session:  make(map[string]float64),
		entities: orderedmap.NewOrderedMap[string, *Entity](),
		clock:    sim.NewClock(sim.FixedTimeStepMs),
		log:      log,
	}
}

// ApplyWelcome 记录会话 ID 与会话字段，并加入已有实体
func (w *World) ApplyWelcome(msg *protocol.Welcome) {
	w.SessionID = msg.SessionID
	w.Room = msg.Room
	for _, f := range msg.Fields {
		w.session[f.Name] = f.Value
	}
	for _, p := range msg.Players {
		w.upsert(p.ID, p.Fields)
	}
}

// ApplyPatch 幂等地应用增/删/改：未知实体的 change 视为新增，未知实体的 remove 为空操作
func (w *World) ApplyPatch(p *protocol.Patch) {
	for _, op := range p.Ops {
		switch op.Kind {
		case protocol.OpAdd, protocol.OpChange:
			w.upsert(op.ID, op.Fields)
		case protocol.OpRemove:
			w.remove(op.ID)
		default:
			w.log.Debugf("unknown op %d for %s", op.Kind, op.ID)
		}
	}
}

// Apply 处理一条服务端消息
func (w *World) Apply(msg protocol.ServerMessage) {
	switch msg.Kind {
	case protocol.KindWelcome:
		w.ApplyWelcome(msg.Welcome)
	case protocol.KindPatch:
		w.ApplyPatch(msg.Patch)
	}
}

func (w *World) upsert(id string, fields []protocol.Field) {
	e, ok := w.entities.Get(id)
	if !ok {
		e = &Entity{ID: id, Fields: make(map[string]float64), Local: id == w.SessionID}
		w.entities.Set(id, e)
	}
	for _, f := range fields {
		e.Fields[f.Name] = f.Value
	}
	x, hasX := protocol.Lookup(fields, protocol.FieldX)
	y, hasY := protocol.Lookup(fields, protocol.FieldY)
	if hasX {
		e.Target[0] = x
	}
	if hasY {
		e.Target[1] = y
	}
	if !ok {
		// 首次出现：直接放在权威位置
		e.Display = e.Target
		return
	}
	if e.Local && w.Reconcile != nil && (hasX || hasY) {
		ack := uint64(e.Fields[protocol.FieldTick])
		e.Display = w.Reconcile(e.Display, e.Target, ack, w.tick)
	}
}

func (w *World) remove(id string) {
	if w.entities.Delete(id) {
		w.log.Debugf("entity removed: %s", id)
	}
}

// Step 一个本地固定步：tick 自增并盖章输入，预测本地玩家，平滑远端玩家
// 返回盖章后的输入，供发送
func (w *World) Step(in sim.Input) sim.Input {
	w.tick++
	stamped := in.WithTick(w.tick)
	for el := w.entities.Front(); el != nil; el = el.Next() {
		e := el.Value
		if e.Local {
			e.Display = sim.Apply(e.Display, stamped)
			continue
		}
		e.Display = sim.Smooth(e.Display, e.Target, sim.SmoothingFactor)
	}
	return stamped
}

// Update 帧回调：本地玩家出现之前不推进；之后按固定步执行 Step 并发送输入
func (w *World) Update(deltaMs float64, src InputSource, send func(sim.Input)) int {
	if _, ok := w.Local(); !ok {
		return 0
	}
	return w.clock.Advance(deltaMs, func() {
		var in sim.Input
		if src != nil {
			in = src.Poll()
		}
		stamped := w.Step(in)
		if send != nil {
			send(stamped)
		}
	})
}

// Local 本地玩家实体
func (w *World) Local() (*Entity, bool) {
	if w.SessionID == "" {
		return nil, false
	}
	return w.entities.Get(w.SessionID)
}

// Entity 按 ID 查找
func (w *World) Entity(id string) (*Entity, bool) {
	return w.entities.Get(id)
}

// Entities 按加入顺序返回全部实体
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, w.entities.Len())
	for el := w.entities.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// SessionField 会话级只读字段（mapWidth/mapHeight）
func (w *World) SessionField(name string) (float64, bool) {
	v, ok := w.session[name]
	return v, ok
}

// Tick 本地固定步计数
func (w *World) Tick() uint64 { return w.tick }
