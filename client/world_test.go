package client

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"tickarena/protocol"
	"tickarena/sim"
)

func fields(x, y float64, tick uint64) []protocol.Field {
	return []protocol.Field{
		{Name: protocol.FieldX, Value: x},
		{Name: protocol.FieldY, Value: y},
		{Name: protocol.FieldTick, Value: float64(tick)},
		{Name: protocol.FieldScore, Value: 0},
	}
}

func joinedWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld(nil)
	w.ApplyWelcome(&protocol.Welcome{
		SessionID: "me",
		Room:      "S",
		Fields: []protocol.Field{
			{Name: protocol.FieldMapWidth, Value: 800},
			{Name: protocol.FieldMapHeight, Value: 600},
		},
		Players: []protocol.EntityState{{ID: "other", Fields: fields(100, 100, 0)}},
	})
	w.ApplyPatch(&protocol.Patch{Tick: 1, Ops: []protocol.Op{
		{Kind: protocol.OpAdd, ID: "me", Fields: fields(1000, 400, 0)},
	}})
	return w
}

func TestWelcomeCarriesSessionFields(t *testing.T) {
	w := joinedWorld(t)
	if v, ok := w.SessionField(protocol.FieldMapWidth); !ok || v != 800 {
		t.Fatalf("mapWidth = %v %v", v, ok)
	}
	if v, ok := w.SessionField(protocol.FieldMapHeight); !ok || v != 600 {
		t.Fatalf("mapHeight = %v %v", v, ok)
	}
	local, ok := w.Local()
	if !ok || !local.Local || local.Display != (mgl64.Vec2{1000, 400}) {
		t.Fatalf("local = %+v %v", local, ok)
	}
	if len(w.Entities()) != 2 {
		t.Fatalf("entities = %d", len(w.Entities()))
	}
}

func TestPredictionAppliesInputImmediately(t *testing.T) {
	w := joinedWorld(t)
	stamped := w.Step(sim.Input{Left: true, Right: true, Up: true})
	if stamped.Tick != 1 {
		t.Fatalf("tick = %d", stamped.Tick)
	}
	local, _ := w.Local()
	want := mgl64.Vec2{1000 - sim.Velocity, 400 - sim.Velocity}
	if local.Display != want {
		t.Fatalf("predicted %v want %v", local.Display, want)
	}
}

func TestSelfChangeDoesNotMovePrediction(t *testing.T) {
	w := joinedWorld(t)
	w.Step(sim.Input{Right: true})
	w.ApplyPatch(&protocol.Patch{Tick: 2, Ops: []protocol.Op{
		{Kind: protocol.OpChange, ID: "me", Fields: []protocol.Field{{Name: protocol.FieldX, Value: 1500}, {Name: protocol.FieldScore, Value: 3}}},
	}})
	local, _ := w.Local()
	if local.Display.X() != 1000+sim.Velocity {
		t.Fatalf("display moved to %v", local.Display)
	}
	if local.Target.X() != 1500 || local.Fields[protocol.FieldScore] != 3 {
		t.Fatalf("target=%v fields=%v", local.Target, local.Fields)
	}
}

func TestReconcilerHookReceivesAuthority(t *testing.T) {
	w := joinedWorld(t)
	var gotAck uint64
	w.Reconcile = func(predicted, authoritative mgl64.Vec2, ackTick, localTick uint64) mgl64.Vec2 {
		gotAck = ackTick
		return authoritative
	}
	w.Step(sim.Input{Right: true})
	w.ApplyPatch(&protocol.Patch{Tick: 2, Ops: []protocol.Op{
		{Kind: protocol.OpChange, ID: "me", Fields: []protocol.Field{{Name: protocol.FieldX, Value: 1005}, {Name: protocol.FieldTick, Value: 1}}},
	}})
	local, _ := w.Local()
	if gotAck != 1 || local.Display.X() != 1005 {
		t.Fatalf("ack=%d display=%v", gotAck, local.Display)
	}
}

func TestRemoteInterpolationMovesTwentyPercent(t *testing.T) {
	w := joinedWorld(t)
	w.ApplyPatch(&protocol.Patch{Tick: 2, Ops: []protocol.Op{
		{Kind: protocol.OpChange, ID: "other", Fields: []protocol.Field{{Name: protocol.FieldX, Value: 200}}},
	}})
	other, _ := w.Entity("other")
	if other.Display.X() != 100 {
		t.Fatalf("display jumped on change: %v", other.Display)
	}
	w.Step(sim.Input{})
	if math.Abs(other.Display.X()-120) > 1e-9 || other.Display.Y() != 100 {
		t.Fatalf("after one step: %v", other.Display)
	}
	// 没有新快照时继续靠近，不越过目标
	for i := 0; i < 200; i++ {
		w.Step(sim.Input{})
	}
	if math.Abs(other.Display.X()-200) > 1e-6 {
		t.Fatalf("did not settle on target: %v", other.Display)
	}
}

func TestPatchesAreIdempotent(t *testing.T) {
	w := joinedWorld(t)
	// 未知实体的 change 视为新增
	w.ApplyPatch(&protocol.Patch{Ops: []protocol.Op{
		{Kind: protocol.OpChange, ID: "ghost", Fields: []protocol.Field{{Name: protocol.FieldY, Value: 7}}},
	}})
	ghost, ok := w.Entity("ghost")
	if !ok || ghost.Display != (mgl64.Vec2{0, 7}) {
		t.Fatalf("ghost = %+v %v", ghost, ok)
	}
	// 重复 add 只更新字段
	w.ApplyPatch(&protocol.Patch{Ops: []protocol.Op{{Kind: protocol.OpAdd, ID: "ghost", Fields: fields(5, 5, 1)}}})
	if len(w.Entities()) != 3 {
		t.Fatalf("entities = %d", len(w.Entities()))
	}
	// 删除未知或已删除实体为空操作
	for i := 0; i < 2; i++ {
		w.ApplyPatch(&protocol.Patch{Ops: []protocol.Op{{Kind: protocol.OpRemove, ID: "ghost"}, {Kind: protocol.OpRemove, ID: "never"}}})
	}
	if _, ok := w.Entity("ghost"); ok {
		t.Fatal("ghost still present")
	}
	if len(w.Entities()) != 2 {
		t.Fatalf("entities = %d", len(w.Entities()))
	}
}

func TestUpdateWaitsForLocalEntity(t *testing.T) {
	w := NewWorld(nil)
	w.ApplyWelcome(&protocol.Welcome{SessionID: "me"})
	var sent []sim.Input
	send := func(in sim.Input) { sent = append(sent, in) }
	if n := w.Update(100, nil, send); n != 0 || w.Tick() != 0 {
		t.Fatalf("stepped before local entity: %d", n)
	}
	w.ApplyPatch(&protocol.Patch{Ops: []protocol.Op{{Kind: protocol.OpAdd, ID: "me", Fields: fields(0, 0, 0)}}})

	keys := &Keys{}
	keys.Set(false, true, false, false)
	n := w.Update(sim.FixedTimeStepMs*3+1, keys, send)
	if n != 3 || len(sent) != 3 {
		t.Fatalf("steps=%d sent=%d", n, len(sent))
	}
	for i, in := range sent {
		if in.Tick != uint64(i+1) || !in.Right {
			t.Fatalf("sent[%d] = %v", i, in)
		}
	}
	local, _ := w.Local()
	if local.Display.X() != 3*sim.Velocity {
		t.Fatalf("display = %v", local.Display)
	}
}
