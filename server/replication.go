package server

import (
	"tickarena/protocol"
)

// replicate 将本步结束后的存储与上次复制的基线做差分，并推送给所有连接
// 只读存储；基线随之更新为当前值
func (r *Room) replicate(seq uint64) {
	ops := r.diff()
	if len(ops) == 0 {
		return
	}
	b, err := protocol.EncodePatch(&protocol.Patch{Tick: seq, Ops: ops})
	if err != nil {
		r.log.Errorf("encode patch at tick %d: %v", seq, err)
		return
	}
	// 包括变更实体的所属连接在内，全部下发
	for el := r.conns.Front(); el != nil; el = el.Next() {
		el.Value.Send(b)
	}
	r.metrics.AddPatchesSent(r.conns.Len())
}

func (r *Room) diff() []protocol.Op {
	var ops []protocol.Op

	var removed []PlayerID
	for el := r.baseline.Front(); el != nil; el = el.Next() {
		if _, ok := r.players.Get(el.Key); !ok {
			removed = append(removed, el.Key)
		}
	}
	for _, id := range removed {
		r.baseline.Delete(id)
		ops = append(ops, protocol.Op{Kind: protocol.OpRemove, ID: string(id)})
	}

	for el := r.players.Front(); el != nil; el = el.Next() {
		cur := el.Value.Fields()
		prev, ok := r.baseline.Get(el.Key)
		if !ok {
			ops = append(ops, protocol.Op{Kind: protocol.OpAdd, ID: string(el.Key), Fields: cur})
		} else if changed := changedFields(prev, cur); len(changed) > 0 {
			ops = append(ops, protocol.Op{Kind: protocol.OpChange, ID: string(el.Key), Fields: changed})
		}
		r.baseline.Set(el.Key, cur)
	}
	return ops
}

// changedFields 返回 cur 中与 prev 不同（或新增）的字段
func changedFields(prev, cur []protocol.Field) []protocol.Field {
	var out []protocol.Field
	for _, f := range cur {
		if v, ok := protocol.Lookup(prev, f.Name); ok && v == f.Value {
			continue
		}
		out = append(out, f)
	}
	return out
}

// baselineStates 已复制给客户端的实体（用于新连接的 Welcome）
func (r *Room) baselineStates() []protocol.EntityState {
	states := make([]protocol.EntityState, 0, r.baseline.Len())
	for el := r.baseline.Front(); el != nil; el = el.Next() {
		fields := make([]protocol.Field, len(el.Value))
		copy(fields, el.Value)
		states = append(states, protocol.EntityState{ID: string(el.Key), Fields: fields})
	}
	return states
}
