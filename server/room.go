package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/zap"

	"tickarena/protocol"
	"tickarena/sim"
)

// ErrRoomDisposed 房间已销毁，不再接受加入
var ErrRoomDisposed = errors.New("room disposed")

// Conn 房间向连接推送数据所需的最小接口
type Conn interface {
	Send(b []byte)
	Close()
}

type joinRequest struct {
	id   PlayerID
	conn Conn
	meta map[string]string
}

// Room 房间世界：权威状态维护在内存，单协程固定步推进
type Room struct {
	ID string

	cfg     Config
	players *orderedmap.OrderedMap[PlayerID, *Player]
	conns   *orderedmap.OrderedMap[PlayerID, Conn]

	// 读协程只通过 inboxes 投递输入
	inboxMu sync.RWMutex
	inboxes map[PlayerID]chan<- sim.Input

	joinChan  chan joinRequest
	leaveChan chan PlayerID

	clock      *sim.Clock
	tickSeq    atomic.Uint64
	playerN    atomic.Int64
	baseline   *orderedmap.OrderedMap[PlayerID, []protocol.Field]
	hadClients bool

	metrics *RoomMetrics
	log     *zap.SugaredLogger

	// joinMu 串行化 joinChan 的写入与 done 的关闭：
	// 成功入队的加入请求要么被 Tick 处理，要么在 release 中被关闭
	joinMu        sync.Mutex
	done          chan struct{}
	releaseOnce   sync.Once
	onDispose     func(*Room)
	tickerStarted atomic.Bool
}

// NewRoom 创建房间，初始化数据结构（不启动 Tick）
func NewRoom(id string, cfg Config) *Room {
	return &Room{
		ID:        id,
		cfg:       cfg,
		players:   orderedmap.NewOrderedMap[PlayerID, *Player](),
		conns:     orderedmap.NewOrderedMap[PlayerID, Conn](),
		inboxes:   make(map[PlayerID]chan<- sim.Input),
		joinChan:  make(chan joinRequest, 64),
		leaveChan: make(chan PlayerID, 64),
		clock:     sim.NewClock(sim.FixedTimeStepMs),
		baseline:  orderedmap.NewOrderedMap[PlayerID, []protocol.Field](),
		metrics:   &RoomMetrics{},
		log:       Log.With("room", id),
		done:      make(chan struct{}),
	}
}

// Join 请求在 Tick 中加入玩家；房间已销毁时返回 ErrRoomDisposed
// 队列满时不持锁等待一个 Tick 再重试
func (r *Room) Join(id PlayerID, conn Conn, meta map[string]string) error {
	req := joinRequest{id: id, conn: conn, meta: meta}
	for {
		r.joinMu.Lock()
		if r.Disposed() {
			r.joinMu.Unlock()
			return ErrRoomDisposed
		}
		select {
		case r.joinChan <- req:
			r.joinMu.Unlock()
			return nil
		default:
		}
		r.joinMu.Unlock()
		select {
		case <-r.done:
			return ErrRoomDisposed
		case <-time.After(tickInterval):
		}
	}
}

// RequestLeave 请求在 Tick 中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id PlayerID) {
	select {
	case <-r.done:
	case r.leaveChan <- id:
	}
}

// Update 模拟回调：把真实流逝时间喂给固定步调度器
func (r *Room) Update(deltaMs float64) int {
	if r.Disposed() {
		return 0
	}
	return r.clock.Advance(deltaMs, r.fixedTick)
}

// fixedTick 一个固定步：生命周期请求 → 消费输入 → 复制
func (r *Room) fixedTick() {
	if r.Disposed() {
		return
	}
	seq := r.tickSeq.Add(1)
	r.metrics.IncStep()

	r.processLifecycle()
	if r.Disposed() {
		return
	}
	for el := r.players.Front(); el != nil; el = el.Next() {
		el.Value.drainInputs()
	}
	r.replicate(seq)
}

func (r *Room) processLifecycle() {
	for {
		select {
		case req := <-r.joinChan:
			r.handleJoin(req)
			continue
		default:
		}
		select {
		case id := <-r.leaveChan:
			r.handleLeave(id)
		default:
			if r.cfg.AutoDispose && r.hadClients && r.conns.Len() == 0 {
				// 检查与关闭之间有新的加入请求入队时，先处理它们
				if r.dispose(true) {
					r.log.Infof("room empty, disposed")
					return
				}
				if r.Disposed() {
					return
				}
				continue
			}
			return
		}
	}
}

func (r *Room) handleJoin(req joinRequest) {
	if _, ok := r.players.Get(req.id); ok {
		r.log.Warnf("duplicate join ignored: %s", req.id)
		return
	}
	welcome := &protocol.Welcome{
		SessionID: string(req.id),
		Room:      r.ID,
		Fields:    r.SessionFields(),
		Players:   r.baselineStates(),
	}
	b, err := protocol.EncodeWelcome(welcome)
	if err != nil {
		r.log.Errorf("welcome for %s: %v", req.id, err)
		req.conn.Close()
		return
	}
	req.conn.Send(b)

	p := newPlayer(req.id, r.cfg.Spawn, r.cfg.MaxInputQueue)
	r.players.Set(req.id, p)
	r.conns.Set(req.id, req.conn)
	r.registerInbox(req.id, p.inputs)
	r.playerN.Store(int64(r.players.Len()))
	r.hadClients = true
	r.log.Infow("joined", "player", req.id, "meta", req.meta)
}

// handleLeave 对未知或已离开的玩家是空操作
func (r *Room) handleLeave(id PlayerID) {
	if _, ok := r.players.Get(id); !ok {
		return
	}
	r.unregisterInbox(id)
	r.players.Delete(id)
	if c, ok := r.conns.Get(id); ok {
		c.Close()
		r.conns.Delete(id)
	}
	r.playerN.Store(int64(r.players.Len()))
	r.log.Infow("left", "player", id)
}

// SessionFields 会话级静态字段
func (r *Room) SessionFields() []protocol.Field {
	return []protocol.Field{
		{Name: protocol.FieldMapWidth, Value: r.cfg.MapWidth},
		{Name: protocol.FieldMapHeight, Value: r.cfg.MapHeight},
	}
}

// Player 仅供 Tick 协程或测试使用
func (r *Room) Player(id PlayerID) (*Player, bool) {
	return r.players.Get(id)
}

// PlayerCount 可在任意协程读取
func (r *Room) PlayerCount() int { return int(r.playerN.Load()) }

// Tick 已执行的固定步序号
func (r *Room) Tick() uint64 { return r.tickSeq.Load() }

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Disposed 房间是否已销毁
func (r *Room) Disposed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Done 房间销毁时关闭
func (r *Room) Done() <-chan struct{} { return r.done }

// Dispose 停止 Tick 并释放状态，可重复调用
func (r *Room) Dispose() {
	r.dispose(false)
}

// dispose 在 joinMu 下关闭 done；onlyIfIdle 时若仍有待处理的加入请求则放弃
func (r *Room) dispose(onlyIfIdle bool) bool {
	r.joinMu.Lock()
	if r.Disposed() || (onlyIfIdle && len(r.joinChan) > 0) {
		r.joinMu.Unlock()
		return false
	}
	close(r.done)
	r.joinMu.Unlock()

	// Tick 协程退出时自行释放；未启动时在这里释放
	if !r.tickerStarted.Load() {
		r.release()
	}
	if r.onDispose != nil {
		r.onDispose(r)
	}
	r.log.Infof("disposed after %d ticks", r.tickSeq.Load())
	return true
}

// release 关闭所有连接并清空状态，包括销毁前尚未处理的加入请求
func (r *Room) release() {
	r.releaseOnce.Do(func() {
		for el := r.conns.Front(); el != nil; el = el.Next() {
			el.Value.Close()
		}
		for drained := false; !drained; {
			select {
			case req := <-r.joinChan:
				req.conn.Close()
			default:
				drained = true
			}
		}
		r.inboxMu.Lock()
		r.inboxes = make(map[PlayerID]chan<- sim.Input)
		r.inboxMu.Unlock()
		r.players = orderedmap.NewOrderedMap[PlayerID, *Player]()
		r.conns = orderedmap.NewOrderedMap[PlayerID, Conn]()
		r.baseline = orderedmap.NewOrderedMap[PlayerID, []protocol.Field]()
		r.playerN.Store(0)
	})
}
