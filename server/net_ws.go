package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tickarena/protocol"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// sendQueueSize 写队列容量，溢出即断开慢连接
	sendQueueSize = 256
)

type outbound struct {
	b  []byte
	at time.Time
}

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	id      PlayerID
	ws      *websocket.Conn
	send    chan outbound
	closed  chan struct{}
	once    sync.Once
	latency func() time.Duration
}

// NewClientConn latency 为 nil 时不模拟延迟
func NewClientConn(id PlayerID, ws *websocket.Conn, latency func() time.Duration) *ClientConn {
	if latency == nil {
		latency = func() time.Duration { return 0 }
	}
	return &ClientConn{
		id:      id,
		ws:      ws,
		send:    make(chan outbound, sendQueueSize),
		closed:  make(chan struct{}),
		latency: latency,
	}
}

// Send 将要发送的消息压入队列（非阻塞），实现 Conn
// 补丁是增量，不能丢帧：队列满时关闭连接，读泵退出后触发 RequestLeave
func (c *ClientConn) Send(b []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- outbound{b: b, at: time.Now()}:
	default:
		Log.Warnf("send queue full (%d frames), closing slow connection %s", sendQueueSize, c.id)
		c.Close()
	}
}

// Close 关闭底层连接，可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS；按入队时间加上模拟延迟后再发送
func (c *ClientConn) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if wait := time.Until(msg.at.Add(c.latency())); wait > 0 {
				select {
				case <-time.After(wait):
				case <-c.closed:
					return
				}
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, msg.b); err != nil {
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，解码后投递到房间；退出时请求离开
func (c *ClientConn) readPump(room *Room, limiter *rate.Limiter) {
	defer c.Close()
	// 读泵退出时，通知房间在 Tick 中移除该玩家
	defer room.RequestLeave(c.id)
	c.ws.SetReadLimit(1 << 16)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				Log.Debugf("read %s: %v", c.id, err)
			}
			return
		}
		msg, err := protocol.DecodeClient(payload)
		if err != nil {
			Log.Debugf("bad frame from %s: %v", c.id, err)
			continue
		}
		if msg.Type != protocol.MsgInput {
			continue
		}
		if !limiter.Allow() {
			room.Metrics().IncRateLimited()
			continue
		}
		in, err := protocol.DecodeInput(msg.Body)
		if err != nil {
			Log.Debugf("bad input from %s: %v", c.id, err)
			continue
		}
		if err := room.OnInput(c.id, in); err != nil {
			Log.Debugf("input from %s dropped: %v", c.id, err)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// joinMeta 传输层元数据，只用于识别客户端，不影响模拟
func joinMeta(r *http.Request) map[string]string {
	meta := map[string]string{"remote": r.RemoteAddr}
	for _, h := range []string{"User-Agent", "X-Client-Id", "Origin"} {
		if v := r.Header.Get(h); v != "" {
			meta[h] = v
		}
	}
	return meta
}

// HandleWS WebSocket 接入：?room=room-1，会话 ID 由服务端分配
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = defaultRoom
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	id := PlayerID(uuid.NewString())
	client := NewClientConn(id, ws, s.Latency)
	go client.writePump()

	room, err := s.rooms.JoinOrCreate(roomID, id, client, joinMeta(r))
	if err != nil {
		Log.Warnf("join %s to %s failed: %v", id, roomID, err)
		client.Close()
		return
	}
	perSecond, burst := s.InputLimit()
	go client.readPump(room, rate.NewLimiter(rate.Limit(perSecond), burst))
}
