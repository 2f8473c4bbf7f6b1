package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tickarena/protocol"
	"tickarena/sim"
)

var (
	// ErrJoinFailed 加入房间失败（拨号失败或未收到 Welcome），不会自动重试
	ErrJoinFailed = errors.New("join failed")
	// ErrClosed 连接已关闭
	ErrClosed = errors.New("client closed")
)

const defaultJoinTimeout = 10 * time.Second

// Options 加入参数
type Options struct {
	// Header 随握手发送的传输层元数据，仅用于识别客户端
	Header    http.Header
	Dialer    *websocket.Dialer
	Logger    *zap.SugaredLogger
	Reconcile Reconciler
}

// Client 连接到一个房间的客户端：读协程只负责解码，状态只在 Update 的调用协程上修改
type Client struct {
	ws    *websocket.Conn
	world *World
	log   *zap.SugaredLogger

	inbound chan protocol.ServerMessage
	writeMu sync.Mutex

	closed  chan struct{}
	once    sync.Once
	errMu   sync.Mutex
	readErr error
}

// Join 加入（或创建）指定名称的房间；baseURL 形如 ws://host:2567
func Join(ctx context.Context, baseURL, room string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrJoinFailed, baseURL, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("room", room)
	u.RawQuery = q.Encode()

	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ws, _, err := dialer.DialContext(ctx, u.String(), opts.Header)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrJoinFailed, u.Redacted(), err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultJoinTimeout)
	}
	_ = ws.SetReadDeadline(deadline)
	_, payload, err := ws.ReadMessage()
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: waiting for welcome: %v", ErrJoinFailed, err)
	}
	msg, err := protocol.DecodeServer(payload)
	if err != nil || msg.Kind != protocol.KindWelcome {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: first message is not a welcome (%v)", ErrJoinFailed, err)
	}
	_ = ws.SetReadDeadline(time.Time{})

	world := NewWorld(log)
	world.Reconcile = opts.Reconcile
	world.ApplyWelcome(msg.Welcome)

	c := &Client{
		ws:      ws,
		world:   world,
		log:     log.With("session", world.SessionID),
		inbound: make(chan protocol.ServerMessage, 1024),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	c.log.Infof("joined room %s", world.Room)
	return c, nil
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.setErr(err)
			return
		}
		msg, err := protocol.DecodeServer(payload)
		if err != nil {
			c.log.Debugf("dropping frame: %v", err)
			continue
		}
		select {
		case c.inbound <- msg:
		case <-c.closed:
			return
		}
	}
}

// drain 把已收到的消息应用到世界（非阻塞）
func (c *Client) drain() {
	for {
		select {
		case msg := <-c.inbound:
			c.world.Apply(msg)
		default:
			return
		}
	}
}

// Update 帧回调：先应用已到达的复制消息，再按固定步预测、插值并发送输入
func (c *Client) Update(deltaMs float64, src InputSource) int {
	c.drain()
	return c.world.Update(deltaMs, src, func(in sim.Input) {
		if err := c.SendInput(in); err != nil {
			c.log.Debugf("send input: %v", err)
		}
	})
}

// SendInput 发送一条输入（即发即弃，不重传）
func (c *Client) SendInput(in sim.Input) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	b, err := protocol.EncodeInput(in)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	return nil
}

// Run 以 fps 驱动 Update，直到 ctx 结束或连接关闭
func (c *Client) Run(ctx context.Context, fps int, src InputSource) error {
	if fps <= 0 {
		fps = sim.TicksPerSecond
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			if err := c.Err(); err != nil {
				return err
			}
			return ErrClosed
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			c.Update(float64(delta)/float64(time.Millisecond), src)
		}
	}
}

// World 本地世界（只能在调用 Update 的协程上读写）
func (c *Client) World() *World { return c.world }

// SessionID 服务端分配的会话 ID
func (c *Client) SessionID() string { return c.world.SessionID }

// Done 连接关闭时关闭
func (c *Client) Done() <-chan struct{} { return c.closed }

// Err 读协程遇到的错误
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.readErr
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	if c.readErr == nil {
		c.readErr = err
	}
	c.errMu.Unlock()
}

// Close 本地立即拆除，不等待服务端确认
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = c.ws.Close()
	})
}
