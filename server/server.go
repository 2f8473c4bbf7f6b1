package server

import (
	"net/http"
	"sync"
	"time"
)

const defaultRoom = "room-1"

// Server 持有房间管理器与可热更新的调试设置
type Server struct {
	cfg   Config
	rooms *RoomManager

	mu              sync.RWMutex
	latency         time.Duration
	inputsPerSecond float64
	inputBurst      int
}

// NewServer 创建服务端
func NewServer(cfg Config) *Server {
	return &Server{
		cfg:             cfg,
		rooms:           NewRoomManager(cfg),
		inputsPerSecond: cfg.InputsPerSecond,
		inputBurst:      cfg.InputBurst,
	}
}

// Rooms 房间管理器
func (s *Server) Rooms() *RoomManager { return s.rooms }

// Routes 注册 WebSocket、调试与监控接口
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/latency", s.HandleLatency)
	mux.HandleFunc("/simulate-latency/{ms}", s.HandleSimulateLatency)
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Latency 当前模拟的下行延迟
func (s *Server) Latency() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latency
}

// SetLatency 负值按 0 处理
func (s *Server) SetLatency(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// InputLimit 新连接使用的输入限流参数
func (s *Server) InputLimit() (perSecond float64, burst int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputsPerSecond, s.inputBurst
}

// Shutdown 销毁全部房间
func (s *Server) Shutdown() {
	s.rooms.Shutdown()
}
