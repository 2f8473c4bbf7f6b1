package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HandleLatency GET /latency 返回当前模拟延迟（毫秒，JSON 数字）
func (s *Server) HandleLatency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Latency().Milliseconds())
}

// HandleSimulateLatency /simulate-latency/{ms} 设置模拟延迟，仅用于手动测试
func (s *Server) HandleSimulateLatency(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(r.PathValue("ms"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid latency", http.StatusBadRequest)
		return
	}
	s.SetLatency(time.Duration(ms) * time.Millisecond)
	Log.Infof("latency simulation set to %dms", ms)
	writeJSON(w, ms)
}

// HandleAdminConfig 提供调试配置的读取与更新
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段（限流只影响新连接）
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		LatencyMs       *int64   `json:"latencyMs,omitempty"`
		InputsPerSecond *float64 `json:"inputsPerSecond,omitempty"`
		InputBurst      *int     `json:"inputBurst,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		latency := s.Latency().Milliseconds()
		perSecond, burst := s.InputLimit()
		writeJSON(w, cfg{LatencyMs: &latency, InputsPerSecond: &perSecond, InputBurst: &burst})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.LatencyMs != nil {
			s.SetLatency(time.Duration(*body.LatencyMs) * time.Millisecond)
		}
		s.mu.Lock()
		if body.InputsPerSecond != nil && *body.InputsPerSecond > 0 {
			s.inputsPerSecond = *body.InputsPerSecond
		}
		if body.InputBurst != nil && *body.InputBurst > 0 {
			s.inputBurst = *body.InputBurst
		}
		perSecond, burst := s.inputsPerSecond, s.inputBurst
		s.mu.Unlock()
		writeJSON(w, map[string]any{"ok": true})
		Log.Infof("config updated: latency=%s inputsPerSecond=%.1f burst=%d", s.Latency(), perSecond, burst)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1；不带 room 时列出所有房间
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		writeJSON(w, map[string]any{"rooms": s.rooms.RoomIDs()})
		return
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"room":    roomID,
		"tick":    room.Tick(),
		"players": room.PlayerCount(),
		"metrics": room.Metrics().Snapshot(),
	})
}
