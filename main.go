package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tickarena/logging"
	"tickarena/server"
)

// tickarena 入口：启动 HTTP + WebSocket 服务，房间按需创建
func main() {
	var (
		addr      string
		latencyMs int
		queueSize int
		keepRooms bool
	)
	cfg := server.DefaultConfig()
	logOpts := logging.DefaultOptions("app.log")
	logOpts.RegisterFlags(flag.CommandLine)
	flag.StringVar(&addr, "addr", ":2567", "server listen address, e.g. :2567")
	flag.IntVar(&latencyMs, "latency", 0, "simulated downstream latency in ms (debug only)")
	flag.IntVar(&queueSize, "max-input-queue", cfg.MaxInputQueue, "per-player input queue bound")
	flag.Float64Var(&cfg.InputsPerSecond, "inputs-per-second", cfg.InputsPerSecond, "per-connection input rate limit")
	flag.BoolVar(&keepRooms, "keep-rooms", false, "do not dispose rooms when the last player leaves")
	flag.Parse()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(logOpts); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	cfg.MaxInputQueue = queueSize
	cfg.AutoDispose = !keepRooms
	srv := server.NewServer(cfg)
	srv.SetLatency(time.Duration(latencyMs) * time.Millisecond)

	httpSrv := &http.Server{Addr: addr, Handler: srv.Routes()}

	go func() {
		server.Log.Infof("tickarena listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	srv.Shutdown()
}
