package server

import (
	"go.uber.org/zap"

	"tickarena/logging"
)

// Log 是全局可用的 SugaredLogger；未初始化时为 Nop，测试无需额外设置
var Log = zap.NewNop().Sugar()

// InitLogger 按选项初始化全局日志（滚动文件）
func InitLogger(opts logging.Options) error {
	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	Log = logger.Sugar()
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
