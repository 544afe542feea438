package logger

import (
	"time"

	"go.uber.org/zap"
)

// Option zap 构造选项
type Option = zap.Option

// AddCaller 在日志中记录调用位置
func AddCaller() Option {
	return zap.AddCaller()
}

// AddCallerSkip 调整调用位置的栈帧偏移
func AddCallerSkip(skip int) Option {
	return zap.AddCallerSkip(skip)
}

// AddStacktrace 在指定级别及以上记录调用栈
func AddStacktrace(level Level) Option {
	return zap.AddStacktrace(toZapLevel(level))
}

// Field 结构化日志字段
type Field = zap.Field

func String(key, value string) Field           { return zap.String(key, value) }
func Int(key string, value int) Field          { return zap.Int(key, value) }
func Int64(key string, value int64) Field      { return zap.Int64(key, value) }
func Bool(key string, value bool) Field        { return zap.Bool(key, value) }
func Any(key string, value interface{}) Field  { return zap.Any(key, value) }

func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// GetError 错误字段
func GetError(e error) Field { return zap.Error(e) }
