package logger

import (
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Filename string // 日志文件路径

	// 按大小轮转（lumberjack）
	MaxSize    int  // 单个文件最大体积，单位 MB
	MaxBackups int  // 保留的旧文件个数
	Compress   bool // 是否压缩旧文件

	// 通用
	MaxAge    int  // 旧文件保留天数
	LocalTime bool // 使用本地时间命名备份文件

	// 按时间轮转（file-rotatelogs）
	RotationTime time.Duration // 轮转周期
}

// NewRotateBySize 创建按大小轮转的日志输出
func NewRotateBySize(cfg *RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  cfg.LocalTime,
		Compress:   cfg.Compress,
	}
}

// NewProductionRotateBySize 生产环境默认的按大小轮转输出:
// 单文件 100MB，保留 30 天、最多 100 个备份，压缩旧文件
func NewProductionRotateBySize(filename string) io.Writer {
	return NewRotateBySize(&RotateConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxAge:     30,
		MaxBackups: 100,
		LocalTime:  true,
		Compress:   true,
	})
}

// NewRotateByTime 创建按时间轮转的日志输出，
// 创建失败时回退到标准错误，保证日志不丢失
func NewRotateByTime(cfg *RotateConfig) io.Writer {
	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.Filename),
		rotatelogs.WithRotationTime(cfg.RotationTime),
		rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge) * 24 * time.Hour),
	}
	if cfg.LocalTime {
		opts = append(opts, rotatelogs.WithClock(rotatelogs.Local))
	}

	w, err := rotatelogs.New(cfg.Filename+".%Y%m%d%H%M", opts...)
	if err != nil {
		return os.Stderr
	}
	return w
}

// NewProductionRotateByTime 生产环境默认的按时间轮转输出:
// 每小时轮转，保留 30 天
func NewProductionRotateByTime(filename string) io.Writer {
	return NewRotateByTime(&RotateConfig{
		Filename:     filename,
		MaxAge:       30,
		LocalTime:    true,
		RotationTime: time.Hour,
	})
}
