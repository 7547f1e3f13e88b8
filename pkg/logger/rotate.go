package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Filename     string        // 日志文件路径
	MaxSize      int           // 按大小轮转：单个文件最大MB
	MaxBackups   int           // 按大小轮转：保留的旧文件数
	MaxAge       int           // 保留天数
	Compress     bool          // 按大小轮转：压缩旧文件
	RotationTime time.Duration // 按时间轮转：轮转间隔
	LocalTime    bool          // 使用本地时间命名
}

// NewRotateBySize 按文件大小轮转
func NewRotateBySize(cfg *RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
}

// NewProductionRotateBySize 生产环境默认的按大小轮转：100MB，保留30个，7天
func NewProductionRotateBySize(filename string) io.Writer {
	return NewRotateBySize(&RotateConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 30,
		MaxAge:     7,
		Compress:   true,
		LocalTime:  true,
	})
}

// NewRotateByTime 按时间轮转，Filename 作为指向当前文件的软链接
func NewRotateByTime(cfg *RotateConfig) (io.Writer, error) {
	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}
	clock := rotatelogs.UTC
	if cfg.LocalTime {
		clock = rotatelogs.Local
	}

	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.Filename),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithClock(clock),
	}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	}
	return rotatelogs.New(cfg.Filename+".%Y%m%d%H", opts...)
}
