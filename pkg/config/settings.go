package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/junbin-yang/go-automat/pkg/logger"
)

// Settings 运行时设置，目前只有日志
type Settings struct {
	Log LogSettings `yaml:"log" json:"log" ini:"log" envPrefix:"LOG_"`
}

// LogSettings 日志设置
type LogSettings struct {
	Level         string `yaml:"level" json:"level" ini:"level" env:"LEVEL"`
	Output        string `yaml:"output" json:"output" ini:"output" env:"OUTPUT"` // stderr、stdout 或文件路径
	Rotate        string `yaml:"rotate" json:"rotate" ini:"rotate" env:"ROTATE"` // 文件输出时：none、size 或 time
	MaxSize       int    `yaml:"max_size" json:"max_size" ini:"max_size"`
	MaxBackups    int    `yaml:"max_backups" json:"max_backups" ini:"max_backups"`
	MaxAge        int    `yaml:"max_age" json:"max_age" ini:"max_age"`
	Compress      bool   `yaml:"compress" json:"compress" ini:"compress"`
	RotationHours int    `yaml:"rotation_hours" json:"rotation_hours" ini:"rotation_hours"`
}

// NewLogger 按设置创建日志器
func (s LogSettings) NewLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	out, err := s.writer()
	if err != nil {
		return nil, err
	}
	return logger.New(out, level, logger.AddCaller()), nil
}

func (s LogSettings) writer() (io.Writer, error) {
	switch s.Output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	cfg := &logger.RotateConfig{
		Filename:     s.Output,
		MaxSize:      s.MaxSize,
		MaxBackups:   s.MaxBackups,
		MaxAge:       s.MaxAge,
		Compress:     s.Compress,
		RotationTime: time.Duration(s.RotationHours) * time.Hour,
		LocalTime:    true,
	}
	switch s.Rotate {
	case "", "none":
		f, err := os.OpenFile(s.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file failed: %w", err)
		}
		return f, nil
	case "size":
		if cfg.MaxSize <= 0 {
			return logger.NewProductionRotateBySize(s.Output), nil
		}
		return logger.NewRotateBySize(cfg), nil
	case "time":
		return logger.NewRotateByTime(cfg)
	}
	return nil, fmt.Errorf("unknown log rotation %q", s.Rotate)
}
