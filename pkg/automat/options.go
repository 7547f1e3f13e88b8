package automat

import "github.com/junbin-yang/go-automat/pkg/logger"

// Option 配置 Machine 实例
type Option func(*options)

type options struct {
	log    logger.Logger
	tracer StateTracer
}

// WithLogger 设置实例使用的日志器，默认使用 logger.Default()
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithTracer 创建实例时安装追踪函数
func WithTracer(tracer StateTracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}
