package config

import (
	"time"

	"github.com/junbin-yang/go-automat/pkg/logger"
)

type options struct {
	appName               string
	serializer            Serializer
	forceFormat           Serializer
	supportedFormats      []Serializer
	defaultPaths          []string
	enableWatch           bool
	watchDebounceInterval time.Duration
	envEnabled            bool
	envPrefix             string
	dotenvFiles           []string
	log                   logger.Logger
}

func defaultOptions() options {
	return options{
		appName:          "app",
		serializer:       &YAMLSerializer{},
		supportedFormats: []Serializer{&YAMLSerializer{}, &JSONSerializer{}, &INISerializer{}},
		defaultPaths: []string{
			"./{{.AppName}}",
			"{{.ExecDir}}/{{.AppName}}",
			"/etc/{{.AppName}}",
		},
		watchDebounceInterval: 500 * time.Millisecond,
		envEnabled:            true,
		log:                   logger.Default(),
	}
}

// Option 配置管理器选项
type Option func(*options)

// WithAppName 设置应用名称（用于默认配置文件名）
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithSerializer 设置默认序列化器
func WithSerializer(s Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// WithForceFormat 强制指定配置格式（无视文件后缀）
func WithForceFormat(s Serializer) Option {
	return func(o *options) {
		o.forceFormat = s
	}
}

// WithDefaultPaths 设置默认配置文件查找路径
func WithDefaultPaths(paths ...string) Option {
	return func(o *options) {
		o.defaultPaths = paths
	}
}

// WithConfigFormats 设置支持的配置格式列表
func WithConfigFormats(formats ...Serializer) Option {
	return func(o *options) {
		o.supportedFormats = formats
	}
}

// WithConfigWatch 启用配置文件监听（文件变化自动重载）
func WithConfigWatch(enable bool, interval time.Duration) Option {
	return func(o *options) {
		o.enableWatch = enable
		if interval > 0 {
			o.watchDebounceInterval = interval
		}
	}
}

// WithEnvPrefix 环境变量覆盖时使用的前缀，如 "AUTOMAT_"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutEnvOverrides 不使用环境变量覆盖配置
func WithoutEnvOverrides() Option {
	return func(o *options) {
		o.envEnabled = false
	}
}

// WithDotEnv 加载配置前读取 .env 文件，不存在的文件被忽略，已存在的环境变量不会被覆盖
func WithDotEnv(files ...string) Option {
	return func(o *options) {
		if len(files) == 0 {
			files = []string{".env"}
		}
		o.dotenvFiles = files
	}
}

// WithLogger 设置日志器
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
