package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-automat/pkg/logger"
)

// Manager 通用配置管理器：查找并解析配置文件，应用环境变量覆盖，可选监听文件变化自动重载
type Manager[T any] struct {
	options

	instance   *T         // 配置实例
	configPath string     // 配置文件路径
	once       sync.Once  // 确保配置只加载一次
	mu         sync.RWMutex
	loadErr    error

	watcher   *fsnotify.Watcher
	watchQuit chan struct{}

	// 配置变更回调
	callbacks []func(old, new *T)
}

// NewManager 创建配置管理器实例
func NewManager[T any](opts ...Option) *Manager[T] {
	m := &Manager[T]{options: defaultOptions()}
	for _, opt := range opts {
		opt(&m.options)
	}
	return m
}

// Load 加载配置文件，只在第一次调用时生效
// customPath: 自定义配置路径，空字符串使用默认路径
func (m *Manager[T]) Load(customPath string) error {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.loadErr = m.load(customPath)
	})

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

func (m *Manager[T]) load(customPath string) error {
	// 1. 确定配置文件路径与格式
	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return fmt.Errorf("invalid custom config path: %w", err)
		}
		m.configPath = customPath
		m.chooseSerializer(customPath)
	} else {
		path, err := m.findDefaultConfigPath()
		if err != nil {
			return err
		}
		m.configPath = path
	}

	// 2. .env 必须在解析环境变量之前加载
	if err := loadDotEnv(m.dotenvFiles); err != nil {
		return fmt.Errorf("load dotenv failed: %w", err)
	}

	// 3. 解析配置文件并应用环境变量覆盖
	instance, err := m.parse(m.configPath)
	if err != nil {
		return err
	}
	m.instance = instance

	// 4. 启动配置监听（如果启用）
	if m.enableWatch {
		if err := m.startWatch(); err != nil {
			m.log.Warn("start config watch failed", logger.String("path", m.configPath), logger.Err(err))
		}
	}
	return nil
}

// Get 获取配置实例
func (m *Manager[T]) Get() (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.instance == nil {
		return nil, ErrNotLoaded
	}
	return m.instance, nil
}

// Path 返回正在使用的配置文件路径
func (m *Manager[T]) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// Save 保存配置到文件
func (m *Manager[T]) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.instance == nil || m.configPath == "" {
		return ErrNotLoaded
	}

	data, err := m.serializer.Marshal(m.instance)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	// 先写入临时文件（避免文件损坏）
	tmpPath := m.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp config failed: %w", err)
	}
	if err := os.Rename(tmpPath, m.configPath); err != nil {
		return fmt.Errorf("rename temp config failed: %w", err)
	}
	return nil
}

// Reload 手动重新加载配置，成功后依次触发变更回调
func (m *Manager[T]) Reload() error {
	m.mu.RLock()
	currentPath := m.configPath
	m.mu.RUnlock()

	if currentPath == "" {
		return ErrNotLoaded
	}
	if err := validateConfigPath(currentPath); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	// 解析到新实例，失败时保留原配置
	newInstance, err := m.parse(currentPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	oldInstance := m.instance
	m.instance = newInstance
	m.loadErr = nil
	callbacks := make([]func(old, new *T), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	// 回调在锁外执行
	for _, callback := range callbacks {
		callback(oldInstance, newInstance)
	}
	return nil
}

// EnableWatch 动态启用/禁用配置监听
func (m *Manager[T]) EnableWatch(enable bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enableWatch = enable
	if !enable {
		m.stopWatch()
		return nil
	}
	if m.configPath == "" {
		return ErrNotLoaded
	}
	return m.startWatch()
}

// Watching 是否正在监听配置文件
func (m *Manager[T]) Watching() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watcher != nil
}

// Close 关闭配置管理器（停止监听），可重复调用
func (m *Manager[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopWatch()
}

// OnChange 注册配置变更回调
func (m *Manager[T]) OnChange(callback func(old, new *T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

/* ------------------------------ 内部方法 ------------------------------ */

// chooseSerializer 强制格式 > 后缀识别 > 默认
func (m *Manager[T]) chooseSerializer(path string) {
	if m.forceFormat != nil {
		m.serializer = m.forceFormat
		return
	}

	ext := filepath.Ext(path)
	for _, format := range m.supportedFormats {
		if format.GetFileExt() == ext {
			m.serializer = format
			return
		}
	}
}

// findDefaultConfigPath 查找默认配置路径
func (m *Manager[T]) findDefaultConfigPath() (string, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, pathTpl := range m.defaultPaths {
		basePath := replacePathVars(pathTpl, map[string]string{
			"AppName": m.appName,
			"ExecDir": execDir,
		})

		// 无后缀文件使用默认或强制格式
		if err := validateConfigPath(basePath); err == nil {
			m.chooseSerializer(basePath)
			return basePath, nil
		}

		for _, format := range m.supportedFormats {
			fullPath := basePath + format.GetFileExt()
			if err := validateConfigPath(fullPath); err == nil {
				m.serializer = format
				if m.forceFormat != nil {
					m.serializer = m.forceFormat
				}
				return fullPath, nil
			}
		}
	}

	return "", fmt.Errorf("%w: tried default paths for %s", ErrConfigNotFound, m.appName)
}

// parse 读取文件到新实例
func (m *Manager[T]) parse(path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}

	instance := new(T)
	if err := m.serializer.Unmarshal(data, instance); err != nil {
		return nil, fmt.Errorf("unmarshal failed (%s): %w", m.serializer.GetName(), err)
	}
	if m.envEnabled {
		if err := applyEnvOverrides(instance, m.envPrefix); err != nil {
			return nil, fmt.Errorf("apply env overrides failed: %w", err)
		}
	}
	return instance, nil
}

// startWatch 监听配置文件所在目录，兼容先写临时文件再重命名的保存方式。调用方持有 mu。
func (m *Manager[T]) startWatch() error {
	if m.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	if err := watcher.Add(filepath.Dir(m.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("add watch path failed: %w", err)
	}

	m.watcher = watcher
	m.watchQuit = make(chan struct{})
	go m.watchLoop(watcher, m.watchQuit, filepath.Clean(m.configPath), m.watchDebounceInterval)
	return nil
}

// stopWatch 调用方持有 mu
func (m *Manager[T]) stopWatch() {
	if m.watcher == nil {
		return
	}
	close(m.watchQuit)
	_ = m.watcher.Close()
	m.watcher = nil
	m.watchQuit = nil
}

// watchLoop 监听文件变化循环，连续事件在防抖间隔后只触发一次重载
func (m *Manager[T]) watchLoop(watcher *fsnotify.Watcher, quit <-chan struct{}, target string, debounce time.Duration) {
	var reload <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload = time.After(debounce)
			}

		case <-reload:
			reload = nil
			if err := m.Reload(); err != nil {
				m.log.Warn("config auto reload failed", logger.String("path", target), logger.Err(err))
			} else {
				m.log.Info("config auto reloaded", logger.String("path", target))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("config watch error", logger.String("path", target), logger.Err(err))

		case <-quit:
			return
		}
	}
}

// replacePathVars 替换路径模板变量
func replacePathVars(tpl string, vars map[string]string) string {
	result := tpl
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{."+k+"}}", v)
	}
	return result
}

// validateConfigPath 路径必须是已存在的普通文件
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("stat path failed: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}
