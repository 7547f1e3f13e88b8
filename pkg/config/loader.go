package config

import (
	"sync"

	"github.com/junbin-yang/go-automat/pkg/automat"
	"github.com/junbin-yang/go-automat/pkg/logger"
)

// LoadTable 读取 YAML/JSON 状态机描述文件
func LoadTable(path string, opts ...Option) (*Table, error) {
	opts = append([]Option{WithoutEnvOverrides()}, opts...)
	m := NewManager[Table](opts...)
	if err := m.Load(path); err != nil {
		return nil, err
	}
	return m.Get()
}

// TableLoader 加载描述文件并编译成机器定义，文件变化时重新编译。
//
// 重新编译失败时保留上一次的定义。已创建的机器实例继续使用旧定义，
// 新定义只影响之后通过 Definition 创建的实例。
type TableLoader[C any] struct {
	mgr      *Manager[Table]
	registry *Registry[C]
	log      logger.Logger

	mu        sync.RWMutex
	def       *automat.Definition[C]
	callbacks []func(def *automat.Definition[C])
}

// NewTableLoader 创建加载器，opts 作用于底层的配置管理器
func NewTableLoader[C any](registry *Registry[C], opts ...Option) *TableLoader[C] {
	opts = append([]Option{WithoutEnvOverrides()}, opts...)
	l := &TableLoader[C]{
		mgr:      NewManager[Table](opts...),
		registry: registry,
	}
	l.log = l.mgr.log
	l.mgr.OnChange(l.recompile)
	return l
}

// Load 加载并编译描述文件，path 为空时按默认路径查找
func (l *TableLoader[C]) Load(path string) error {
	if err := l.mgr.Load(path); err != nil {
		return err
	}
	table, err := l.mgr.Get()
	if err != nil {
		return err
	}
	def, err := Compile(table, l.registry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.def = def
	l.mu.Unlock()
	return nil
}

// Definition 返回最近一次成功编译的定义
func (l *TableLoader[C]) Definition() *automat.Definition[C] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.def
}

// OnReload 注册重新编译成功后的回调
func (l *TableLoader[C]) OnReload(fn func(def *automat.Definition[C])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, fn)
}

// Reload 手动重新读取并编译
func (l *TableLoader[C]) Reload() error {
	return l.mgr.Reload()
}

// Watch 开始监听描述文件
func (l *TableLoader[C]) Watch() error {
	return l.mgr.EnableWatch(true)
}

func (l *TableLoader[C]) Close() {
	l.mgr.Close()
}

func (l *TableLoader[C]) recompile(_, table *Table) {
	def, err := Compile(table, l.registry)
	if err != nil {
		l.log.Warn("table recompile failed, keeping previous definition",
			logger.String("table", table.Name),
			logger.Err(err),
		)
		return
	}

	l.mu.Lock()
	l.def = def
	callbacks := make([]func(*automat.Definition[C]), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.mu.Unlock()

	l.log.Info("table recompiled", logger.String("table", table.Name))
	for _, fn := range callbacks {
		fn(def)
	}
}
