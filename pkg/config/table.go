package config

import (
	"fmt"

	"github.com/junbin-yang/go-automat/pkg/automat"
)

// Table 声明式的状态机描述，可从 YAML/JSON 文件加载，
// 由 Compile 结合 Registry 中注册的 Go 实现编译成机器定义。
//
//	name: turnstile
//	states:
//	  - name: Locked
//	  - name: Unlocked
//	inputs:
//	  - name: fare_paid
//	  - name: arm_turned
//	transitions:
//	  - {from: Locked, input: fare_paid, to: Unlocked, handler: disengage}
type Table struct {
	Name        string           `yaml:"name" json:"name"`
	Initial     string           `yaml:"initial,omitempty" json:"initial,omitempty"` // 为空时取第一个无数据状态
	States      []StateSpec      `yaml:"states" json:"states"`
	Inputs      []InputSpec      `yaml:"inputs" json:"inputs"`
	Common      []CommonSpec     `yaml:"common,omitempty" json:"common,omitempty"`
	Transitions []TransitionSpec `yaml:"transitions" json:"transitions"`
	Unhandled   *UnhandledSpec   `yaml:"unhandled,omitempty" json:"unhandled,omitempty"`
}

// StateSpec 状态声明，Data 非空时为数据状态，值为数据工厂名称
type StateSpec struct {
	Name    string `yaml:"name" json:"name"`
	Data    string `yaml:"data,omitempty" json:"data,omitempty"`
	Persist *bool  `yaml:"persist,omitempty" json:"persist,omitempty"`
}

type InputSpec struct {
	Name    string `yaml:"name" json:"name"`
	Returns bool   `yaml:"returns,omitempty" json:"returns,omitempty"`
}

type CommonSpec struct {
	Input   string `yaml:"input" json:"input"`
	Handler string `yaml:"handler" json:"handler"`
}

// TransitionSpec 转换声明，Handler 为空时转换没有实现体
type TransitionSpec struct {
	From    string `yaml:"from" json:"from"`
	Input   string `yaml:"input" json:"input"`
	To      string `yaml:"to" json:"to"`
	Handler string `yaml:"handler,omitempty" json:"handler,omitempty"`
	Output  string `yaml:"output,omitempty" json:"output,omitempty"`
	NoData  bool   `yaml:"nodata,omitempty" json:"nodata,omitempty"`
}

type UnhandledSpec struct {
	To      string `yaml:"to" json:"to"`
	Handler string `yaml:"handler,omitempty" json:"handler,omitempty"`
	Output  string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Validate 检查描述本身的完整性，转换表层面的错误由 Compile 报告
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTable)
	}
	if len(t.States) == 0 {
		return fmt.Errorf("%w: %s declares no states", ErrInvalidTable, t.Name)
	}
	for i, s := range t.States {
		if s.Name == "" {
			return fmt.Errorf("%w: state #%d has no name", ErrInvalidTable, i)
		}
	}
	for i, in := range t.Inputs {
		if in.Name == "" {
			return fmt.Errorf("%w: input #%d has no name", ErrInvalidTable, i)
		}
	}
	for i, tr := range t.Transitions {
		if tr.From == "" || tr.Input == "" || tr.To == "" {
			return fmt.Errorf("%w: transition #%d needs from, input and to", ErrInvalidTable, i)
		}
	}
	if t.Unhandled != nil && t.Unhandled.To == "" {
		return fmt.Errorf("%w: unhandled default has no target", ErrInvalidTable)
	}
	return nil
}

// orderedStates 把指定的初始状态移到最前
func (t *Table) orderedStates() ([]StateSpec, error) {
	if t.Initial == "" {
		return t.States, nil
	}
	ordered := make([]StateSpec, 0, len(t.States))
	for _, s := range t.States {
		if s.Name == t.Initial {
			ordered = append(ordered, s)
		}
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: initial %s", ErrUnknownState, t.Initial)
	}
	for _, s := range t.States {
		if s.Name != t.Initial {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// Registry 按名称注册 Table 中引用的 Go 实现
type Registry[C any] struct {
	handlers        map[string]automat.Handler[C]
	factories       map[string]automat.Factory[C]
	commons         map[string]automat.CommonFunc[C]
	fallback        func(name string) automat.Handler[C]
	fallbackFactory func(name string) automat.Factory[C]
}

func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		handlers:  make(map[string]automat.Handler[C]),
		factories: make(map[string]automat.Factory[C]),
		commons:   make(map[string]automat.CommonFunc[C]),
	}
}

// Handle 注册转换实现
func (r *Registry[C]) Handle(name string, fn automat.Handler[C]) *Registry[C] {
	r.handlers[name] = fn
	return r
}

// Factory 注册数据状态的工厂
func (r *Registry[C]) Factory(name string, fn automat.Factory[C]) *Registry[C] {
	r.factories[name] = fn
	return r
}

// Common 注册公共输入的处理函数
func (r *Registry[C]) Common(name string, fn automat.CommonFunc[C]) *Registry[C] {
	r.commons[name] = fn
	return r
}

// Fallback 未注册的转换实现由 fn 按名称生成
func (r *Registry[C]) Fallback(fn func(name string) automat.Handler[C]) *Registry[C] {
	r.fallback = fn
	return r
}

// FallbackFactory 未注册的数据工厂由 fn 按名称生成
func (r *Registry[C]) FallbackFactory(fn func(name string) automat.Factory[C]) *Registry[C] {
	r.fallbackFactory = fn
	return r
}

func (r *Registry[C]) handler(name string) (automat.Handler[C], error) {
	if name == "" {
		return noop[C], nil
	}
	if fn, ok := r.handlers[name]; ok {
		return fn, nil
	}
	if r.fallback != nil {
		return r.fallback(name), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, name)
}

func (r *Registry[C]) factory(name string) (automat.Factory[C], error) {
	if fn, ok := r.factories[name]; ok {
		return fn, nil
	}
	if r.fallbackFactory != nil {
		return r.fallbackFactory(name), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFactory, name)
}

func (r *Registry[C]) common(name string) (automat.CommonFunc[C], error) {
	if fn, ok := r.commons[name]; ok {
		return fn, nil
	}
	if r.fallback != nil {
		h := r.fallback(name)
		return func(m *automat.Machine[C], core C, args ...any) (any, error) {
			return h(m, core, nil, args...)
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommon, name)
}

func noop[C any](*automat.Machine[C], C, any, ...any) (any, error) {
	return nil, nil
}

// Compile 把 Table 编译成已冻结的机器定义
func Compile[C any](t *Table, r *Registry[C]) (*automat.Definition[C], error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = NewRegistry[C]()
	}

	specs, err := t.orderedStates()
	if err != nil {
		return nil, err
	}

	b := automat.NewBuilder[C](t.Name)
	states := make(map[string]*automat.State, len(specs))
	for _, spec := range specs {
		var opts []automat.StateOption
		if spec.Persist != nil {
			opts = append(opts, automat.Persist(*spec.Persist))
		}
		if spec.Data == "" {
			states[spec.Name] = b.State(spec.Name, opts...)
			continue
		}
		factory, err := r.factory(spec.Data)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", spec.Name, err)
		}
		states[spec.Name] = b.DataState(spec.Name, factory, opts...)
	}

	for _, spec := range t.Inputs {
		var opts []automat.InputOption
		if spec.Returns {
			opts = append(opts, automat.WithResult())
		}
		b.Input(spec.Name, opts...)
	}

	for _, spec := range t.Common {
		fn, err := r.common(spec.Handler)
		if err != nil {
			return nil, fmt.Errorf("common %s: %w", spec.Input, err)
		}
		if err := b.Common(automat.Input(spec.Input), fn); err != nil {
			return nil, fmt.Errorf("common %s: %w", spec.Input, err)
		}
	}

	lookup := func(name string) (*automat.State, error) {
		if s, ok := states[name]; ok {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, name)
	}

	for i, spec := range t.Transitions {
		wrap := func(err error) error {
			return fmt.Errorf("transition #%d %s --%s--> %s: %w", i, spec.From, spec.Input, spec.To, err)
		}
		from, err := lookup(spec.From)
		if err != nil {
			return nil, wrap(err)
		}
		to, err := lookup(spec.To)
		if err != nil {
			return nil, wrap(err)
		}
		h, err := r.handler(spec.Handler)
		if err != nil {
			return nil, wrap(err)
		}

		upon := b.Upon(from, automat.Input(spec.Input))
		if spec.NoData {
			upon.NoData()
		}
		reg := upon.To(to)
		if spec.Output != "" {
			reg.Named(spec.Output)
		}
		if err := reg.Do(h); err != nil {
			return nil, wrap(err)
		}
	}

	if u := t.Unhandled; u != nil {
		to, err := lookup(u.To)
		if err != nil {
			return nil, fmt.Errorf("unhandled: %w", err)
		}
		h, err := r.handler(u.Handler)
		if err != nil {
			return nil, fmt.Errorf("unhandled: %w", err)
		}
		reg := b.Unhandled(to)
		if u.Output != "" {
			reg.Named(u.Output)
		}
		if err := reg.Do(h); err != nil {
			return nil, fmt.Errorf("unhandled: %w", err)
		}
	}

	return b.Build()
}
