package automat

import (
	"errors"
	"slices"

	"github.com/junbin-yang/go-automat/pkg/logger"
)

// Machine 状态机实例：派发输入、执行输出并管理各状态的数据。
//
// Machine 不是并发安全的，同一实例只能在一个 goroutine 中使用。
// 输出内部对同一实例的调用是重入调用：无返回值的输入被排队，
// 在当前派发结束后、最外层 Call 返回前按排队顺序执行，
// 排队调用自身引发的调用先于其后的同级调用执行；
// 有返回值的输入返回 ReentrancyError。
type Machine[C any] struct {
	def          *Definition[C]
	core         C
	transitioner *Transitioner[*State, Input, Output]
	cluster      map[*State]any
	active       bool
	pending      []func() error
	log          logger.Logger
}

func newMachine[C any](def *Definition[C], core C, opts ...Option) *Machine[C] {
	o := &options{log: logger.Default()}
	for _, opt := range opts {
		opt(o)
	}

	initial, _ := def.automaton.InitialState()
	m := &Machine[C]{
		def:          def,
		core:         core,
		transitioner: NewTransitioner(def.automaton, initial),
		cluster:      make(map[*State]any),
		log:          o.log,
	}
	if o.tracer != nil {
		m.transitioner.SetTrace(o.tracer)
	}
	return m
}

// State 返回当前状态
func (m *Machine[C]) State() *State {
	return m.transitioner.State()
}

// Data 返回状态簇中 state 对应的数据
func (m *Machine[C]) Data(state *State) (any, bool) {
	data, ok := m.cluster[state]
	return data, ok
}

// Core 返回构造实例时传入的核心对象
func (m *Machine[C]) Core() C {
	return m.core
}

// Definition 返回实例所属的机器定义
func (m *Machine[C]) Definition() *Definition[C] {
	return m.def
}

// SetTrace 安装或移除（nil）追踪函数
func (m *Machine[C]) SetTrace(tracer StateTracer) {
	m.transitioner.SetTrace(tracer)
}

// Can 检查当前状态下是否可以处理该输入
func (m *Machine[C]) Can(input Input) bool {
	if _, ok := m.def.common[input]; ok {
		return true
	}
	if _, ok := m.def.inputs[input]; !ok {
		return false
	}
	_, _, err := m.def.automaton.OutputForInput(m.State(), input)
	return err == nil
}

// Send 调用无返回值的输入
func (m *Machine[C]) Send(input Input, args ...any) error {
	_, err := m.Call(input, args...)
	return err
}

// Call 调用输入并返回最后一个方法输出的结果。
//
// 最外层调用在自身派发完成后依次执行排队的重入调用，
// 第一个失败的排队调用会终止排空并丢弃其余排队调用。
// 返回的错误依次包含自身派发错误和排队调用的错误，二者都可能为空。
// 输出失败时已提交的新状态不会回退。
func (m *Machine[C]) Call(input Input, args ...any) (any, error) {
	decl, ok := m.def.inputs[input]
	if !ok {
		return nil, &UnknownInputError{Input: input}
	}
	if common, ok := m.def.common[input]; ok {
		return common(m, m.core, args...)
	}

	if m.active {
		if decl.returns {
			return nil, &ReentrancyError{Input: input}
		}
		args = slices.Clone(args)
		m.pending = append(m.pending, func() error {
			_, err := m.dispatch(input, args)
			return err
		})
		m.log.Debug("reentrant call deferred",
			logger.String("machine", m.def.name),
			logger.String("input", string(input)),
			logger.Int("queued", len(m.pending)),
		)
		return nil, nil
	}

	return m.run(input, args)
}

// run 执行最外层派发并排空重入队列
func (m *Machine[C]) run(input Input, args []any) (result any, err error) {
	m.active = true
	defer func() {
		m.active = false
		m.pending = nil
	}()

	result, err = m.dispatch(input, args)
	if drainErr := m.drain(); drainErr != nil {
		if err == nil {
			err = drainErr
		} else {
			err = errors.Join(err, drainErr)
		}
	}
	return result, err
}

// drain 依次执行排队的调用。每个调用使用新的队列，
// 它排入的调用在下一个同级调用之前执行完毕（深度优先）。
func (m *Machine[C]) drain() error {
	for len(m.pending) > 0 {
		next := m.pending[0]
		backlog := m.pending[1:]
		m.pending = nil

		err := next()
		if err == nil {
			err = m.drain()
		}
		if err != nil {
			if n := len(backlog); n > 0 {
				m.log.Warn("discarding deferred calls after failure",
					logger.String("machine", m.def.name),
					logger.Int("discarded", n),
					logger.Err(err),
				)
			}
			m.pending = nil
			return err
		}
		m.pending = backlog
	}
	return nil
}

func (m *Machine[C]) dispatch(input Input, args []any) (any, error) {
	from := m.transitioner.State()
	dataAtStart := m.cluster[from]

	outputs, tracer, err := m.transitioner.Transition(input)
	if err != nil {
		return nil, err
	}
	to := m.transitioner.State()

	m.log.Debug("transition",
		logger.String("machine", m.def.name),
		logger.String("from", from.String()),
		logger.String("input", string(input)),
		logger.String("to", to.String()),
	)

	var result any
	for _, out := range outputs {
		switch o := out.(type) {
		case *DataOutput[C]:
			// 保留的数据不重新构造
			if _, ok := m.cluster[to]; ok {
				continue
			}
			if tracer != nil {
				tracer(out)
			}
			data, err := o.factory(m, m.core, args...)
			if err != nil {
				return nil, err
			}
			m.cluster[to] = data
		case *MethodOutput[C]:
			if tracer != nil {
				tracer(out)
			}
			var data any
			if o.requiresData {
				data = dataAtStart
			}
			v, err := o.fn(m, m.core, data, args...)
			if err != nil {
				return nil, err
			}
			result = v
		}
	}

	if to != from && !from.persist {
		delete(m.cluster, from)
	}
	return result, nil
}
