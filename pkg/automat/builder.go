package automat

import (
	"fmt"
	"sort"
)

type inputDecl struct {
	name    Input
	returns bool
}

// InputOption 输入声明选项
type InputOption func(*inputDecl)

// WithResult 声明输入有返回值。有返回值的输入不能在派发过程中重入调用。
func WithResult() InputOption {
	return func(d *inputDecl) {
		d.returns = true
	}
}

// Builder 以显式注册的方式构建机器定义
type Builder[C any] struct {
	name       string
	automaton  *Automaton[*State, Input, Output]
	states     []*State
	names      map[string]*State
	inputs     map[Input]inputDecl
	dataOuts   map[*State]*DataOutput[C]
	common     map[Input]CommonFunc[C]
	registrars []*Registrar[C]
	initial    bool
	built      bool
	err        error
}

// NewBuilder 创建构建器，name 用于日志与可视化
func NewBuilder[C any](name string) *Builder[C] {
	return &Builder[C]{
		name:      name,
		automaton: NewAutomaton[*State, Input, Output](),
		names:     make(map[string]*State),
		inputs:    make(map[Input]inputDecl),
		dataOuts:  make(map[*State]*DataOutput[C]),
		common:    make(map[Input]CommonFunc[C]),
		initial:   true,
	}
}

// Err 返回构建过程中记录的第一个错误
func (b *Builder[C]) Err() error {
	return b.err
}

func (b *Builder[C]) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// State 声明无数据状态，第一个无数据状态为初始状态
func (b *Builder[C]) State(name string, opts ...StateOption) *State {
	s := b.newState(name, false, opts)
	if b.built {
		b.fail(fmt.Errorf("%w: cannot add state %s", ErrAlreadySealed, name))
		return s
	}
	if b.initial {
		b.initial = false
		if err := b.automaton.SetInitialState(s); err != nil {
			b.fail(err)
		}
	}
	return s
}

// DataState 声明携带数据的状态，进入时由 factory 构造数据
func (b *Builder[C]) DataState(name string, factory Factory[C], opts ...StateOption) *State {
	s := b.newState(name, true, opts)
	if b.built {
		b.fail(fmt.Errorf("%w: cannot add state %s", ErrAlreadySealed, name))
		return s
	}
	if b.initial {
		b.fail(fmt.Errorf("%w: %s", ErrInitialStateData, name))
	}
	b.dataOuts[s] = &DataOutput[C]{state: s, factory: factory}
	return s
}

func (b *Builder[C]) newState(name string, data bool, opts []StateOption) *State {
	s := &State{name: name, persist: true, data: data, owner: b}
	for _, opt := range opts {
		opt(s)
	}
	if b.built {
		return s
	}
	if _, exists := b.names[name]; exists {
		b.fail(fmt.Errorf("state %s declared twice", name))
	}
	b.names[name] = s
	b.states = append(b.states, s)
	return s
}

// Input 声明机器接受的输入
func (b *Builder[C]) Input(name string, opts ...InputOption) Input {
	decl := inputDecl{name: Input(name)}
	for _, opt := range opts {
		opt(&decl)
	}
	if b.built {
		b.fail(fmt.Errorf("%w: cannot add input %s", ErrAlreadySealed, name))
		return decl.name
	}
	if _, exists := b.inputs[decl.name]; exists {
		b.fail(fmt.Errorf("%w: %s", ErrDuplicateInput, name))
		return decl.name
	}
	b.inputs[decl.name] = decl
	return decl.name
}

// Common 为输入注册与状态无关的处理函数，不经过转换表
func (b *Builder[C]) Common(input Input, fn CommonFunc[C]) error {
	if b.built {
		return b.fail(fmt.Errorf("%w: cannot add common input %s", ErrAlreadySealed, input))
	}
	if _, ok := b.inputs[input]; !ok {
		return b.fail(&UnknownInputError{Input: input})
	}
	b.common[input] = fn
	return nil
}

// Upon 开始声明 from 状态收到 input 时的转换
func (b *Builder[C]) Upon(from *State, input Input) *Upon[C] {
	return &Upon[C]{b: b, from: from, input: input}
}

// Unhandled 声明没有匹配转换时进入的默认状态
func (b *Builder[C]) Unhandled(to *State) *Registrar[C] {
	return b.register(&Registrar[C]{b: b, to: to, unhandled: true})
}

func (b *Builder[C]) register(r *Registrar[C]) *Registrar[C] {
	b.registrars = append(b.registrars, r)
	return r
}

func (b *Builder[C]) checkState(s *State) error {
	if s == nil || s.owner != any(b) {
		return fmt.Errorf("%w: %v", ErrForeignState, s)
	}
	return nil
}

// Build 检查所有转换均已实现，冻结转换表并返回机器定义。
// 构建后任何修改都返回 ErrAlreadySealed。
func (b *Builder[C]) Build() (*Definition[C], error) {
	if b.built {
		return nil, fmt.Errorf("%w: cannot build %s twice", ErrAlreadySealed, b.name)
	}
	b.built = true

	if b.err != nil {
		return nil, b.err
	}
	for _, r := range b.registrars {
		if err := r.checkComplete(); err != nil {
			return nil, err
		}
	}
	if _, ok := b.automaton.InitialState(); !ok {
		return nil, ErrNoInitialState
	}
	for _, input := range b.automaton.InputAlphabet() {
		if _, ok := b.common[input]; ok {
			return nil, fmt.Errorf("%w: input %s is both common and state-specific", ErrDuplicateTransition, input)
		}
	}
	b.automaton.Seal()

	return &Definition[C]{
		name:      b.name,
		automaton: b.automaton,
		inputs:    b.inputs,
		common:    b.common,
		states:    b.states,
	}, nil
}

// MustBuild 与 Build 相同，失败时 panic
func (b *Builder[C]) MustBuild() *Definition[C] {
	def, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine %s: %v", b.name, err))
	}
	return def
}

// Upon 尚未指定目标状态的转换声明
type Upon[C any] struct {
	b      *Builder[C]
	from   *State
	input  Input
	nodata bool
}

// NoData 转换实现不接收起始状态的数据
func (u *Upon[C]) NoData() *Upon[C] {
	u.nodata = true
	return u
}

// To 转换到 to 状态
func (u *Upon[C]) To(to *State) *Registrar[C] {
	return u.b.register(&Registrar[C]{
		b:      u.b,
		from:   u.from,
		to:     to,
		input:  u.input,
		nodata: u.nodata,
	})
}

// Loop 保持当前状态，状态数据不会重建
func (u *Upon[C]) Loop() *Registrar[C] {
	return u.To(u.from)
}

// Registrar 等待提供实现的转换记录
type Registrar[C any] struct {
	b         *Builder[C]
	from      *State
	to        *State
	input     Input
	nodata    bool
	unhandled bool
	name      string
	done      bool
}

// Named 设置方法输出的名称，默认为 "<状态>.<输入>"
func (r *Registrar[C]) Named(name string) *Registrar[C] {
	r.name = name
	return r
}

// Returns 转换没有实现体，每次返回固定结果
func (r *Registrar[C]) Returns(result any) error {
	return r.Do(func(*Machine[C], C, any, ...any) (any, error) {
		return result, nil
	})
}

// Do 提供转换实现并注册到转换表
func (r *Registrar[C]) Do(fn Handler[C]) error {
	b := r.b
	if b.built {
		return b.fail(fmt.Errorf("%w: cannot register transition %s", ErrAlreadySealed, r))
	}
	if err := b.checkState(r.to); err != nil {
		return b.fail(err)
	}
	if !r.unhandled {
		if err := b.checkState(r.from); err != nil {
			return b.fail(err)
		}
		if _, ok := b.inputs[r.input]; !ok {
			return b.fail(&UnknownInputError{Input: r.input})
		}
	}

	outputs := r.outputs(fn)
	var err error
	if r.unhandled {
		err = b.automaton.SetUnhandled(r.to, outputs)
	} else {
		err = b.automaton.AddTransition(r.from, r.input, r.to, outputs)
	}
	if err != nil {
		return b.fail(err)
	}
	r.done = true
	return nil
}

// outputs 进入其他数据状态时先构造数据，再执行实现
func (r *Registrar[C]) outputs(fn Handler[C]) []Output {
	var outputs []Output
	if r.to.data && r.to != r.from {
		outputs = append(outputs, r.b.dataOuts[r.to])
	}

	name := r.name
	if name == "" {
		name = r.String()
	}
	return append(outputs, &MethodOutput[C]{
		name:         name,
		fn:           fn,
		requiresData: r.from != nil && r.from.data && !r.nodata,
	})
}

func (r *Registrar[C]) checkComplete() error {
	if r.done {
		return nil
	}
	return fmt.Errorf("%w: from %v to %v upon %s: provide an implementation with Do or Returns",
		ErrIncompleteTransition, r.from, r.to, r.input)
}

func (r *Registrar[C]) String() string {
	if r.unhandled {
		return "unhandled"
	}
	return r.from.String() + "." + string(r.input)
}

// Definition 构建完成、不可修改的机器定义，可创建任意多个实例
type Definition[C any] struct {
	name      string
	automaton *Automaton[*State, Input, Output]
	inputs    map[Input]inputDecl
	common    map[Input]CommonFunc[C]
	states    []*State
}

// New 创建新的机器实例
func (d *Definition[C]) New(core C, opts ...Option) *Machine[C] {
	return newMachine(d, core, opts...)
}

// Name 返回机器名称
func (d *Definition[C]) Name() string {
	return d.name
}

// Automaton 返回已冻结的转换表
func (d *Definition[C]) Automaton() *Automaton[*State, Input, Output] {
	return d.automaton
}

// States 按声明顺序返回全部状态
func (d *Definition[C]) States() []*State {
	return append([]*State(nil), d.states...)
}

// State 按名称查找状态
func (d *Definition[C]) State(name string) (*State, bool) {
	for _, s := range d.states {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// Inputs 按名称排序返回声明的输入
func (d *Definition[C]) Inputs() []Input {
	inputs := make([]Input, 0, len(d.inputs))
	for input := range d.inputs {
		inputs = append(inputs, input)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
	return inputs
}

// Returns 输入是否声明了返回值
func (d *Definition[C]) Returns(input Input) bool {
	return d.inputs[input].returns
}
