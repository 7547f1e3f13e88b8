package automat

// OutputTracer 每执行一个输出调用一次
type OutputTracer[O comparable] func(output O)

// Tracer 每次转换调用一次，可返回逐输出的追踪回调。
// 只用于观测，不得改变机器状态或抛出 panic。
type Tracer[S, I, O comparable] func(from S, input I, to S) OutputTracer[O]

// Transitioner 当前状态与 Automaton 的组合
type Transitioner[S, I, O comparable] struct {
	automaton *Automaton[S, I, O]
	state     S
	tracer    Tracer[S, I, O]
}

// NewTransitioner 创建绑定到 automaton 的状态游标
func NewTransitioner[S, I, O comparable](automaton *Automaton[S, I, O], initial S) *Transitioner[S, I, O] {
	return &Transitioner[S, I, O]{
		automaton: automaton,
		state:     initial,
	}
}

// State 返回当前状态
func (t *Transitioner[S, I, O]) State() S {
	return t.state
}

// Automaton 返回共享的转换表
func (t *Transitioner[S, I, O]) Automaton() *Automaton[S, I, O] {
	return t.automaton
}

// SetTrace 安装或移除（nil）追踪函数
func (t *Transitioner[S, I, O]) SetTrace(tracer Tracer[S, I, O]) {
	t.tracer = tracer
}

// Transition 根据输入转换状态并返回需要执行的输出。
//
// 新状态在返回前即已提交，调用方随后执行输出失败也不会回退。
// 查找失败时状态保持不变。
func (t *Transitioner[S, I, O]) Transition(input I) ([]O, OutputTracer[O], error) {
	to, outputs, err := t.automaton.OutputForInput(t.state, input)
	if err != nil {
		return nil, nil, err
	}

	var outTracer OutputTracer[O]
	if t.tracer != nil {
		outTracer = t.tracer(t.state, input, to)
	}
	t.state = to
	return outputs, outTracer, nil
}
