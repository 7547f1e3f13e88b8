package automat

import (
	"fmt"
	"slices"
)

// Automaton 有限状态机的转换表声明。
//
// 它不是机器本身：Seal 之后不再可变，可被任意多个 Transitioner 共享。
type Automaton[S, I, O comparable] struct {
	initial     S
	hasInitial  bool
	transitions map[transitionKey[S, I]]*Transition[S, I, O]
	order       []transitionKey[S, I]
	unhandled   *Transition[S, I, O]
	sealed      bool
}

// NewAutomaton 创建空转换表
func NewAutomaton[S, I, O comparable]() *Automaton[S, I, O] {
	return &Automaton[S, I, O]{
		transitions: make(map[transitionKey[S, I]]*Transition[S, I, O]),
	}
}

// SetInitialState 设置初始状态，只能设置一次
func (a *Automaton[S, I, O]) SetInitialState(state S) error {
	if a.sealed {
		return ErrAlreadySealed
	}
	if a.hasInitial {
		return fmt.Errorf("%w: %v", ErrAlreadyInitialized, a.initial)
	}
	a.initial = state
	a.hasInitial = true
	return nil
}

// InitialState 返回初始状态，未设置时 ok 为 false
func (a *Automaton[S, I, O]) InitialState() (state S, ok bool) {
	return a.initial, a.hasInitial
}

// AddTransition 添加转换规则，同一 (from, input) 只能注册一次，失败时转换表不变
func (a *Automaton[S, I, O]) AddTransition(from S, input I, to S, outputs []O) error {
	if a.sealed {
		return ErrAlreadySealed
	}

	key := transitionKey[S, I]{from: from, input: input}
	if _, exists := a.transitions[key]; exists {
		return &DuplicateTransitionError{State: from, Input: input}
	}

	a.transitions[key] = &Transition[S, I, O]{
		From:    from,
		Input:   input,
		To:      to,
		Outputs: slices.Clone(outputs),
	}
	a.order = append(a.order, key)
	return nil
}

// SetUnhandled 设置未匹配 (状态, 输入) 时使用的默认转换，只能设置一次
func (a *Automaton[S, I, O]) SetUnhandled(to S, outputs []O) error {
	if a.sealed {
		return ErrAlreadySealed
	}
	if a.unhandled != nil {
		return fmt.Errorf("%w: unhandled default already goes to %v", ErrDuplicateTransition, a.unhandled.To)
	}
	a.unhandled = &Transition[S, I, O]{To: to, Outputs: slices.Clone(outputs)}
	return nil
}

// OutputForInput 查找 state 收到 input 后的目标状态和输出
func (a *Automaton[S, I, O]) OutputForInput(state S, input I) (S, []O, error) {
	if t, ok := a.transitions[transitionKey[S, I]{from: state, input: input}]; ok {
		return t.To, slices.Clone(t.Outputs), nil
	}
	if a.unhandled != nil {
		return a.unhandled.To, slices.Clone(a.unhandled.Outputs), nil
	}
	var zero S
	return zero, nil, &NoTransitionError{State: state, Input: input}
}

// Unhandled 返回默认转换，未设置时 ok 为 false。返回值的 From 和 Input 为零值。
func (a *Automaton[S, I, O]) Unhandled() (t Transition[S, I, O], ok bool) {
	if a.unhandled == nil {
		return t, false
	}
	return Transition[S, I, O]{To: a.unhandled.To, Outputs: slices.Clone(a.unhandled.Outputs)}, true
}

// Transitions 按注册顺序返回全部转换
func (a *Automaton[S, I, O]) Transitions() []Transition[S, I, O] {
	all := make([]Transition[S, I, O], 0, len(a.order))
	for _, key := range a.order {
		t := a.transitions[key]
		all = append(all, Transition[S, I, O]{
			From:    t.From,
			Input:   t.Input,
			To:      t.To,
			Outputs: slices.Clone(t.Outputs),
		})
	}
	return all
}

// States 返回初始状态、转换中出现的状态以及默认转换的目标状态（去重）
func (a *Automaton[S, I, O]) States() []S {
	seen := make(map[S]struct{})
	var states []S
	add := func(s S) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		states = append(states, s)
	}

	if a.hasInitial {
		add(a.initial)
	}
	for _, key := range a.order {
		t := a.transitions[key]
		add(t.From)
		add(t.To)
	}
	if a.unhandled != nil {
		add(a.unhandled.To)
	}
	return states
}

// InputAlphabet 返回转换表可接受的全部输入（去重）
func (a *Automaton[S, I, O]) InputAlphabet() []I {
	seen := make(map[I]struct{})
	var inputs []I
	for _, key := range a.order {
		if _, ok := seen[key.input]; ok {
			continue
		}
		seen[key.input] = struct{}{}
		inputs = append(inputs, key.input)
	}
	return inputs
}

// OutputAlphabet 返回转换表可能产生的全部输出（去重）
func (a *Automaton[S, I, O]) OutputAlphabet() []O {
	seen := make(map[O]struct{})
	var outputs []O
	add := func(list []O) {
		for _, o := range list {
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			outputs = append(outputs, o)
		}
	}

	for _, key := range a.order {
		add(a.transitions[key].Outputs)
	}
	if a.unhandled != nil {
		add(a.unhandled.Outputs)
	}
	return outputs
}

// Seal 冻结转换表，之后所有修改操作返回 ErrAlreadySealed
func (a *Automaton[S, I, O]) Seal() {
	a.sealed = true
}

// Sealed 转换表是否已冻结
func (a *Automaton[S, I, O]) Sealed() bool {
	return a.sealed
}
