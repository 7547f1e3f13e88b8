package automat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junbin-yang/go-automat/pkg/logger"
)

type lock struct {
	engaged bool
	log     []string
}

func newTurnstile(t *testing.T) *Definition[*lock] {
	t.Helper()
	b := NewBuilder[*lock]("turnstile")
	locked := b.State("Locked")
	unlocked := b.State("Unlocked")
	armTurned := b.Input("arm_turned")
	farePaid := b.Input("fare_paid")

	require.NoError(t, b.Upon(locked, farePaid).To(unlocked).Do(
		func(_ *Machine[*lock], l *lock, _ any, _ ...any) (any, error) {
			l.engaged = false
			l.log = append(l.log, "disengage")
			return nil, nil
		}))
	require.NoError(t, b.Upon(locked, armTurned).Loop().Returns(nil))
	require.NoError(t, b.Upon(unlocked, armTurned).To(locked).Do(
		func(_ *Machine[*lock], l *lock, _ any, _ ...any) (any, error) {
			l.engaged = true
			l.log = append(l.log, "engage")
			return nil, nil
		}))

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func TestMachine_Turnstile(t *testing.T) {
	def := newTurnstile(t)
	l := &lock{engaged: true}
	m := def.New(l, WithLogger(logger.Nop()))

	seq := []string{m.State().Name()}
	for _, in := range []Input{"arm_turned", "fare_paid", "arm_turned", "arm_turned", "fare_paid"} {
		require.NoError(t, m.Send(in))
		seq = append(seq, m.State().Name())
	}
	assert.Equal(t, []string{"Locked", "Locked", "Unlocked", "Locked", "Locked", "Unlocked"}, seq)
	assert.Equal(t, []string{"disengage", "engage", "disengage"}, l.log)
	assert.False(t, l.engaged)

	err := m.Send("fare_paid")
	require.Error(t, err)
	var nte *NoTransitionError
	require.ErrorAs(t, err, &nte)
	unlocked, _ := def.State("Unlocked")
	assert.Same(t, unlocked, nte.State)
	assert.Equal(t, Input("fare_paid"), nte.Input)
	assert.Same(t, unlocked, m.State())

	assert.True(t, m.Can("arm_turned"))
	assert.False(t, m.Can("fare_paid"))
	assert.False(t, m.Can("kick"))
	assert.Same(t, l, m.Core())
	assert.Same(t, def, m.Definition())
}

func TestMachine_IndependentInstances(t *testing.T) {
	def := newTurnstile(t)
	a := def.New(&lock{})
	b := def.New(&lock{})

	require.NoError(t, a.Send("fare_paid"))
	assert.Equal(t, "Unlocked", a.State().Name())
	assert.Equal(t, "Locked", b.State().Name())
}

func TestMachine_UnknownInput(t *testing.T) {
	m := newTurnstile(t).New(&lock{})
	_, err := m.Call("kick")
	assert.ErrorIs(t, err, ErrUnknownInput)
	assert.Equal(t, "Locked", m.State().Name())
}

type tally struct{ n int }

func newCounter(t *testing.T, persist bool) *Definition[struct{}] {
	t.Helper()
	b := NewBuilder[struct{}]("counter")
	initial := b.State("initial")
	counting := b.DataState("counting", func(*Machine[struct{}], struct{}, ...any) (any, error) {
		return &tally{}, nil
	}, Persist(persist))
	start := b.Input("start")
	increment := b.Input("increment", WithResult())
	stop := b.Input("stop", WithResult())
	peek := b.Input("peek", WithResult())

	require.NoError(t, b.Upon(initial, start).To(counting).Returns(nil))
	require.NoError(t, b.Upon(counting, increment).Loop().Do(
		func(_ *Machine[struct{}], _ struct{}, data any, _ ...any) (any, error) {
			c := data.(*tally)
			c.n++
			return c.n, nil
		}))
	require.NoError(t, b.Upon(counting, peek).Loop().Do(
		func(_ *Machine[struct{}], _ struct{}, data any, _ ...any) (any, error) {
			return data, nil
		}))
	require.NoError(t, b.Upon(counting, stop).To(initial).Do(
		func(_ *Machine[struct{}], _ struct{}, data any, _ ...any) (any, error) {
			return data.(*tally).n, nil
		}))
	return b.MustBuild()
}

func TestMachine_Counter(t *testing.T) {
	m := newCounter(t, false).New(struct{}{})

	call := func(in Input) any {
		v, err := m.Call(in)
		require.NoError(t, err)
		return v
	}

	call("start")
	call("increment")
	call("increment")
	assert.Equal(t, 2, call("stop"))

	call("start")
	call("increment")
	assert.Equal(t, 1, call("stop"), "a fresh counter is built on re-entry")
}

func TestMachine_SelfLoopKeepsData(t *testing.T) {
	def := newCounter(t, false)
	m := def.New(struct{}{})
	require.NoError(t, m.Send("start"))

	first, err := m.Call("peek")
	require.NoError(t, err)
	_, _ = m.Call("increment")
	second, err := m.Call("peek")
	require.NoError(t, err)
	assert.Same(t, first, second)

	counting, _ := def.State("counting")
	data, ok := m.Data(counting)
	require.True(t, ok)
	assert.Same(t, first, data)
}

func TestMachine_NonPersistentDataRebuilt(t *testing.T) {
	def := newCounter(t, false)
	m := def.New(struct{}{})
	counting, _ := def.State("counting")

	require.NoError(t, m.Send("start"))
	first, _ := m.Call("peek")
	_, _ = m.Call("stop")
	_, ok := m.Data(counting)
	assert.False(t, ok, "leaving a non-persistent state drops its data")

	require.NoError(t, m.Send("start"))
	second, _ := m.Call("peek")
	assert.NotSame(t, first, second)
}

func TestMachine_PersistentDataRetained(t *testing.T) {
	def := newCounter(t, true)
	m := def.New(struct{}{})
	counting, _ := def.State("counting")

	require.NoError(t, m.Send("start"))
	first, _ := m.Call("peek")
	_, _ = m.Call("increment")
	got, _ := m.Call("stop")
	assert.Equal(t, 1, got)
	_, ok := m.Data(counting)
	assert.True(t, ok)

	require.NoError(t, m.Send("start"))
	second, _ := m.Call("peek")
	assert.Same(t, first, second)
	got, _ = m.Call("increment")
	assert.Equal(t, 2, got)
}

// chain 构建 A -names[0]-> B -names[1]-> C ... 的链，每个实现记录开始与结束，并发送 next 中的后续输入
func chain(t *testing.T, names []string, next map[string][]Input, rec *[]string) *Definition[struct{}] {
	t.Helper()
	b := NewBuilder[struct{}]("chain")
	states := make([]*State, len(names)+1)
	for i := range states {
		states[i] = b.State(string(rune('A' + i)))
	}

	for i, name := range names {
		name := name // per-iteration copy for Go < 1.22 loop semantics
		input := b.Input(name)
		require.NoError(t, b.Upon(states[i], input).To(states[i+1]).Do(
			func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
				*rec = append(*rec, name+":start")
				for _, in := range next[name] {
					_, err := m.Call(in)
					require.NoError(t, err)
				}
				*rec = append(*rec, name+":end")
				return nil, nil
			}))
	}
	return b.MustBuild()
}

func TestMachine_ReentrancyDepth(t *testing.T) {
	var rec []string
	names := []string{"one", "two", "three", "four"}
	def := chain(t, names, map[string][]Input{
		"one":   {"two"},
		"two":   {"three"},
		"three": {"four"},
	}, &rec)

	m := def.New(struct{}{})
	require.NoError(t, m.Send("one"))

	assert.Equal(t, []string{
		"one:start", "one:end",
		"two:start", "two:end",
		"three:start", "three:end",
		"four:start", "four:end",
	}, rec)
	assert.Equal(t, "E", m.State().Name())
}

func TestMachine_ReentrancyDepthFirst(t *testing.T) {
	b := NewBuilder[struct{}]("depth-first")
	a, s1, s2, s3, s4 := b.State("A"), b.State("B"), b.State("C"), b.State("D"), b.State("E")
	goIn, x, y, z := b.Input("go"), b.Input("x"), b.Input("y"), b.Input("z")

	var rec []string
	record := func(name string, then ...Input) Handler[struct{}] {
		return func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			rec = append(rec, name+"@"+m.State().Name())
			for _, in := range then {
				require.NoError(t, m.Send(in))
			}
			return nil, nil
		}
	}
	// go 排入 x、y；x 排入的 z 先于 y 执行
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(record("go", x, y)))
	require.NoError(t, b.Upon(s1, x).To(s2).Do(record("x", z)))
	require.NoError(t, b.Upon(s2, z).To(s3).Do(record("z")))
	require.NoError(t, b.Upon(s3, y).To(s4).Do(record("y")))

	m := b.MustBuild().New(struct{}{})
	require.NoError(t, m.Send("go"))
	assert.Equal(t, []string{"go@B", "x@C", "z@D", "y@E"}, rec)
}

func TestMachine_ReentrancySiblingsAndNested(t *testing.T) {
	b := NewBuilder[struct{}]("siblings")
	idle := b.State("Idle")
	goIn, b1, b2, c := b.Input("go"), b.Input("b1"), b.Input("b2"), b.Input("c")

	var order []string
	loop := func(name string, then ...Input) {
		require.NoError(t, b.Upon(idle, Input(name)).Loop().Do(
			func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
				order = append(order, name)
				for _, in := range then {
					require.NoError(t, m.Send(in))
				}
				return nil, nil
			}))
	}
	loop(string(goIn), b1, b2)
	loop(string(b1), c)
	loop(string(b2))
	loop(string(c))

	m := b.MustBuild().New(struct{}{})
	require.NoError(t, m.Send(goIn))
	assert.Equal(t, []string{"go", "b1", "c", "b2"}, order)

	// 再次调用时队列已清空
	order = nil
	require.NoError(t, m.Send(b2))
	assert.Equal(t, []string{"b2"}, order)
}

func TestMachine_NestedDeferredErrorDiscardsSiblings(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder[struct{}]("nested-fail")
	idle := b.State("Idle")
	goIn, first, fail, second := b.Input("go"), b.Input("first"), b.Input("fail"), b.Input("second")

	var order []string
	require.NoError(t, b.Upon(idle, goIn).Loop().Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			order = append(order, "go")
			require.NoError(t, m.Send(first))
			require.NoError(t, m.Send(second))
			return nil, nil
		}))
	require.NoError(t, b.Upon(idle, first).Loop().Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			order = append(order, "first")
			require.NoError(t, m.Send(fail))
			return nil, nil
		}))
	require.NoError(t, b.Upon(idle, fail).Loop().Do(
		func(*Machine[struct{}], struct{}, any, ...any) (any, error) {
			order = append(order, "fail")
			return nil, boom
		}))
	require.NoError(t, b.Upon(idle, second).Loop().Do(
		func(*Machine[struct{}], struct{}, any, ...any) (any, error) {
			order = append(order, "second")
			return nil, nil
		}))

	m := b.MustBuild().New(struct{}{})
	assert.ErrorIs(t, m.Send(goIn), boom)
	assert.Equal(t, []string{"go", "first", "fail"}, order)
}

func TestMachine_ReentrancyWithResult(t *testing.T) {
	b := NewBuilder[struct{}]("reentrant")
	a, s1, s2 := b.State("A"), b.State("B"), b.State("C")
	goIn := b.Input("go")
	value := b.Input("value", WithResult())

	var inner error
	var during string
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			_, inner = m.Call(value)
			during = m.State().Name()
			return "outer", nil
		}))
	require.NoError(t, b.Upon(s1, value).To(s2).Returns(42))

	m := b.MustBuild().New(struct{}{})
	got, err := m.Call(goIn)
	require.NoError(t, err)
	assert.Equal(t, "outer", got)

	require.Error(t, inner)
	assert.True(t, IsReentrancyError(inner))
	assert.ErrorIs(t, inner, ErrReentrancy)
	assert.Equal(t, "B", during)
	assert.Equal(t, "B", m.State().Name(), "rejected reentrant call must not transition")

	got, err = m.Call(value)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, "C", m.State().Name())
}

func TestMachine_OutputErrorNoRollback(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder[struct{}]("fail")
	a, s1 := b.State("A"), b.State("B")
	goIn := b.Input("go")

	var seen string
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			seen = m.State().Name()
			return nil, boom
		}))

	m := b.MustBuild().New(struct{}{})
	assert.ErrorIs(t, m.Send(goIn), boom)
	assert.Equal(t, "B", seen, "state is committed before outputs run")
	assert.Equal(t, "B", m.State().Name())
}

func TestMachine_DeferredErrorDiscardsQueue(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder[struct{}]("deferred")
	a, s1, s2, s3 := b.State("A"), b.State("B"), b.State("C"), b.State("D")
	goIn, fail, after := b.Input("go"), b.Input("fail"), b.Input("after")

	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			require.NoError(t, m.Send(fail))
			require.NoError(t, m.Send(after))
			return nil, nil
		}))
	require.NoError(t, b.Upon(s1, fail).To(s2).Do(
		func(*Machine[struct{}], struct{}, any, ...any) (any, error) {
			return nil, boom
		}))
	require.NoError(t, b.Upon(s2, after).To(s3).Returns(nil))

	m := b.MustBuild().New(struct{}{})
	assert.ErrorIs(t, m.Send(goIn), boom)
	assert.Equal(t, "C", m.State().Name(), "calls queued after the failure are discarded")

	// 队列已清空，新的调用立即执行
	require.NoError(t, m.Send(after))
	assert.Equal(t, "D", m.State().Name())
}

func TestMachine_OuterAndDeferredErrorsJoined(t *testing.T) {
	outer := errors.New("outer")
	deferred := errors.New("deferred")
	b := NewBuilder[struct{}]("joined")
	a, s1, s2 := b.State("A"), b.State("B"), b.State("C")
	goIn, fail := b.Input("go"), b.Input("fail")

	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			require.NoError(t, m.Send(fail))
			return nil, outer
		}))
	require.NoError(t, b.Upon(s1, fail).To(s2).Do(
		func(*Machine[struct{}], struct{}, any, ...any) (any, error) {
			return nil, deferred
		}))

	m := b.MustBuild().New(struct{}{})
	err := m.Send(goIn)
	assert.ErrorIs(t, err, outer)
	assert.ErrorIs(t, err, deferred)
	assert.Equal(t, "C", m.State().Name())
}

func TestMachine_PanicResetsQueue(t *testing.T) {
	b := NewBuilder[struct{}]("panic")
	a, s1, s2, s3 := b.State("A"), b.State("B"), b.State("C"), b.State("D")
	goIn, next := b.Input("go"), b.Input("next")

	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, _ ...any) (any, error) {
			require.NoError(t, m.Send(next))
			panic("handler exploded")
		}))
	require.NoError(t, b.Upon(s1, next).To(s2).Returns(nil))
	require.NoError(t, b.Upon(s2, next).To(s3).Returns(nil))

	m := b.MustBuild().New(struct{}{})
	assert.Panics(t, func() { _ = m.Send(goIn) })
	assert.Equal(t, "B", m.State().Name())

	// 不再处于派发中，排队的调用已被丢弃
	require.NoError(t, m.Send(next))
	assert.Equal(t, "C", m.State().Name())
}

func TestMachine_ArgsPassed(t *testing.T) {
	b := NewBuilder[struct{}]("args")
	a, s1 := b.State("A"), b.State("B")
	goIn, echo := b.Input("go"), b.Input("echo")

	var got []any
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[struct{}], _ struct{}, _ any, args ...any) (any, error) {
			got = append(got, args...)
			buf := []any{"queued"}
			require.NoError(t, m.Send(echo, buf...))
			buf[0] = "mutated"
			return nil, nil
		}))
	require.NoError(t, b.Upon(s1, echo).Loop().Do(
		func(_ *Machine[struct{}], _ struct{}, _ any, args ...any) (any, error) {
			got = append(got, args...)
			return nil, nil
		}))

	m := b.MustBuild().New(struct{}{})
	require.NoError(t, m.Send(goIn, 1, "two"))
	assert.Equal(t, []any{1, "two", "queued"}, got)
}

func TestMachine_Common(t *testing.T) {
	b := NewBuilder[*lock]("common")
	a, s1 := b.State("A"), b.State("B")
	goIn := b.Input("go")
	where := b.Input("where", WithResult())

	require.NoError(t, b.Common(where, func(m *Machine[*lock], _ *lock, _ ...any) (any, error) {
		return m.State().Name(), nil
	}))

	var during any
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(m *Machine[*lock], _ *lock, _ any, _ ...any) (any, error) {
			var err error
			during, err = m.Call(where)
			return nil, err
		}))

	m := b.MustBuild().New(&lock{})
	got, err := m.Call(where)
	require.NoError(t, err)
	assert.Equal(t, "A", got)
	assert.True(t, m.Can(where))

	require.NoError(t, m.Send(goIn))
	assert.Equal(t, "B", during, "common inputs run immediately even during dispatch")
}

func TestMachine_Unhandled(t *testing.T) {
	b := NewBuilder[struct{}]("unhandled")
	a, s1, broken := b.State("A"), b.State("B"), b.State("Broken")
	goIn, kick := b.Input("go"), b.Input("kick")

	require.NoError(t, b.Upon(a, goIn).To(s1).Returns(nil))
	require.NoError(t, b.Unhandled(broken).Returns("unhandled"))

	m := b.MustBuild().New(struct{}{})
	got, err := m.Call(kick)
	require.NoError(t, err)
	assert.Equal(t, "unhandled", got)
	assert.Equal(t, "Broken", m.State().Name())
	assert.True(t, m.Can(goIn))
}

func TestMachine_Trace(t *testing.T) {
	def := newCounter(t, true)
	m := def.New(struct{}{})

	var steps []string
	m.SetTrace(func(from *State, input Input, to *State) OutputTracer[Output] {
		steps = append(steps, from.Name()+" "+string(input)+" "+to.Name())
		return func(o Output) {
			steps = append(steps, "  "+o.Name())
		}
	})

	require.NoError(t, m.Send("start"))
	_, _ = m.Call("stop")
	require.NoError(t, m.Send("start"))

	assert.Equal(t, []string{
		"initial start counting",
		"  data:counting",
		"  initial.start",
		"counting stop initial",
		"  counting.stop",
		"initial start counting",
		"  initial.start",
	}, steps, "retained data is not rebuilt and its output is not traced")

	m.SetTrace(nil)
	_, _ = m.Call("stop")
	assert.Len(t, steps, 7)
}

func TestMachine_WithTracer(t *testing.T) {
	var transitions int
	m := newTurnstile(t).New(&lock{}, WithTracer(func(*State, Input, *State) OutputTracer[Output] {
		transitions++
		return nil
	}))

	require.NoError(t, m.Send("fare_paid"))
	require.NoError(t, m.Send("arm_turned"))
	assert.Equal(t, 2, transitions)
}

func TestMachine_FactoryError(t *testing.T) {
	boom := errors.New("no data")
	b := NewBuilder[struct{}]("factory")
	a := b.State("A")
	s1 := b.DataState("B", func(*Machine[struct{}], struct{}, ...any) (any, error) {
		return nil, boom
	})
	goIn := b.Input("go")

	var ran bool
	require.NoError(t, b.Upon(a, goIn).To(s1).Do(
		func(*Machine[struct{}], struct{}, any, ...any) (any, error) {
			ran = true
			return nil, nil
		}))

	m := b.MustBuild().New(struct{}{})
	assert.ErrorIs(t, m.Send(goIn), boom)
	assert.False(t, ran, "outputs after a failed factory are skipped")
	assert.Equal(t, "B", m.State().Name())
	_, ok := m.Data(s1)
	assert.False(t, ok)
}
