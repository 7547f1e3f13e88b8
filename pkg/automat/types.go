package automat

// Input 输入符号，标识机器可接受的一个事件
type Input string

func (i Input) String() string { return string(i) }

// Output 转换时按顺序执行的输出，名称稳定且可读，用于追踪与可视化
type Output interface {
	Name() string
}

// State 机器状态，以指针身份区分
type State struct {
	name    string
	persist bool
	data    bool
	owner   any
}

// Name 返回状态名称
func (s *State) Name() string { return s.name }

// Persist 离开该状态后其数据是否保留
func (s *State) Persist() bool { return s.persist }

// HasData 该状态是否携带状态数据
func (s *State) HasData() bool { return s.data }

func (s *State) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// StateOption 状态选项
type StateOption func(*State)

// Persist 设置离开状态后是否保留状态数据（默认保留）
func Persist(persist bool) StateOption {
	return func(s *State) {
		s.persist = persist
	}
}

// Handler 方法输出的实现，data 仅在需要起始状态数据时非空
type Handler[C any] func(m *Machine[C], core C, data any, args ...any) (any, error)

// Factory 进入数据状态时构造状态数据
type Factory[C any] func(m *Machine[C], core C, args ...any) (any, error)

// CommonFunc 与当前状态无关的公共输入处理函数
type CommonFunc[C any] func(m *Machine[C], core C, args ...any) (any, error)

// StateTracer 绑定到机器状态类型的追踪函数
type StateTracer = Tracer[*State, Input, Output]
