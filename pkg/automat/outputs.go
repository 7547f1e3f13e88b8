package automat

// DataOutput 进入数据状态时构造状态数据的输出，每个数据状态一个实例
type DataOutput[C any] struct {
	state   *State
	factory Factory[C]
}

// Name 返回 "data:<状态名>"
func (o *DataOutput[C]) Name() string { return "data:" + o.state.name }

// State 返回数据所属的状态
func (o *DataOutput[C]) State() *State { return o.state }

func (o *DataOutput[C]) String() string { return o.Name() }

// MethodOutput 执行用户转换逻辑的输出，返回值即输入调用的结果
type MethodOutput[C any] struct {
	name         string
	fn           Handler[C]
	requiresData bool
}

// Name 返回输出名称
func (o *MethodOutput[C]) Name() string { return o.name }

// RequiresData 是否把起始状态的数据传给实现
func (o *MethodOutput[C]) RequiresData() bool { return o.requiresData }

func (o *MethodOutput[C]) String() string { return o.name }
