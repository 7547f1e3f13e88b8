package automat

// Transition 转换规则：From 状态收到 Input 后进入 To，并依次执行 Outputs
type Transition[S, I, O comparable] struct {
	From    S
	Input   I
	To      S
	Outputs []O
}

// transitionKey 唯一标识一个转换
type transitionKey[S, I comparable] struct {
	from  S
	input I
}
