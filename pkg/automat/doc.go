// Package automat 实现以转换表驱动的有限状态机。
//
// 核心由三部分组成：
//   - Automaton：不可变的转换表，(状态, 输入) -> (状态, 有序输出)，可选默认转换
//   - Transitioner：绑定到 Automaton 的当前状态游标
//   - Machine：单实例派发引擎，执行输出、管理各状态的数据，并保证重入调用的顺序
//
// # 构建
//
// 机器定义通过 Builder 显式注册：
//
//	b := automat.NewBuilder[*Lock]("turnstile")
//	locked := b.State("Locked")
//	unlocked := b.State("Unlocked")
//	armTurned := b.Input("arm_turned")
//	farePaid := b.Input("fare_paid")
//
//	_ = b.Upon(locked, farePaid).To(unlocked).Do(
//	    func(m *automat.Machine[*Lock], lock *Lock, _ any, _ ...any) (any, error) {
//	        lock.Disengage()
//	        return nil, nil
//	    })
//	_ = b.Upon(locked, armTurned).Loop().Returns(nil)
//	_ = b.Upon(unlocked, armTurned).To(locked).Returns(nil)
//
//	def := b.MustBuild()
//	m := def.New(&Lock{})
//	_ = m.Send(farePaid)
//
// # 状态数据
//
// DataState 声明的状态在进入时由工厂函数构造数据，数据保存在实例的状态簇中。
// 自环转换保留原数据；Persist(false) 的状态被离开后数据即被丢弃，
// 再次进入时重新构造。
//
// # 重入
//
// 输出实现中对同一实例的调用不会立即执行：无返回值的输入被放入实例的队列，
// 在当前派发完成后按排队顺序执行，每个排队调用引发的调用在下一个同级调用之前执行完毕，
// 最外层 Call 在队列排空后才返回；
// 有返回值的输入无法在此时得到结果，返回 ReentrancyError。
//
// # 错误
//
// 新状态在执行输出之前即已提交。输出返回错误时机器停留在新状态，不做回滚，
// 由调用方决定如何恢复。
package automat
