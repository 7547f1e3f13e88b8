// Package observe 提供 automat 状态机的追踪函数：日志、Prometheus 指标以及组合多个追踪函数。
//
//	metrics, _ := observe.NewMetrics(prometheus.DefaultRegisterer)
//	m := def.New(core, automat.WithTracer(observe.Chain(
//	    observe.LogTracer("turnstile", logger.Default()),
//	    metrics.Tracer("turnstile"),
//	)))
package observe
