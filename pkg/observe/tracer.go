package observe

import (
	"github.com/junbin-yang/go-automat/pkg/automat"
	"github.com/junbin-yang/go-automat/pkg/logger"
)

// LogTracer 以 Debug 级别记录每次转换及执行的输出
func LogTracer(machine string, l logger.Logger) automat.StateTracer {
	if l == nil {
		l = logger.Default()
	}
	return func(from *automat.State, input automat.Input, to *automat.State) automat.OutputTracer[automat.Output] {
		l.Debug("state transition",
			logger.String("machine", machine),
			logger.String("from", from.String()),
			logger.String("input", string(input)),
			logger.String("to", to.String()),
		)
		return func(out automat.Output) {
			l.Debug("output",
				logger.String("machine", machine),
				logger.String("state", to.String()),
				logger.String("output", out.Name()),
			)
		}
	}
}

// Chain 依次调用多个追踪函数，nil 被忽略
func Chain(tracers ...automat.StateTracer) automat.StateTracer {
	var active []automat.StateTracer
	for _, t := range tracers {
		if t != nil {
			active = append(active, t)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}

	return func(from *automat.State, input automat.Input, to *automat.State) automat.OutputTracer[automat.Output] {
		var outs []automat.OutputTracer[automat.Output]
		for _, t := range active {
			if ot := t(from, input, to); ot != nil {
				outs = append(outs, ot)
			}
		}
		if len(outs) == 0 {
			return nil
		}
		return func(out automat.Output) {
			for _, ot := range outs {
				ot(out)
			}
		}
	}
}
