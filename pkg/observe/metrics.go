package observe

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/junbin-yang/go-automat/pkg/automat"
)

// Metrics 状态机的 Prometheus 计数器，多个机器共享，通过 machine 标签区分
type Metrics struct {
	transitions *prometheus.CounterVec
	outputs     *prometheus.CounterVec
}

// NewMetrics 创建并注册计数器，reg 为空时使用 prometheus.DefaultRegisterer
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automat_transitions_total",
				Help: "Total number of state transitions",
			},
			[]string{"machine", "from", "input", "to"},
		),
		outputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automat_outputs_total",
				Help: "Total number of outputs executed",
			},
			[]string{"machine", "output"},
		),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.outputs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Tracer 返回记录 machine 指标的追踪函数
func (m *Metrics) Tracer(machine string) automat.StateTracer {
	return func(from *automat.State, input automat.Input, to *automat.State) automat.OutputTracer[automat.Output] {
		m.transitions.WithLabelValues(machine, from.Name(), string(input), to.Name()).Inc()
		return func(out automat.Output) {
			m.outputs.WithLabelValues(machine, out.Name()).Inc()
		}
	}
}

// Handler 以 Prometheus 文本格式输出 g 中的指标
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
