package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-automat/pkg/automat"
	"github.com/junbin-yang/go-automat/pkg/observe"
)

func newRunCmd(a *app) *cobra.Command {
	var inputs []string
	var metrics bool

	cmd := &cobra.Command{
		Use:   "run <table>",
		Short: "Drive a table with a sequence of inputs",
		Long: `Creates one machine from the table and sends each input in order, printing the
state reached after every step. Handlers are placeholders that return their own name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.compile(args[0])
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m, err := observe.NewMetrics(reg)
			if err != nil {
				return err
			}
			machine := def.New(struct{}{},
				automat.WithLogger(a.log),
				automat.WithTracer(observe.Chain(
					observe.LogTracer(def.Name(), a.log),
					m.Tracer(def.Name()),
				)),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, machine.State().Name())
			for _, in := range inputs {
				result, err := machine.Call(automat.Input(in))
				if err != nil {
					return fmt.Errorf("input %s: %w", in, err)
				}
				if result != nil {
					fmt.Fprintf(out, "%s -> %s (%v)\n", in, machine.State().Name(), result)
				} else {
					fmt.Fprintf(out, "%s -> %s\n", in, machine.State().Name())
				}
			}

			if metrics {
				return printMetrics(out, reg)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&inputs, "inputs", "i", nil, "comma separated inputs to send")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print counters collected during the run")
	return cmd
}

// printMetrics 按 "名称{标签} 值" 输出计数器
func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, l := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
