package automat

import (
	"fmt"
	"strings"
)

// unhandledNode 表示默认转换起点的节点，状态节点统一使用 s<序号>，二者不会冲突
const unhandledNode = "unhandled"

// ExportDOT 生成 Graphviz DOT 源码，current 非空时高亮当前状态。
// 默认转换画成从 unhandled 点出发的虚线。
func ExportDOT[C any](def *Definition[C], current *State) string {
	ids := nodeIDs(def)

	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", def.name)
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded, fontsize=10];\n")
	sb.WriteString("  edge [fontsize=9];\n")

	initial, _ := def.automaton.InitialState()
	for _, s := range def.states {
		attrs := []string{fmt.Sprintf("label=%q", s.name)}
		if s == initial {
			attrs = append(attrs, "peripheries=2")
		}
		if s == current {
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor=lightblue")
		}
		if s.data {
			attrs = append(attrs, "shape=box3d")
		}
		fmt.Fprintf(&sb, "  %s [%s];\n", ids[s], strings.Join(attrs, ", "))
	}

	for _, t := range def.automaton.Transitions() {
		fmt.Fprintf(&sb, "  %s -> %s [label=%q];\n", ids[t.From], ids[t.To], edgeLabel(t))
	}
	if t, ok := def.automaton.Unhandled(); ok {
		fmt.Fprintf(&sb, "  %s [shape=point];\n", unhandledNode)
		fmt.Fprintf(&sb, "  %s -> %s [style=dashed, label=%q];\n", unhandledNode, ids[t.To], edgeLabel(t))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// ExportMermaid 生成 Mermaid stateDiagram-v2 源码，状态名通过 state "名称" as s<序号> 声明
func ExportMermaid[C any](def *Definition[C], current *State) string {
	ids := nodeIDs(def)

	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	for _, s := range def.states {
		fmt.Fprintf(&sb, "    state %q as %s\n", s.name, ids[s])
	}

	if initial, ok := def.automaton.InitialState(); ok {
		fmt.Fprintf(&sb, "    [*] --> %s\n", ids[initial])
	}
	for _, t := range def.automaton.Transitions() {
		fmt.Fprintf(&sb, "    %s --> %s : %s\n", ids[t.From], ids[t.To], edgeLabel(t))
	}
	if t, ok := def.automaton.Unhandled(); ok {
		fmt.Fprintf(&sb, "    %s --> %s : %s\n", unhandledNode, ids[t.To], edgeLabel(t))
	}
	if current != nil {
		sb.WriteString("    classDef current fill:#add8e6\n")
		fmt.Fprintf(&sb, "    class %s current\n", ids[current])
	}
	return sb.String()
}

func nodeIDs[C any](def *Definition[C]) map[*State]string {
	ids := make(map[*State]string, len(def.states))
	for i, s := range def.states {
		ids[s] = fmt.Sprintf("s%d", i)
	}
	return ids
}

// edgeLabel 默认转换没有具体输入，以 * 表示
func edgeLabel(t Transition[*State, Input, Output]) string {
	input := string(t.Input)
	if t.From == nil {
		input = "*"
	}
	names := make([]string, 0, len(t.Outputs))
	for _, o := range t.Outputs {
		names = append(names, o.Name())
	}
	if len(names) == 0 {
		return input
	}
	return input + " / " + strings.Join(names, ", ")
}
