package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-automat/pkg/automat"
)

func newGraphCmd(a *app) *cobra.Command {
	var format, current string

	cmd := &cobra.Command{
		Use:   "graph <table>",
		Short: "Render a table as a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.compile(args[0])
			if err != nil {
				return err
			}

			var highlight *automat.State
			if current != "" {
				s, ok := def.State(current)
				if !ok {
					return fmt.Errorf("unknown state %q", current)
				}
				highlight = s
			}

			switch format {
			case "dot":
				fmt.Fprint(cmd.OutOrStdout(), automat.ExportDOT(def, highlight))
			case "mermaid":
				fmt.Fprint(cmd.OutOrStdout(), automat.ExportMermaid(def, highlight))
			default:
				return fmt.Errorf("unknown format %q (want dot or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or mermaid")
	cmd.Flags().StringVar(&current, "current", "", "state to highlight")
	return cmd
}
