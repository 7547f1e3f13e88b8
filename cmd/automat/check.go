package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <table>",
		Short: "Check that a table compiles",
		Long:  `Loads the table, resolves every state, input and transition and reports the first error.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.compile(args[0])
			if err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}
			auto := def.Automaton()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d states, %d inputs, %d transitions\n",
				def.Name(), len(def.States()), len(def.Inputs()), len(auto.Transitions()))
			return nil
		},
	}
}
