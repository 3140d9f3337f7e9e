package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "Look up a medical term in the training data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, ok := newAnalyzer(cmd).Corpus().LookupTerm(args[0])
		if !ok {
			return fmt.Errorf("term %q not found", args[0])
		}
		return writeJSON(cmd, res)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print training data statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeJSON(cmd, newAnalyzer(cmd).Corpus().Stats())
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd, statsCmd)
}
