// Package cmd implements the pathwise command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathwise",
	Short: "Pathwise - multi-agent programming tutor",
	Long: `Pathwise is a retrieval-augmented, multi-agent tutoring service.

A router classifies each learner message and dispatches it to one of six
specialized agents: tutor, assessor, code reviewer, mentor, project guide or
quiz generator. Running pathwise with no arguments starts an interactive
chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
