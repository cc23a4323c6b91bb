package main

import (
	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

var candidateDescriptions []string

func init() {
	candidatesSetCmd.Flags().StringSliceVarP(&candidateDescriptions, "description", "d", nil, "description for each candidate, in the same order as the names")
	candidatesCmd.AddCommand(candidatesSetCmd)
	candidatesCmd.AddCommand(candidatesListCmd)
	rootCmd.AddCommand(candidatesCmd)
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Manage the candidate list",
}

var candidatesSetCmd = &cobra.Command{
	Use:   "set NAME [NAME...]",
	Short: "Replace the candidates; vote tallies restart at zero",
	Args:  cobra.RangeArgs(1, domain.MaxCandidates),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := make([]domain.CandidateDescriptor, len(args))
		for i, name := range args {
			input[i].Name = name
			if i < len(candidateDescriptions) {
				input[i].Description = candidateDescriptions[i]
			}
		}

		return withStore(cmd.Context(), func(store ports.Store) error {
			candidates, err := services.NewCandidateService(store).Configure(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, candidates)
		})
	},
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates in ballot order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			candidates, err := services.NewCandidateService(store).ListCandidates(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, candidates)
		})
	},
}
