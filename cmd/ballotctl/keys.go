package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

func init() {
	rootCmd.AddCommand(generateKeysCmd)
	rootCmd.AddCommand(listKeysCmd)
}

var generateKeysCmd = &cobra.Command{
	Use:   "generate-keys",
	Short: "Replace all voting keys with a fresh batch of 36",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			keys, err := services.NewKeyService(store).GenerateKeys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		})
	},
}

var listKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List voting keys and whether they were used",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			keys, err := services.NewKeyService(store).ListKeys(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, keys)
		})
	},
}
