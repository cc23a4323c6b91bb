package main

import (
	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

func init() {
	sessionCmd.AddCommand(sessionStartCmd, sessionStopCmd, sessionStatusCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open, close or inspect the voting session",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new session, closing any active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			session, err := services.NewSessionService(store).Start(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, session)
		})
	},
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			session, err := services.NewSessionService(store).Stop(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, session)
		})
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session is active",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			status, err := services.NewSessionService(store).Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		})
	},
}
