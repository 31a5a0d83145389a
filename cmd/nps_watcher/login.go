package main

import (
	"github.com/spf13/cobra"
)

var loginCommand = &cobra.Command{
	Use:   "login",
	Short: "Force a fresh Google sign-in, then run one cycle",
	Long: `Discards the persisted session artifact so the cycle starts with a fresh
headless sign-in (approve the push notification on your phone), then proceeds
as a normal run.`,
	RunE: loginCmd,
}

func init() {
	rootCmd.AddCommand(loginCommand)
}

func loginCmd(*cobra.Command, []string) error {
	return runCycle(true)
}
