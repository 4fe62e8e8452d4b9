package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:           "canteen",
	Short:         "Canteen ordering client",
	Long:          "canteen browses the menu, keeps a local cart and places and tracks orders against the canteen backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		quietLogs(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "write debug logs to stderr")

	// Account
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)

	// Shopping
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(orderCmd)

	// Back office
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(metricsCmd)
}
