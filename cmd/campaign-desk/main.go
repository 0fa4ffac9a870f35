package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joestump/campaign-desk/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "campaign-desk",
		Short:   "Influencer campaign dashboard",
		Long:    "Campaign Desk: role-based dashboards for admins and influencers, behind OIDC sign-in.",
		Version: build.String(),
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
		},
	}
}
