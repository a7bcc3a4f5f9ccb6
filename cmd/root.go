// Package cmd implements the legal-harvester command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "legal-harvester",
		Short:         "Harvests Spanish and European legal sources",
		Long:          `Harvests legislation, case law and administrative doctrine from BOE, CENDOJ, DGT, TEAC, EUR-Lex, CURIA, HUDOC and EDPB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yml or ./config/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newHarvestCommand(),
		newSourcesCommand(),
		newServeCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "legal-harvester version %s\n", Version)
			},
		},
	)
}
