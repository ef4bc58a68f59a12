package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"seoforge/internal/config"
)

var cfgFile string

// NewRootCmd builds the seoforge root command with the generate and watch
// subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seoforge",
		Short: "Generates a single long-form SEO/AEO article end to end",
		Long: `seoforge runs the S0-S9 article generation pipeline for one
target keyword: fetching site context, prompting the LLM for a structured
draft, repairing content defects, validating citations, attaching
internal links, generating images, checking cannibalization against a
corpus, and rendering the final HTML5 document with schema.org JSON-LD.`,
	}

	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .seoforge.yaml)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewWatchCmd())

	return rootCmd
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
	}
}
