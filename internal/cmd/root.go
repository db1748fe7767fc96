// Package cmd implements the stepform command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/petrijr/stepform/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stepform",
	Short: "Multi-step form wizard server",
	Long: `stepform serves multi-step form wizards. Visitors fill one field group
per step, can resume an unfinished submission from a tokenised link, and are
sent back to the parent record once the last step is saved.`,
	SilenceUsage: true,
}

var (
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./stepform.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

func initConfig() {
	cfg, cfgErr = config.Load(cfgFile)
}

// loadedConfig returns the configuration read by initConfig.
func loadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	return cfg, nil
}
