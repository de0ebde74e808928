package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mindmap/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mindmap configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose a model provider and server settings, and writes a .mindmap.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
