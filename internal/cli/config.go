package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/config"
)

var configDir string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage critic configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .critic/config.yml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(configDir, config.DirName, "config.yml")
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		statusf(cmd, "✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVar(&configDir, "dir", ".", "project directory")
}
