package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configShowReveal bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long:  `Print the configuration after merging defaults, the config file and WECHAT_INTERCOM_* environment variables. Secrets are masked unless --reveal is set.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		view := cfg.Masked()
		if configShowReveal {
			view = *cfg
		}

		data, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowReveal, "reveal", false, "Print secrets in clear text")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
