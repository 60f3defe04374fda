// Package cli implements the wechat-intercom command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smallnest/wechat-intercom/config"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "wechat-intercom",
	Short: "Bridge WeChat conversations into Intercom",
	Long: `wechat-intercom relays friend messages from a WeChat HTTP gateway into
Intercom conversations, and relays agent replies back to WeChat.

Run "wechat-intercom init" to create a config file, then "wechat-intercom serve".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./.wechat-intercom/config.json, ./config.json, ~/.wechat-intercom/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")
}

// Execute 执行根命令
func Execute() error {
	defer func() { _ = logger.Sync() }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig 加载配置并按配置初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := logger.Init(level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}
