package cli

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/smallnest/wechat-intercom/config"
)

var (
	initAccessToken   string
	initWeChatURL     string
	initBotUserID     string
	initWebhookSecret string
	initImageToken    string
	initOutput        string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long: `Create or update the wechat-intercom config file.

Run without flags for interactive mode, or pass --access-token and
--wechat-url for non-interactive setup.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAccessToken, "access-token", "", "Intercom access token")
	initCmd.Flags().StringVar(&initWeChatURL, "wechat-url", "", "WeChat gateway base URL, e.g. http://127.0.0.1:3000/openwx/")
	initCmd.Flags().StringVar(&initBotUserID, "bot-user-id", "", "Intercom user_id of the admin bot")
	initCmd.Flags().StringVar(&initWebhookSecret, "webhook-secret", "", "Intercom webhook hub secret")
	initCmd.Flags().StringVar(&initImageToken, "image-token", "", "Image host API token")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "", "Where to write the config (default: ~/.wechat-intercom/config.json)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("access-token") || cmd.Flags().Changed("wechat-url") {
		applyInitFlags(cmd, cfg)
	} else if err := interactiveSetup(cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	path := initOutput
	if path == "" {
		path = cfgFile
	}
	if path == "" {
		if path, err = config.GetDefaultConfigPath(); err != nil {
			return err
		}
	}
	path = config.ExpandUserPath(path)

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Config saved to %s\n\n", path)
	printSummary(cmd, cfg)
	return nil
}

func applyInitFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("access-token") {
		cfg.Intercom.AccessToken = strings.TrimSpace(initAccessToken)
	}
	if flags.Changed("wechat-url") {
		cfg.WeChat.BaseURL = strings.TrimSpace(initWeChatURL)
	}
	if flags.Changed("bot-user-id") {
		cfg.Intercom.BotUserID = strings.TrimSpace(initBotUserID)
	}
	if flags.Changed("webhook-secret") {
		cfg.Intercom.WebhookSecret = initWebhookSecret
	}
	if flags.Changed("image-token") {
		cfg.ImageHost.Token = initImageToken
	}
}

func interactiveSetup(cfg *config.Config) error {
	var err error

	if cfg.Intercom.AccessToken, err = promptString("Intercom access token", cfg.Intercom.AccessToken, true, true); err != nil {
		return err
	}
	if cfg.WeChat.BaseURL, err = promptString("WeChat gateway URL", cfg.WeChat.BaseURL, true, false); err != nil {
		return err
	}
	if cfg.Intercom.BotUserID, err = promptString("Admin bot user_id (optional)", cfg.Intercom.BotUserID, false, false); err != nil {
		return err
	}
	if cfg.Intercom.WebhookSecret, err = promptString("Webhook secret (optional)", cfg.Intercom.WebhookSecret, false, true); err != nil {
		return err
	}
	if cfg.ImageHost.Token, err = promptString("Image host token (optional)", cfg.ImageHost.Token, false, true); err != nil {
		return err
	}
	return nil
}

func promptString(label, defaultValue string, required, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
		Validate: func(input string) error {
			if required && strings.TrimSpace(input) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", label, err)
	}
	return strings.TrimSpace(value), nil
}

func printSummary(cmd *cobra.Command, cfg *config.Config) {
	masked := cfg.Masked()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Intercom token:  %s\n", masked.Intercom.AccessToken)
	fmt.Fprintf(out, "  WeChat gateway:  %s\n", cfg.WeChat.BaseURL)
	if cfg.Intercom.BotUserID != "" {
		fmt.Fprintf(out, "  Admin bot:       %s\n", cfg.Intercom.BotUserID)
	}
	fmt.Fprintf(out, "  Listen:          http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  $ wechat-intercom serve")
	fmt.Fprintf(out, "  $ curl http://localhost:%d/health\n", cfg.Server.Port)
}
