package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/wechat-intercom/bridge"
	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/identity"
)

var clientsTimeout time.Duration

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Control WeChat gateway clients",
	Long:  `Start, stop and list the WeChat accounts hosted by the gateway. These are the same operations the admin bot accepts in chat.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List gateway clients and their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, gw channels.WeChatGateway) error {
			statuses, err := gw.CheckClient(ctx)
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), bridge.FormatClientStatuses(statuses))
			return nil
		})
	},
}

var clientsStartCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a gateway client (default: \"default\")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := clientArg(args)
		return withGateway(cmd, func(ctx context.Context, gw channels.WeChatGateway) error {
			result, err := gw.StartClient(ctx, name)
			if err != nil {
				return err
			}
			if !result.OK() {
				return fmt.Errorf("start %s: gateway code %d: %s", name, result.Code, result.Status)
			}
			if result.Status == channels.StatusClientAlreadyExists {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already running (it may be waiting for a QR code scan)\n", name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s starting, watch the admin bot for the login QR code\n", name)
			return nil
		})
	},
}

var clientsStopCmd = &cobra.Command{
	Use:   "stop [name]",
	Short: "Stop a gateway client (default: \"default\")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := clientArg(args)
		return withGateway(cmd, func(ctx context.Context, gw channels.WeChatGateway) error {
			result, err := gw.StopClient(ctx, name)
			if err != nil {
				return err
			}
			if !result.OK() {
				return fmt.Errorf("stop %s: gateway code %d: %s (it may not be running)", name, result.Code, result.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s stopped\n", name)
			return nil
		})
	},
}

func init() {
	clientsCmd.PersistentFlags().DurationVar(&clientsTimeout, "timeout", 30*time.Second, "Request timeout")
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsStartCmd)
	clientsCmd.AddCommand(clientsStopCmd)
	rootCmd.AddCommand(clientsCmd)
}

func clientArg(args []string) string {
	if len(args) == 0 {
		return identity.DefaultClient
	}
	return identity.ClientOrDefault(args[0])
}

// withGateway 按配置创建网关客户端，只要求 wechat.base_url
func withGateway(cmd *cobra.Command, fn func(context.Context, channels.WeChatGateway) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := buildWeChatGateway(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), clientsTimeout)
	defer cancel()
	return fn(ctx, gw)
}
