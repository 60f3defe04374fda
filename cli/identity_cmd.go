package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallnest/wechat-intercom/identity"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Encode or decode Intercom user_ids for WeChat contacts",
}

var identityEncodeCmd = &cobra.Command{
	Use:   "encode <client> <contact-id>",
	Short: "Print the Intercom user_id for a WeChat contact",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), identity.Encode(identity.ClientOrDefault(args[0]), args[1]))
	},
}

var identityDecodeCmd = &cobra.Command{
	Use:   "decode <user-id>",
	Short: "Print the client and contact encoded in an Intercom user_id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, contactID, err := identity.Decode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "client:  %s\ncontact: %s\n", client, contactID)
		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityEncodeCmd)
	identityCmd.AddCommand(identityDecodeCmd)
	rootCmd.AddCommand(identityCmd)
}
