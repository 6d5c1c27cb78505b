package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/client"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Force the access lock an application's instance is holding",
}

var accessBlockCmd = &cobra.Command{
	Use:   "block",
	Short: "Acquire the access lock and wait for any in-flight write-back",
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, _ := cmd.Flags().GetUint32("request-id")
		return withClient(cmd, func(cl *client.Client) error {
			if err := cl.BlockAndWriteBack(requestID); err != nil {
				return fmt.Errorf("block-and-write-back: %w", err)
			}
			fmt.Println("access locked")
			return nil
		})
	},
}

var accessUnblockCmd = &cobra.Command{
	Use:   "unblock",
	Short: "Release the access lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(cl *client.Client) error {
			cl.UnblockAccess()
			fmt.Println("access unlocked")
			return nil
		})
	},
}

func withClient(cmd *cobra.Command, fn func(*client.Client) error) error {
	root, _ := cmd.Flags().GetString("root")
	appID, _ := cmd.Flags().GetString("app-id")

	cl := client.New(pclconfig.Config{Root: root, AppID: appID, ShutdownMode: pcltypes.ShutdownNone, MaxKeyValSize: pcltypes.DefaultMaxKeyValSize}, nil, nil, false)
	if err := cl.Init(); err != nil {
		return fmt.Errorf("init %s: %w", appID, err)
	}
	defer cl.Deinit()
	return fn(cl)
}

func init() {
	accessCmd.AddCommand(accessBlockCmd)
	accessCmd.AddCommand(accessUnblockCmd)

	for _, c := range []*cobra.Command{accessBlockCmd, accessUnblockCmd} {
		c.Flags().String("root", "/Data", "Filesystem root the cache/write-through/backup trees live under")
		c.Flags().String("app-id", "", "Application id to drive")
		c.MarkFlagRequired("app-id")
	}
	accessBlockCmd.Flags().Uint32("request-id", 0, "Admin-service request id to acknowledge on completion")
}
