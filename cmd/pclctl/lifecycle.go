package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/client"
	"github.com/genivi/pclient/pkg/lifecycle"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Drive an instance's lifecycle transitions",
}

var lifecycleSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Apply a lifecycle_set flag (shutdown or shutdown-cancel)",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("root")
		appID, _ := cmd.Flags().GetString("app-id")
		flagName, _ := cmd.Flags().GetString("flag")

		var flag lifecycle.SetFlag
		switch flagName {
		case "shutdown":
			flag = lifecycle.FlagShutdown
		case "shutdown-cancel":
			flag = lifecycle.FlagShutdownCancel
		default:
			return fmt.Errorf("unknown flag %q (want shutdown|shutdown-cancel)", flagName)
		}

		cl := client.New(pclconfig.Config{Root: root, AppID: appID, ShutdownMode: pcltypes.ShutdownNone, MaxKeyValSize: pcltypes.DefaultMaxKeyValSize}, nil, nil, false)
		if err := cl.Init(); err != nil {
			return fmt.Errorf("init %s: %w", appID, err)
		}
		defer cl.Deinit()

		if err := cl.LifecycleSet(flag); err != nil {
			return fmt.Errorf("lifecycle_set %s: %w", flagName, err)
		}
		fmt.Printf("%s: applied %s\n", appID, flagName)
		return nil
	},
}

func init() {
	lifecycleCmd.AddCommand(lifecycleSetCmd)

	lifecycleSetCmd.Flags().String("root", "/Data", "Filesystem root the cache/write-through/backup trees live under")
	lifecycleSetCmd.Flags().String("app-id", "", "Application id to drive")
	lifecycleSetCmd.Flags().String("flag", "shutdown", "Flag to apply: shutdown|shutdown-cancel")
	lifecycleSetCmd.MarkFlagRequired("app-id")
}
