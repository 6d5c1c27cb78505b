package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/client"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Open an application's instance and print its live state",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("root")
		appID, _ := cmd.Flags().GetString("app-id")

		cfg := pclconfig.Config{
			Root:          root,
			AppID:         appID,
			ShutdownMode:  pcltypes.ShutdownNone,
			MaxKeyValSize: pcltypes.DefaultMaxKeyValSize,
		}
		cl := client.New(cfg, nil, nil, false)
		if err := cl.Init(); err != nil {
			return fmt.Errorf("init %s: %w", appID, err)
		}
		defer cl.Deinit()

		fileHandles, keyHandles, openPathHandles := cl.Stats()
		fmt.Printf("Application: %s\n", appID)
		fmt.Printf("  File handles open:     %d\n", fileHandles)
		fmt.Printf("  Key handles open:      %d\n", keyHandles)
		fmt.Printf("  Open-path handles:     %d\n", openPathHandles)
		fmt.Printf("  Access locked:         %t\n", cl.AccessLocked())
		fmt.Printf("  Init reference count:  %d\n", cl.InitRefCount())
		return nil
	},
}

func init() {
	statsCmd.Flags().String("root", "/Data", "Filesystem root the cache/write-through/backup trees live under")
	statsCmd.Flags().String("app-id", "", "Application id to inspect")
	statsCmd.MarkFlagRequired("app-id")
}
