package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/pcltypes"
	"github.com/genivi/pclient/pkg/rct"
)

var rctCmd = &cobra.Command{
	Use:   "rct",
	Short: "Inspect and provision Resource Configuration Tables",
}

var rctDumpCmd = &cobra.Command{
	Use:   "dump PATH",
	Short: "Print every entry in an RCT file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := rct.DumpTable(args[0])
		if err != nil {
			return fmt.Errorf("dump %s: %w", args[0], err)
		}
		if len(entries) == 0 {
			fmt.Println("No entries")
			return nil
		}
		fmt.Printf("%-30s %-6s %-8s %-12s %-10s %s\n", "RESOURCE ID", "TYPE", "STORAGE", "PERMISSION", "POLICY", "MAX SIZE")
		for id, cfg := range entries {
			fmt.Printf("%-30s %-6s %-8s %-12s %-10s %d\n",
				id, typeName(cfg.Type), storageName(cfg.Storage), permissionName(cfg.Permission), policyName(cfg.Policy), cfg.MaxSize)
		}
		return nil
	},
}

var rctSetCmd = &cobra.Command{
	Use:   "set PATH RESOURCE_ID",
	Short: "Add or replace one RCT entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, resourceID := args[0], args[1]
		typ, _ := cmd.Flags().GetString("type")
		storage, _ := cmd.Flags().GetString("storage")
		permission, _ := cmd.Flags().GetString("permission")
		policy, _ := cmd.Flags().GetString("policy")
		maxSize, _ := cmd.Flags().GetUint32("max-size")

		cfg := pcltypes.ResourceConfig{MaxSize: maxSize}
		var err error
		if cfg.Type, err = parseType(typ); err != nil {
			return err
		}
		if cfg.Storage, err = parseStorage(storage); err != nil {
			return err
		}
		if cfg.Permission, err = parsePermission(permission); err != nil {
			return err
		}
		if cfg.Policy, err = parsePolicy(policy); err != nil {
			return err
		}

		entries, err := rct.DumpTable(path)
		if err != nil {
			entries = make(map[string]pcltypes.ResourceConfig)
		}
		entries[resourceID] = cfg
		if err := rct.WriteTable(path, entries); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("%s: wrote %s\n", path, resourceID)
		return nil
	},
}

func init() {
	rctCmd.AddCommand(rctDumpCmd)
	rctCmd.AddCommand(rctSetCmd)

	rctSetCmd.Flags().String("type", "key", "Resource type: key|file")
	rctSetCmd.Flags().String("storage", "local", "Storage class: local|shared|custom")
	rctSetCmd.Flags().String("permission", "readwrite", "Permission: readwrite|readonly|writeonly")
	rctSetCmd.Flags().String("policy", "writecached", "Policy: writecached|writethrough")
	rctSetCmd.Flags().Uint32("max-size", pcltypes.DefaultMaxKeyValSize, "Per-resource max size in bytes")
}

func typeName(t pcltypes.ResourceType) string {
	if t == pcltypes.TypeFile {
		return "file"
	}
	return "key"
}

func storageName(s pcltypes.Storage) string {
	switch s {
	case pcltypes.StorageShared:
		return "shared"
	case pcltypes.StorageCustom:
		return "custom"
	default:
		return "local"
	}
}

func permissionName(p pcltypes.Permission) string {
	switch p {
	case pcltypes.PermissionReadOnly:
		return "readonly"
	case pcltypes.PermissionWriteOnly:
		return "writeonly"
	default:
		return "readwrite"
	}
}

func policyName(p pcltypes.Policy) string {
	if p == pcltypes.PolicyWriteThrough {
		return "writethrough"
	}
	return "writecached"
}

func parseType(s string) (pcltypes.ResourceType, error) {
	switch s {
	case "key":
		return pcltypes.TypeKey, nil
	case "file":
		return pcltypes.TypeFile, nil
	default:
		return 0, fmt.Errorf("unknown type %q (want key|file)", s)
	}
}

func parseStorage(s string) (pcltypes.Storage, error) {
	switch s {
	case "local":
		return pcltypes.StorageLocal, nil
	case "shared":
		return pcltypes.StorageShared, nil
	case "custom":
		return pcltypes.StorageCustom, nil
	default:
		return 0, fmt.Errorf("unknown storage %q (want local|shared|custom)", s)
	}
}

func parsePermission(s string) (pcltypes.Permission, error) {
	switch s {
	case "readwrite":
		return pcltypes.PermissionReadWrite, nil
	case "readonly":
		return pcltypes.PermissionReadOnly, nil
	case "writeonly":
		return pcltypes.PermissionWriteOnly, nil
	default:
		return 0, fmt.Errorf("unknown permission %q (want readwrite|readonly|writeonly)", s)
	}
}

func parsePolicy(s string) (pcltypes.Policy, error) {
	switch s {
	case "writecached":
		return pcltypes.PolicyWriteCached, nil
	case "writethrough":
		return pcltypes.PolicyWriteThrough, nil
	default:
		return 0, fmt.Errorf("unknown policy %q (want writecached|writethrough)", s)
	}
}
