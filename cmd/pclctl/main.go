// Command pclctl is a thin administrative CLI over the persistence client
// library, mirroring the teacher's cmd/warren command-tree shape: a root
// command with per-subsystem command groups, each RunE building what it
// needs and tearing it down before returning.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/plog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pclctl",
	Short: "Administrative CLI for an embedded persistence client instance",
	Long: `pclctl inspects and administers a persistence client library instance's
on-disk state: its RCT tables, live handle counts, and lifecycle controls.

It is a provisioning/diagnostic tool, not a client of the embedding
application's own process — most subcommands open the on-disk state
directly, the same files the embedding process itself reads.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rctCmd)
	rootCmd.AddCommand(lifecycleCmd)
	rootCmd.AddCommand(accessCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	plog.Init(plog.Config{Level: plog.Level(level), JSONOutput: jsonOut})
}
