package plugin

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/genivi/pclient/pkg/plog"
)

// SlotConfig is one row of the plugin config file: slot-name,
// library-path, load-policy, init-kind.
type SlotConfig struct {
	Slot        Slot
	LibraryName string
	LoadPolicy  LoadPolicy
	InitKind    InitKind
}

// LoadConfig parses the plugin config file at path: one row per slot, four
// whitespace-separated tokens `slot-name library-path {init|od} {sync|async}`.
// Missing slots are simply absent from the result; the gateway treats an
// absent slot as invalid and returns no-plugin-function for any call to it.
func LoadConfig(path string) ([]SlotConfig, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open plugin config %s: %w", path, err)
	}
	defer f.Close()

	var rows []SlotConfig
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			plog.WithComponent("plugin").Warn().
				Str("path", path).Int("line", lineNo).Msg("malformed plugin config row, skipping")
			continue
		}
		slot := Slot(fields[0])
		if !isValidSlot(slot) {
			plog.WithComponent("plugin").Warn().
				Str("path", path).Int("line", lineNo).Str("slot", fields[0]).Msg("unknown plugin slot, skipping")
			continue
		}

		var loadPolicy LoadPolicy
		switch fields[2] {
		case "init":
			loadPolicy = LoadAtInit
		case "od":
			loadPolicy = LoadOnDemand
		default:
			plog.WithComponent("plugin").Warn().Str("path", path).Int("line", lineNo).Msg("unknown load policy, skipping")
			continue
		}

		var initKind InitKind
		switch fields[3] {
		case "sync":
			initKind = InitSync
		case "async":
			initKind = InitAsync
		default:
			plog.WithComponent("plugin").Warn().Str("path", path).Int("line", lineNo).Msg("unknown init kind, skipping")
			continue
		}

		rows = append(rows, SlotConfig{Slot: slot, LibraryName: fields[1], LoadPolicy: loadPolicy, InitKind: initKind})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan plugin config %s: %w", path, err)
	}
	return rows, nil
}
