// Package pclconfig centralizes the library's environment overrides and
// the fixed filesystem layout every subsystem builds paths against. As in
// the teacher's own Config structs (manager.Config, worker.Config), this
// is a plain struct populated by the caller or by LoadFromEnv — no
// viper/env framework.
package pclconfig

import (
	"os"
	"strconv"

	"github.com/genivi/pclient/pkg/pcltypes"
)

const (
	envBusAddress = "PERS_CLIENT_DBUS_ADDRESS"
	envMaxKeyVal = "PERS_MAX_KEY_VAL_DATA_SIZE"
	envPluginCfg = "PERS_CLIENT_LIB_CUSTOM_LOAD"
)

const (
	// DefaultPluginConfigPath is used when PERS_CLIENT_LIB_CUSTOM_LOAD is unset.
	DefaultPluginConfigPath = "/etc/pclCustomLibConfigFile.cfg"
)

// Config holds process-wide settings sourced from the environment plus the
// caller-supplied application id and shutdown mode.
type Config struct {
	AppID            string
	ShutdownMode     pcltypes.ShutdownMode
	BusAddress       string
	MaxKeyValSize    uint32
	PluginConfigPath string

	// Root is the filesystem root the cache/write-through/backup trees are
	// rooted under. Production deployments use "/Data"; tests use a
	// t.TempDir.
	Root string
}

// LoadFromEnv builds a Config for appID, applying the three documented
// environment overrides on top of the library's defaults.
func LoadFromEnv(appID string, mode pcltypes.ShutdownMode) Config {
	cfg := Config{
		AppID:            appID,
		ShutdownMode:     mode,
		BusAddress:       "unix:path=/var/run/dbus/system_bus_socket",
		MaxKeyValSize:    pcltypes.DefaultMaxKeyValSize,
		PluginConfigPath: DefaultPluginConfigPath,
		Root:             "/Data",
	}
	if v := os.Getenv(envBusAddress); v != "" {
		cfg.BusAddress = v
	}
	if v := os.Getenv(envMaxKeyVal); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxKeyValSize = uint32(n)
		}
	}
	if v := os.Getenv(envPluginCfg); v != "" {
		cfg.PluginConfigPath = v
	}
	return cfg
}

// Paths resolves the fixed directory templates (cache/write-through/backup
// trees, RCT and blacklist files), rooted under cfg.Root, for application
// cfg.AppID.
type Paths struct {
	root string
	appID string
}

// NewPaths builds a Paths helper for cfg.
func NewPaths(cfg Config) Paths {
	return Paths{root: cfg.Root, appID: cfg.AppID}
}

func (p Paths) CacheTree() string        { return p.root + "/mnt-c/" + p.appID }
func (p Paths) WriteThroughTree() string { return p.root + "/mnt-wt/" + p.appID }
func (p Paths) BackupTree() string       { return p.root + "/mnt-backup/" + p.appID }

func (p Paths) LocalCacheDB() string        { return p.CacheTree() + "/cached.itz" }
func (p Paths) LocalWriteThroughDB() string { return p.WriteThroughTree() + "/wt.itz" }

func (p Paths) SharedGroupCacheDB(groupHex string) string {
	return p.CacheTree() + "/shared_group_" + groupHex
}
func (p Paths) SharedPublicCacheDB() string { return p.CacheTree() + "/shared_public" }

func (p Paths) RCTPath() string { return p.WriteThroughTree() + "/resource-table-cfg.itz" }

func (p Paths) BlacklistPath() string { return p.CacheTree() + "/BackupFileList.info" }
