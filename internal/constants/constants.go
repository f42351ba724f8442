package constants

import "errors"

// DefaultPartitionIgnores are the module subdirectories that are never proposed as extra
// partitions, either because the daemon already handles them or because they are not partitions.
func DefaultPartitionIgnores() []string {
	return []string{
		"META-INF", "common", "system", "vendor", "product", "system_ext",
		"odm", "oem", ".git", ".github", "lost+found",
	}
}

var (
	ErrCommandFailed = errors.New("command failed")
	ErrNoOutput      = errors.New("command returned no output")
	ErrInvalidMode   = errors.New("invalid module mode")
)

const (
	KsudPath              = "/data/adb/ksud"
	HymoConfigDir         = "/data/adb/hymo"
	HymoConfigFile        = "/data/adb/hymo/config.toml"
	HymoStateFile         = "/data/adb/hymo/run/daemon_state.json"
	HymoLogFile           = "/data/adb/hymo/daemon.log"
	ModuleModeFile        = "/data/adb/hymo/module_mode.conf"
	ModuleDir             = "/data/adb/modules"
	DisableBuiltinMount   = "/data/adb/ksu/.disable_builtin_mount"
	DefaultSettingsFile   = "/etc/hymoctl.env"
	DefaultMountSource    = "KSU"
	Unknown               = "Unknown"
	ConfigHeader          = "# Hymo Configuration"
	ModuleModeHeader      = "# Module Modes"
	HeredocDelimiterStart = "HYMO_EOF"
)

const (
	OpVersion      = "hymo-version"
	OpStatus       = "hymo-status"
	OpLoadConfig   = "load-config"
	OpListModules  = "list-modules"
	OpActiveRules  = "active-rules"
	OpSystemInfo   = "system-info"
	OpStorageInfo  = "storage-info"
	OpBuiltinMount = "builtin-mount"
)
