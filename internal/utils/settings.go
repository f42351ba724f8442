package utils

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kairos-io/hymoctl/internal/constants"
)

// Settings locate the daemon and the files the client reads and writes.
type Settings struct {
	Ksud           string        // ksud binary that implements the `hymo` subcommands
	ConfigDir      string        // e.g. /data/adb/hymo
	ConfigFile     string        // persisted daemon config, TOML
	StateFile      string        // daemon runtime state, JSON
	LogFile        string        // daemon log
	ModuleModeFile string        // client-owned override map
	ModuleDir      string        // installed modules
	BuiltinFlag    string        // presence disables the builtin mount
	Su             string        // optional privilege wrapper, e.g. "su -c"
	Timeout        time.Duration // per gateway call, 0 = none
	Attempts       uint          // gateway transport attempts
}

// DefaultSettings returns the on-device layout.
func DefaultSettings() Settings {
	return Settings{
		Ksud:           constants.KsudPath,
		ConfigDir:      constants.HymoConfigDir,
		ConfigFile:     constants.HymoConfigFile,
		StateFile:      constants.HymoStateFile,
		LogFile:        constants.HymoLogFile,
		ModuleModeFile: constants.ModuleModeFile,
		ModuleDir:      constants.ModuleDir,
		BuiltinFlag:    constants.DisableBuiltinMount,
		Timeout:        30 * time.Second,
		Attempts:       1,
	}
}

// ReadEnv parses an env file into a map.
func ReadEnv(file string) (map[string]string, error) {
	var envMap map[string]string
	var err error

	f, err := os.Open(file)
	if err != nil {
		return envMap, err
	}
	defer f.Close()

	envMap, err = godotenv.Parse(f)
	if err != nil {
		return envMap, err
	}

	return envMap, err
}

// LoadSettings applies the env file (a missing file is fine) and then the process
// environment on top of the defaults. Keys are HYMOCTL_*.
func LoadSettings(file string) (Settings, error) {
	s := DefaultSettings()
	env := map[string]string{}
	if file != "" {
		fileEnv, err := ReadEnv(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			Log.Err(err).Str("file", file).Msg("Reading settings")
			return s, err
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	// exported but empty keeps the file's value
	for _, k := range settingKeys {
		if v := os.Getenv(k); v != "" {
			env[k] = v
		}
	}
	s.apply(env)
	return s, nil
}

var settingKeys = []string{
	"HYMOCTL_KSUD", "HYMOCTL_CONFIG_DIR", "HYMOCTL_CONFIG_FILE", "HYMOCTL_STATE_FILE",
	"HYMOCTL_LOG_FILE", "HYMOCTL_MODULE_MODE_FILE", "HYMOCTL_MODULE_DIR",
	"HYMOCTL_BUILTIN_FLAG", "HYMOCTL_SU", "HYMOCTL_TIMEOUT", "HYMOCTL_ATTEMPTS",
}

func (s *Settings) apply(env map[string]string) {
	str := func(key string, dst *string) {
		if v := env[key]; v != "" {
			*dst = v
		}
	}
	str("HYMOCTL_KSUD", &s.Ksud)
	str("HYMOCTL_CONFIG_DIR", &s.ConfigDir)
	str("HYMOCTL_CONFIG_FILE", &s.ConfigFile)
	str("HYMOCTL_STATE_FILE", &s.StateFile)
	str("HYMOCTL_LOG_FILE", &s.LogFile)
	str("HYMOCTL_MODULE_MODE_FILE", &s.ModuleModeFile)
	str("HYMOCTL_MODULE_DIR", &s.ModuleDir)
	str("HYMOCTL_BUILTIN_FLAG", &s.BuiltinFlag)
	str("HYMOCTL_SU", &s.Su)

	if v := env["HYMOCTL_TIMEOUT"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			Log.Warn().Err(err).Str("value", v).Msg("Ignoring invalid HYMOCTL_TIMEOUT")
		} else {
			s.Timeout = d
		}
	}
	if v := env["HYMOCTL_ATTEMPTS"]; v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			Log.Warn().Str("value", v).Msg("Ignoring invalid HYMOCTL_ATTEMPTS")
		} else {
			s.Attempts = uint(n)
		}
	}
}
