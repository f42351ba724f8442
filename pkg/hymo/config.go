package hymo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig asks the daemon for its view of the configuration. Any failure yields
// schema.DefaultConfig().
func (c *Client) LoadConfig(ctx context.Context) schema.OverlayConfig {
	cfg, _ := c.LoadConfigChecked(ctx)
	return cfg
}

// LoadConfigChecked is LoadConfig that also reports whether the daemon's document was read.
// A config that came back false is only defaults and must not be saved over the real one.
func (c *Client) LoadConfigChecked(ctx context.Context) (schema.OverlayConfig, bool) {
	res, ok := c.run(ctx, "Loading hymo config", c.hymo("show-config"))
	if !ok {
		return schema.DefaultConfig(), false
	}
	cfg, err := DecodeConfig([]byte(res.Output()))
	if err != nil {
		internalUtils.Log.Err(err).Msg("Parsing hymo config")
		return schema.DefaultConfig(), false
	}
	return cfg, true
}

// DecodeConfig decodes the daemon's show-config JSON field by field. Missing or malformed
// fields keep their default. Only a document that is not a JSON object is an error.
func DecodeConfig(data []byte) (schema.OverlayConfig, error) {
	cfg := schema.DefaultConfig()
	o, err := decodeObject(data)
	if err != nil {
		return cfg, err
	}

	field(o, "moduledir", &cfg.ModuleDir)
	field(o, "tempdir", &cfg.TempDir)
	field(o, "mountsource", &cfg.MountSource)
	field(o, "verbose", &cfg.Verbose)
	field(o, "force_ext4", &cfg.ForceExt4)
	field(o, "prefer_erofs", &cfg.PreferErofs)
	field(o, "disable_umount", &cfg.DisableUmount)
	field(o, "enable_nuke", &cfg.EnableNuke)
	field(o, "ignore_protocol_mismatch", &cfg.IgnoreProtocolMismatch)
	field(o, "enable_kernel_debug", &cfg.EnableKernelDebug)
	field(o, "enable_stealth", &cfg.EnableStealth)
	field(o, "avc_spoof", &cfg.AvcSpoof)
	field(o, "hymofs_available", &cfg.Available)

	var code int
	if field(o, "hymofs_status", &code) {
		cfg.Status = schema.StatusFromCode(code)
	}
	cfg.Partitions = schema.NormalizePartitions(stringList(o, "partitions"))
	return cfg, nil
}

// SaveConfig persists cfg as the daemon's config document. Returns whether the gateway
// confirmed the write, there is no retry.
func (c *Client) SaveConfig(ctx context.Context, cfg schema.OverlayConfig) bool {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	ok := c.writeFile(ctx, c.settings.ConfigFile, RenderDocument(cfg))
	if ok {
		internalUtils.Log.Info().Str("file", c.settings.ConfigFile).Msg("Saved hymo config")
	}
	return ok
}

// UpdateConfig applies mutate to a copy of cfg and saves it. The returned config is the new
// one only when the save was confirmed, otherwise cfg is returned untouched.
func (c *Client) UpdateConfig(ctx context.Context, cfg schema.OverlayConfig, mutate func(*schema.OverlayConfig)) (schema.OverlayConfig, bool) {
	next := cfg
	next.Partitions = append([]string{}, cfg.Partitions...)
	mutate(&next)
	next.Partitions = schema.NormalizePartitions(next.Partitions)
	if !c.SaveConfig(ctx, next) {
		return cfg, false
	}
	return next, true
}

// RenderDocument serialises cfg in the daemon's config format. tempdir and partitions are
// left out when empty.
func RenderDocument(cfg schema.OverlayConfig) string {
	var b strings.Builder
	str := func(k, v string) { fmt.Fprintf(&b, "%s = %s\n", k, quote(v)) }
	boolean := func(k string, v bool) { fmt.Fprintf(&b, "%s = %t\n", k, v) }

	b.WriteString(constants.ConfigHeader + "\n")
	str("moduledir", cfg.ModuleDir)
	if cfg.TempDir != "" {
		str("tempdir", cfg.TempDir)
	}
	str("mountsource", cfg.MountSource)
	boolean("verbose", cfg.Verbose)
	boolean("force_ext4", cfg.ForceExt4)
	boolean("prefer_erofs", cfg.PreferErofs)
	boolean("disable_umount", cfg.DisableUmount)
	boolean("enable_nuke", cfg.EnableNuke)
	boolean("ignore_protocol_mismatch", cfg.IgnoreProtocolMismatch)
	boolean("enable_kernel_debug", cfg.EnableKernelDebug)
	boolean("enable_stealth", cfg.EnableStealth)
	boolean("avc_spoof", cfg.AvcSpoof)
	if parts := schema.NormalizePartitions(cfg.Partitions); len(parts) > 0 {
		str("partitions", strings.Join(parts, ","))
	}
	return b.String()
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ParseDocument reads a persisted config document. Unknown keys are ignored and every key
// that is missing or of the wrong type keeps its default. Capability fields are not part of
// the document and stay at their defaults.
func ParseDocument(data []byte) (schema.OverlayConfig, error) {
	cfg := schema.DefaultConfig()
	doc := map[string]interface{}{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parsing config document: %w", err)
	}

	str := func(k string, dst *string) {
		if v, ok := doc[k].(string); ok {
			*dst = v
		}
	}
	boolean := func(k string, dst *bool) {
		if v, ok := doc[k].(bool); ok {
			*dst = v
		}
	}
	str("moduledir", &cfg.ModuleDir)
	str("tempdir", &cfg.TempDir)
	str("mountsource", &cfg.MountSource)
	boolean("verbose", &cfg.Verbose)
	boolean("force_ext4", &cfg.ForceExt4)
	boolean("prefer_erofs", &cfg.PreferErofs)
	boolean("disable_umount", &cfg.DisableUmount)
	boolean("enable_nuke", &cfg.EnableNuke)
	boolean("ignore_protocol_mismatch", &cfg.IgnoreProtocolMismatch)
	boolean("enable_kernel_debug", &cfg.EnableKernelDebug)
	boolean("enable_stealth", &cfg.EnableStealth)
	boolean("avc_spoof", &cfg.AvcSpoof)

	switch v := doc["partitions"].(type) {
	case string:
		cfg.Partitions = schema.NormalizePartitions(strings.Split(v, ","))
	case []interface{}:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		cfg.Partitions = schema.NormalizePartitions(parts)
	}
	return cfg, nil
}

// SetField sets one document key on cfg from its text form, as given on a command line.
func SetField(cfg *schema.OverlayConfig, key, value string) error {
	strs := map[string]*string{
		"moduledir":   &cfg.ModuleDir,
		"tempdir":     &cfg.TempDir,
		"mountsource": &cfg.MountSource,
	}
	bools := map[string]*bool{
		"verbose":                  &cfg.Verbose,
		"force_ext4":               &cfg.ForceExt4,
		"prefer_erofs":             &cfg.PreferErofs,
		"disable_umount":           &cfg.DisableUmount,
		"enable_nuke":              &cfg.EnableNuke,
		"ignore_protocol_mismatch": &cfg.IgnoreProtocolMismatch,
		"enable_kernel_debug":      &cfg.EnableKernelDebug,
		"enable_stealth":           &cfg.EnableStealth,
		"avc_spoof":                &cfg.AvcSpoof,
	}

	if dst, ok := strs[key]; ok {
		*dst = value
		return nil
	}
	if dst, ok := bools[key]; ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
		*dst = b
		return nil
	}
	if key == "partitions" {
		cfg.Partitions = schema.NormalizePartitions(ParsePartitionInput(value))
		return nil
	}
	return fmt.Errorf("unknown config key %q", key)
}
