package schema

import (
	"strings"

	"github.com/kairos-io/hymoctl/internal/constants"
)

// OverlayStatus is the capability state reported by the daemon.
type OverlayStatus int

// Codes match the daemon's `hymofs_status` values.
const (
	StatusAvailable OverlayStatus = iota
	StatusNotPresent
	StatusKernelTooOld
	StatusModuleTooOld
)

func (s OverlayStatus) String() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusKernelTooOld:
		return "KernelTooOld"
	case StatusModuleTooOld:
		return "ModuleTooOld"
	default:
		return "NotPresent"
	}
}

// MarshalText makes the status render by name in JSON and YAML output.
func (s OverlayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusFromCode maps a daemon status code, unknown codes are NotPresent.
func StatusFromCode(code int) OverlayStatus {
	switch OverlayStatus(code) {
	case StatusAvailable, StatusNotPresent, StatusKernelTooOld, StatusModuleTooOld:
		return OverlayStatus(code)
	default:
		return StatusNotPresent
	}
}

const (
	ModeAuto    = "auto"
	ModeHymoFS  = "hymofs"
	ModeOverlay = "overlay"
	ModeMagic   = "magic"
	ModeNone    = "none"
)

// ValidMode reports whether m can be requested for a module.
func ValidMode(m string) bool {
	switch m {
	case ModeAuto, ModeHymoFS, ModeOverlay, ModeMagic, ModeNone:
		return true
	}
	return false
}

// ValidStrategy reports whether s is a strategy the daemon can actually apply.
// auto and none are request-only.
func ValidStrategy(s string) bool {
	switch s {
	case ModeHymoFS, ModeOverlay, ModeMagic:
		return true
	}
	return false
}

type OverlayConfig struct {
	ModuleDir              string   `json:"moduledir" yaml:"moduledir"`
	TempDir                string   `json:"tempdir,omitempty" yaml:"tempdir,omitempty"` // empty = daemon default
	MountSource            string   `json:"mountsource" yaml:"mountsource"`
	Verbose                bool     `json:"verbose" yaml:"verbose"`
	ForceExt4              bool     `json:"force_ext4" yaml:"force_ext4"`
	PreferErofs            bool     `json:"prefer_erofs" yaml:"prefer_erofs"`
	DisableUmount          bool     `json:"disable_umount" yaml:"disable_umount"`
	EnableNuke             bool     `json:"enable_nuke" yaml:"enable_nuke"`
	IgnoreProtocolMismatch bool     `json:"ignore_protocol_mismatch" yaml:"ignore_protocol_mismatch"`
	EnableKernelDebug      bool     `json:"enable_kernel_debug" yaml:"enable_kernel_debug"`
	EnableStealth          bool     `json:"enable_stealth" yaml:"enable_stealth"`
	AvcSpoof               bool     `json:"avc_spoof" yaml:"avc_spoof"`
	Partitions             []string `json:"partitions" yaml:"partitions"` // ordered, unique

	// Last observed capability, never persisted.
	Available bool          `json:"hymofs_available" yaml:"hymofs_available"`
	Status    OverlayStatus `json:"hymofs_status" yaml:"hymofs_status"`
}

// DefaultConfig is what a missing or unreadable config resolves to.
func DefaultConfig() OverlayConfig {
	return OverlayConfig{
		ModuleDir:     constants.ModuleDir,
		MountSource:   constants.DefaultMountSource,
		EnableStealth: true,
		Partitions:    []string{},
		Status:        StatusNotPresent,
	}
}

// Equal compares every field, partitions by order.
func (c OverlayConfig) Equal(o OverlayConfig) bool {
	if len(c.Partitions) != len(o.Partitions) {
		return false
	}
	for i := range c.Partitions {
		if c.Partitions[i] != o.Partitions[i] {
			return false
		}
	}
	return c.ModuleDir == o.ModuleDir &&
		c.TempDir == o.TempDir &&
		c.MountSource == o.MountSource &&
		c.Verbose == o.Verbose &&
		c.ForceExt4 == o.ForceExt4 &&
		c.PreferErofs == o.PreferErofs &&
		c.DisableUmount == o.DisableUmount &&
		c.EnableNuke == o.EnableNuke &&
		c.IgnoreProtocolMismatch == o.IgnoreProtocolMismatch &&
		c.EnableKernelDebug == o.EnableKernelDebug &&
		c.EnableStealth == o.EnableStealth &&
		c.AvcSpoof == o.AvcSpoof &&
		c.Available == o.Available &&
		c.Status == o.Status
}

// NormalizePartitions trims names, drops empties and keeps the first of any duplicate.
func NormalizePartitions(parts []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type ModuleInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description" yaml:"description"`
	Mode        string `json:"mode" yaml:"mode"`         // requested: auto, hymofs, overlay, magic, none
	Strategy    string `json:"strategy" yaml:"strategy"` // applied: hymofs, overlay, magic
	Path        string `json:"path" yaml:"path"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

type RuleKind string

const (
	RuleAdd         RuleKind = "add"
	RuleHide        RuleKind = "hide"
	RuleInject      RuleKind = "inject"
	RuleMerge       RuleKind = "merge"
	RuleHideXattrSb RuleKind = "hide_xattr_sb"
)

// ActiveRule is one kernel rule. Target is only set for add and merge, Extra only for add.
type ActiveRule struct {
	Kind   RuleKind `json:"type" yaml:"type"`
	Src    string   `json:"src" yaml:"src"`
	Target string   `json:"target,omitempty" yaml:"target,omitempty"`
	Extra  *int     `json:"extra,omitempty" yaml:"extra,omitempty"`
}

type SystemInfo struct {
	Kernel          string   `json:"kernel" yaml:"kernel"`
	SELinux         string   `json:"selinux" yaml:"selinux"`
	MountBase       string   `json:"mount_base" yaml:"mount_base"`
	ActiveMounts    []string `json:"active_mounts" yaml:"active_mounts"`
	HymoFSModuleIDs []string `json:"hymofs_module_ids" yaml:"hymofs_module_ids"`
	HymoFSMismatch  bool     `json:"hymofs_mismatch" yaml:"hymofs_mismatch"`
	MismatchMessage string   `json:"mismatch_message,omitempty" yaml:"mismatch_message,omitempty"`
}

// DefaultSystemInfo is returned piecewise when collection fails.
func DefaultSystemInfo() SystemInfo {
	return SystemInfo{
		Kernel:          constants.Unknown,
		SELinux:         constants.Unknown,
		MountBase:       constants.Unknown,
		ActiveMounts:    []string{},
		HymoFSModuleIDs: []string{},
	}
}

// StorageInfo is passed through from the daemon for display.
type StorageInfo struct {
	Size    string `json:"size" yaml:"size"`
	Used    string `json:"used" yaml:"used"`
	Avail   string `json:"avail" yaml:"avail"`
	Percent string `json:"percent" yaml:"percent"`
	Type    string `json:"type" yaml:"type"` // tmpfs, ext4, hymofs, unknown
}

func DefaultStorageInfo() StorageInfo {
	return StorageInfo{Size: "-", Used: "-", Avail: "-", Percent: "0%", Type: "unknown"}
}
