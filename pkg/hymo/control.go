package hymo

import (
	"context"
	"fmt"

	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
)

func onOff(enable bool) string {
	if enable {
		return "on"
	}
	return "off"
}

// Version returns the daemon's protocol and kernel version text, Unknown on failure.
func (c *Client) Version(ctx context.Context) string {
	res, ok := c.run(ctx, "Getting hymofs version", c.hymo("version"))
	if !ok || len(res.Stdout) == 0 {
		return constants.Unknown
	}
	return res.Output()
}

// SetKernelDebug toggles kernel debug logging in the running kernel only.
func (c *Client) SetKernelDebug(ctx context.Context, enable bool) bool {
	_, ok := c.run(ctx, "Setting kernel debug", c.hymo("debug", onOff(enable)))
	return ok
}

// SetStealth toggles stealth mode in the running kernel only.
func (c *Client) SetStealth(ctx context.Context, enable bool) bool {
	_, ok := c.run(ctx, "Setting stealth mode", c.hymo("stealth", onOff(enable)))
	return ok
}

// FixMounts asks the daemon to reorder mount ids in the mount namespace.
func (c *Client) FixMounts(ctx context.Context) bool {
	_, ok := c.run(ctx, "Fixing mounts", c.hymo("fix-mounts"))
	return ok
}

// ClearRules removes every rule from the kernel.
func (c *Client) ClearRules(ctx context.Context) bool {
	_, ok := c.run(ctx, "Clearing rules", c.hymo("clear"))
	return ok
}

// TriggerMount asks the daemon to run its mount pass now.
func (c *Client) TriggerMount(ctx context.Context) bool {
	_, ok := c.run(ctx, "Triggering mount", c.hymo("mount"))
	return ok
}

// BuiltinMountEnabled reports whether the builtin mount is on, that is the disable flag file
// is absent. Only a transport failure reads as enabled; a check that ran and failed, or
// printed anything but "enabled", reads as disabled.
func (c *Client) BuiltinMountEnabled(ctx context.Context) bool {
	flag := internalUtils.ShellQuote(c.settings.BuiltinFlag)
	res, ok := c.run(ctx, "Checking builtin mount", "test -f "+flag+" && echo disabled || echo enabled")
	if !ok {
		return res.Err != nil
	}
	return internalUtils.FirstLine(res.Stdout) == "enabled"
}

// SetBuiltinMountEnabled removes or creates the disable flag file.
func (c *Client) SetBuiltinMountEnabled(ctx context.Context, enable bool) bool {
	flag := internalUtils.ShellQuote(c.settings.BuiltinFlag)
	cmd := "rm -f " + flag
	if !enable {
		cmd = "mkdir -p \"$(dirname " + flag + ")\" && touch " + flag
	}
	_, ok := c.run(ctx, "Setting builtin mount", cmd)
	return ok
}

// ReadLog returns the last lines of the daemon log, empty on failure.
func (c *Client) ReadLog(ctx context.Context, lines int) string {
	res, ok := c.run(ctx, "Reading daemon log", fmt.Sprintf("tail -n %d %s 2>/dev/null", positive(lines, 500), internalUtils.ShellQuote(c.settings.LogFile)))
	if !ok {
		return ""
	}
	return res.Output()
}

// ReadKernelLog returns the last hymofs lines of the kernel log, empty on failure.
func (c *Client) ReadKernelLog(ctx context.Context, lines int) string {
	res, ok := c.run(ctx, "Reading kernel log", fmt.Sprintf("dmesg | grep -i 'hymofs\\|hymo' | tail -n %d", positive(lines, 200)))
	if !ok {
		return ""
	}
	return res.Output()
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// ApplyKernelDebug persists enable_kernel_debug and then toggles it in the kernel. The two
// calls are not a transaction: each result is reported and nothing is rolled back, a reload
// shows the state that actually stuck.
func (c *Client) ApplyKernelDebug(ctx context.Context, cfg schema.OverlayConfig, enable bool) (schema.OverlayConfig, bool, bool) {
	next, saved := c.UpdateConfig(ctx, cfg, func(n *schema.OverlayConfig) {
		n.EnableKernelDebug = enable
	})
	toggled := c.SetKernelDebug(ctx, enable)
	if saved != toggled {
		internalUtils.Log.Warn().Bool("saved", saved).Bool("toggled", toggled).Msg("Kernel debug config and kernel state differ until next reload")
	}
	return next, saved, toggled
}

// ApplyStealth is ApplyKernelDebug for enable_stealth.
func (c *Client) ApplyStealth(ctx context.Context, cfg schema.OverlayConfig, enable bool) (schema.OverlayConfig, bool, bool) {
	next, saved := c.UpdateConfig(ctx, cfg, func(n *schema.OverlayConfig) {
		n.EnableStealth = enable
	})
	toggled := c.SetStealth(ctx, enable)
	if saved != toggled {
		internalUtils.Log.Warn().Bool("saved", saved).Bool("toggled", toggled).Msg("Stealth config and kernel state differ until next reload")
	}
	return next, saved, toggled
}
