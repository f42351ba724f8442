package hymo

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
)

// SystemInfo collects kernel release, SELinux mode and the daemon state. The three calls are
// independent: each failure only leaves its own fields on their defaults.
func (c *Client) SystemInfo(ctx context.Context) schema.SystemInfo {
	info := schema.DefaultSystemInfo()
	var errs *multierror.Error

	firstLine := func(what, cmd string) string {
		res := c.gw.Exec(ctx, cmd)
		if !res.Success {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", what, res.Error()))
			return constants.Unknown
		}
		if l := internalUtils.FirstLine(res.Stdout); l != "" {
			return l
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", what, constants.ErrNoOutput))
		return constants.Unknown
	}
	info.Kernel = firstLine("kernel release", "uname -r")
	info.SELinux = firstLine("selinux mode", "getenforce")

	state := internalUtils.ShellQuote(c.settings.StateFile)
	res := c.gw.Exec(ctx, "cat "+state+" 2>/dev/null")
	switch {
	case !res.Success:
		errs = multierror.Append(errs, fmt.Errorf("daemon state: %w", res.Error()))
	case len(res.Stdout) == 0:
		errs = multierror.Append(errs, fmt.Errorf("daemon state: %w", constants.ErrNoOutput))
	default:
		if err := decodeDaemonState([]byte(res.Output()), &info); err != nil {
			internalUtils.Log.Warn().Err(err).Str("file", c.settings.StateFile).Msg("Failed to parse daemon state")
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		internalUtils.Log.Debug().Err(err).Msg("System info incomplete")
	}
	return info
}

// decodeDaemonState fills the state-owned fields of info. On error info is left untouched.
func decodeDaemonState(data []byte, info *schema.SystemInfo) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	field(o, "mount_point", &info.MountBase)
	if mounts := stringList(o, "active_mounts"); mounts != nil {
		info.ActiveMounts = mounts
	}
	if ids := stringList(o, "hymofs_module_ids"); ids != nil {
		info.HymoFSModuleIDs = ids
	}
	field(o, "hymofs_mismatch", &info.HymoFSMismatch)
	field(o, "mismatch_message", &info.MismatchMessage)
	return nil
}

// StorageInfo returns the daemon's storage usage, passed through for display.
func (c *Client) StorageInfo(ctx context.Context) schema.StorageInfo {
	info := schema.DefaultStorageInfo()
	res, ok := c.run(ctx, "Getting storage info", c.hymo("storage"))
	if !ok {
		return info
	}
	o, err := decodeObject([]byte(res.Output()))
	if err != nil {
		internalUtils.Log.Err(err).Msg("Parsing storage info")
		return info
	}
	field(o, "size", &info.Size)
	field(o, "used", &info.Used)
	field(o, "avail", &info.Avail)
	field(o, "percent", &info.Percent)
	field(o, "type", &info.Type)
	return info
}
