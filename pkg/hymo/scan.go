package hymo

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/gateway"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/moby/sys/mountinfo"
)

// MountChecker tells whether p is an existing directory with something mounted on it.
type MountChecker interface {
	IsMountpoint(ctx context.Context, p string) (bool, error)
}

// GatewayMountChecker asks through the gateway, for when the client is not privileged.
type GatewayMountChecker struct {
	Gateway gateway.Gateway
}

func (g *GatewayMountChecker) IsMountpoint(ctx context.Context, p string) (bool, error) {
	q := internalUtils.ShellQuote(p)
	res := g.Gateway.Exec(ctx, "test -d "+q+" && mountpoint -q "+q+" && echo yes || echo no")
	if !res.Success {
		return false, res.Error()
	}
	return internalUtils.FirstLine(res.Stdout) == "yes", nil
}

// LocalMountChecker reads the mount table of the current process directly.
type LocalMountChecker struct{}

func (LocalMountChecker) IsMountpoint(_ context.Context, p string) (bool, error) {
	fi, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !fi.IsDir() {
		return false, nil
	}
	return mountinfo.Mounted(p)
}

// ScanCandidates proposes extra partitions from the module tree: every second-level
// directory name under moduleDir that is not ignored and is a live mountpoint at /<name>.
// The result is sorted and unique. A missing moduleDir yields an empty list straight away.
func (c *Client) ScanCandidates(ctx context.Context, moduleDir string) []string {
	candidates := []string{}
	fi, err := c.fs.Stat(moduleDir)
	if err != nil || !fi.IsDir() {
		internalUtils.Log.Debug().Str("dir", moduleDir).Msg("Module dir not found, nothing to scan")
		return candidates
	}

	ignored := map[string]struct{}{}
	for _, n := range constants.DefaultPartitionIgnores() {
		ignored[n] = struct{}{}
	}

	var errs *multierror.Error
	checked := map[string]bool{}
	for _, module := range c.subdirs(moduleDir, &errs) {
		for _, name := range c.subdirs(filepath.Join(moduleDir, module), &errs) {
			if _, skip := ignored[name]; skip {
				continue
			}
			if _, done := checked[name]; done {
				continue
			}
			mounted, err := c.mounts.IsMountpoint(ctx, path.Join("/", name))
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			checked[name] = mounted
			if mounted {
				candidates = append(candidates, name)
			}
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		internalUtils.Log.Warn().Err(err).Str("dir", moduleDir).Msg("Partition scan incomplete")
	}
	sort.Strings(candidates)
	internalUtils.Log.Debug().Strs("candidates", candidates).Msg("Partition scan done")
	return candidates
}

// subdirs lists the directories directly under dir, following symlinks.
func (c *Client) subdirs(dir string, errs **multierror.Error) []string {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		*errs = multierror.Append(*errs, err)
		return nil
	}
	var dirs []string
	for _, e := range entries {
		fi, err := c.fs.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !fi.IsDir() {
			continue
		}
		dirs = append(dirs, e.Name())
	}
	return dirs
}

// MergePartitions appends scanned to existing and keeps the first of every duplicate.
func MergePartitions(existing, scanned []string) []string {
	return internalUtils.UniqueSlice(internalUtils.CleanupSlice(append(append([]string{}, existing...), scanned...)))
}

// ParsePartitionInput splits user input on commas and spaces.
func ParsePartitionInput(text string) []string {
	return internalUtils.CleanupSlice(strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' '
	}))
}

// AddScannedPartitions scans cfg.ModuleDir and saves the merge of the candidates into
// cfg.Partitions. Nothing is saved when the scan finds nothing new.
func (c *Client) AddScannedPartitions(ctx context.Context, cfg schema.OverlayConfig) (schema.OverlayConfig, []string, bool) {
	scanned := c.ScanCandidates(ctx, cfg.ModuleDir)
	merged := MergePartitions(cfg.Partitions, scanned)
	if len(merged) == len(schema.NormalizePartitions(cfg.Partitions)) {
		return cfg, scanned, true
	}
	next, ok := c.UpdateConfig(ctx, cfg, func(n *schema.OverlayConfig) {
		n.Partitions = merged
	})
	return next, scanned, ok
}
