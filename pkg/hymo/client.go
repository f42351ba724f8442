// Package hymo is the control-plane client for the HymoFS overlay service.
//
// It observes and drives three sources of state: the kernel feature (through the daemon's
// status and rule dump), the daemon's runtime state document, and the flat configuration
// files under the hymo config dir. Every operation talks to them through a gateway.Gateway
// and recovers transport and parse failures locally with a documented default, so nothing
// here returns an error to the caller except the explicit (value, error) helpers. Writes
// report success as a bool.
//
// Reads are safe to run concurrently. Writes to the same file are serialised by the Client.
package hymo

import (
	"context"
	"strings"
	"sync"

	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/gateway"
	"github.com/twpayne/go-vfs/v4"
)

type Client struct {
	gw       gateway.Gateway
	settings internalUtils.Settings
	fs       vfs.FS
	mounts   MountChecker

	// one writer per file
	configMu sync.Mutex
	modesMu  sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithFS sets the filesystem the partition scanner walks. Defaults to the host.
func WithFS(fs vfs.FS) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithMountChecker replaces the gateway-backed mountpoint check used by the scanner.
func WithMountChecker(m MountChecker) Option {
	return func(c *Client) {
		c.mounts = m
	}
}

func New(gw gateway.Gateway, s internalUtils.Settings, opts ...Option) *Client {
	c := &Client{gw: gw, settings: s, fs: vfs.OSFS}
	for _, o := range opts {
		o(c)
	}
	if c.mounts == nil {
		c.mounts = &GatewayMountChecker{Gateway: gw}
	}
	return c
}

// Settings returns the paths the client was built with.
func (c *Client) Settings() internalUtils.Settings {
	return c.settings
}

// hymo builds a `ksud hymo <args>` command line.
func (c *Client) hymo(args ...string) string {
	return internalUtils.ShellQuote(c.settings.Ksud) + " hymo " + strings.Join(args, " ")
}

// run executes cmds and logs a failure with msg. The Result is only meaningful when ok.
func (c *Client) run(ctx context.Context, msg string, cmds ...string) (gateway.Result, bool) {
	res := c.gw.Exec(ctx, cmds...)
	if !res.Success {
		internalUtils.Log.Err(res.Error()).Str("cmd", cmds[0]).Msg(msg)
		return res, false
	}
	return res, true
}
