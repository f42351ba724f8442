package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kairos-io/hymoctl/internal/constants"
	"github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/internal/version"
	"github.com/kairos-io/hymoctl/pkg/dag"
	"github.com/kairos-io/hymoctl/pkg/gateway"
	"github.com/kairos-io/hymoctl/pkg/hymo"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/kairos-io/hymoctl/pkg/state"
	"github.com/spectrocloud-labs/herd"
	"github.com/urfave/cli/v2"
)

// Flags are the global flags, every command builds its client from them.
var Flags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "debug",
		Usage:   "debug logging",
		EnvVars: []string{"HYMOCTL_DEBUG"},
	},
	&cli.StringFlag{
		Name:    "env-file",
		Usage:   "settings file with HYMOCTL_* keys",
		Value:   constants.DefaultSettingsFile,
		EnvVars: []string{"HYMOCTL_ENV_FILE"},
	},
	&cli.StringFlag{
		Name:  "ksud",
		Usage: "path of the ksud binary",
	},
	&cli.StringFlag{
		Name:  "su",
		Usage: "privilege wrapper for every command, e.g. \"su -c\"",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "timeout of every privileged command",
	},
	&cli.BoolFlag{
		Name:  "local-mounts",
		Usage: "check mountpoints from this process instead of through the shell",
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "yaml or json",
		Value:   "yaml",
	},
}

func newClient(c *cli.Context) (*hymo.Client, error) {
	s, err := utils.LoadSettings(c.String("env-file"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("loading settings: %s", err), 1)
	}
	if c.IsSet("ksud") {
		s.Ksud = c.String("ksud")
	}
	if c.IsSet("su") {
		s.Su = c.String("su")
	}
	if c.IsSet("timeout") {
		s.Timeout = c.Duration("timeout")
	}

	var opts []hymo.Option
	if c.Bool("local-mounts") {
		opts = append(opts, hymo.WithMountChecker(hymo.LocalMountChecker{}))
	}
	return hymo.New(gateway.NewShellGateway(s), s, opts...), nil
}

// withClient adapts an action that needs a client.
func withClient(action func(c *cli.Context, client *hymo.Client) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		client, err := newClient(c)
		if err != nil {
			return err
		}
		return action(c, client)
	}
}

// loadForUpdate loads the config a write starts from. A failed load would only give
// defaults, saving those would wipe the daemon's document, so the command stops there.
func loadForUpdate(c *cli.Context, client *hymo.Client) (schema.OverlayConfig, error) {
	cfg, ok := client.LoadConfigChecked(c.Context)
	if !ok {
		return cfg, cli.Exit("loading config failed, nothing was changed", 1)
	}
	return cfg, nil
}

func parseOnOff(c *cli.Context) (bool, error) {
	switch strings.ToLower(c.Args().First()) {
	case "on", "1", "true", "enable":
		return true, nil
	case "off", "0", "false", "disable":
		return false, nil
	default:
		return false, cli.Exit("expected on or off", 2)
	}
}

var Commands = []*cli.Command{
	{
		Name:  "version",
		Usage: "client and daemon versions",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			v := version.Get()
			utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("hymoctl")
			return printOut(c, map[string]interface{}{
				"client": v,
				"daemon": client.Version(c.Context),
			})
		}),
	},
	{
		Name:  "status",
		Usage: "probe the overlay capability",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return printText(c, client.Status(c.Context).String())
		}),
	},
	{
		Name:  "refresh",
		Usage: "read everything at once",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "print the dag and exit"},
		},
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			if c.Bool("dry-run") {
				s := state.New(client)
				g := herd.DAG(herd.EnableInit)
				if err := dag.RegisterRefresh(s, g); err != nil {
					return err
				}
				return printText(c, s.WriteDAG(g))
			}
			s, err := dag.Refresh(c.Context, client)
			if err != nil {
				utils.Log.Warn().Err(err).Msg("Refresh incomplete")
			}
			return printOut(c, s)
		}),
	},
	{
		Name:  "config",
		Usage: "show or change the overlay config",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "read a config document from disk instead of asking the daemon"},
		},
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			if f := c.String("file"); f != "" {
				data, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				cfg, err := hymo.ParseDocument(data)
				if err != nil {
					return err
				}
				return printOut(c, cfg)
			}
			return printOut(c, client.LoadConfig(c.Context))
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "set one key and save",
				ArgsUsage: "<key> <value>",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					if c.Args().Len() != 2 {
						return cli.Exit("usage: config set <key> <value>", 2)
					}
					scratch := schema.DefaultConfig()
					if err := hymo.SetField(&scratch, c.Args().Get(0), c.Args().Get(1)); err != nil {
						return cli.Exit(err.Error(), 2)
					}
					cfg, err := loadForUpdate(c, client)
					if err != nil {
						return err
					}
					next, ok := client.UpdateConfig(c.Context, cfg, func(n *schema.OverlayConfig) {
						_ = hymo.SetField(n, c.Args().Get(0), c.Args().Get(1))
					})
					if err := confirm(ok, "saving config"); err != nil {
						return err
					}
					return printOut(c, next)
				}),
			},
			{
				Name:      "add-partitions",
				Usage:     "add partitions, separated by commas or spaces",
				ArgsUsage: "<partitions>",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					added := hymo.ParsePartitionInput(strings.Join(c.Args().Slice(), " "))
					if len(added) == 0 {
						return cli.Exit("no partitions given", 2)
					}
					cfg, err := loadForUpdate(c, client)
					if err != nil {
						return err
					}
					next, ok := client.UpdateConfig(c.Context, cfg, func(n *schema.OverlayConfig) {
						n.Partitions = hymo.MergePartitions(n.Partitions, added)
					})
					if err := confirm(ok, "saving config"); err != nil {
						return err
					}
					return printOut(c, next.Partitions)
				}),
			},
			{
				Name:      "remove-partition",
				Usage:     "remove one partition",
				ArgsUsage: "<partition>",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					name := c.Args().First()
					cfg, err := loadForUpdate(c, client)
					if err != nil {
						return err
					}
					next, ok := client.UpdateConfig(c.Context, cfg, func(n *schema.OverlayConfig) {
						kept := n.Partitions[:0]
						for _, p := range n.Partitions {
							if p != name {
								kept = append(kept, p)
							}
						}
						n.Partitions = kept
					})
					if err := confirm(ok, "saving config"); err != nil {
						return err
					}
					return printOut(c, next.Partitions)
				}),
			},
			{
				Name:  "scan-partitions",
				Usage: "add partitions found in the module tree",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					cfg, err := loadForUpdate(c, client)
					if err != nil {
						return err
					}
					next, found, ok := client.AddScannedPartitions(c.Context, cfg)
					if err := confirm(ok, "saving config"); err != nil {
						return err
					}
					utils.Log.Info().Strs("found", found).Msg("Partition scan")
					return printOut(c, next.Partitions)
				}),
			},
		},
	},
	{
		Name:  "modules",
		Usage: "list modules with their mode and resolved strategy",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return printOut(c, client.ListModules(c.Context))
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "set-mode",
				Usage:     "override the mount mode of a module, auto removes the override",
				ArgsUsage: "<module id> <auto|hymofs|overlay|magic|none>",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					if c.Args().Len() != 2 {
						return cli.Exit("usage: modules set-mode <module id> <mode>", 2)
					}
					return confirm(client.SetMode(c.Context, c.Args().Get(0), c.Args().Get(1)), "setting module mode")
				}),
			},
			{
				Name:  "modes",
				Usage: "show the mode overrides",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					modes, err := client.ModuleModes(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return printOut(c, modes)
				}),
			},
		},
	},
	{
		Name:  "rules",
		Usage: "list the rules active in the kernel",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return printOut(c, client.ListActiveRules(c.Context))
		}),
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "remove every rule from the kernel",
				Action: withClient(func(c *cli.Context, client *hymo.Client) error {
					return confirm(client.ClearRules(c.Context), "clearing rules")
				}),
			},
		},
	},
	{
		Name:  "system",
		Usage: "kernel, selinux and daemon state",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return printOut(c, client.SystemInfo(c.Context))
		}),
	},
	{
		Name:  "storage",
		Usage: "overlay storage usage",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return printOut(c, client.StorageInfo(c.Context))
		}),
	},
	{
		Name:      "scan",
		Usage:     "list partition candidates without saving them",
		ArgsUsage: "[module dir]",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			dir := c.Args().First()
			if dir == "" {
				dir = client.Settings().ModuleDir
			}
			return printOut(c, client.ScanCandidates(c.Context, dir))
		}),
	},
	{
		Name:      "debug",
		Usage:     "save enable_kernel_debug and toggle it in the kernel",
		ArgsUsage: "<on|off>",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			enable, err := parseOnOff(c)
			if err != nil {
				return err
			}
			cfg, err := loadForUpdate(c, client)
			if err != nil {
				return err
			}
			_, saved, toggled := client.ApplyKernelDebug(c.Context, cfg, enable)
			if err := confirm(saved, "saving config"); err != nil {
				return err
			}
			return confirm(toggled, "setting kernel debug")
		}),
	},
	{
		Name:      "stealth",
		Usage:     "save enable_stealth and toggle it in the kernel",
		ArgsUsage: "<on|off>",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			enable, err := parseOnOff(c)
			if err != nil {
				return err
			}
			cfg, err := loadForUpdate(c, client)
			if err != nil {
				return err
			}
			_, saved, toggled := client.ApplyStealth(c.Context, cfg, enable)
			if err := confirm(saved, "saving config"); err != nil {
				return err
			}
			return confirm(toggled, "setting stealth")
		}),
	},
	{
		Name:  "fix-mounts",
		Usage: "reorder mount ids in the mount namespace",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return confirm(client.FixMounts(c.Context), "fixing mounts")
		}),
	},
	{
		Name:  "mount",
		Usage: "run the daemon mount pass now",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			return confirm(client.TriggerMount(c.Context), "mount")
		}),
	},
	{
		Name:      "builtin-mount",
		Usage:     "show or set the builtin mount",
		ArgsUsage: "[on|off]",
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			if c.Args().Len() == 0 {
				return printOut(c, map[string]bool{"enabled": client.BuiltinMountEnabled(c.Context)})
			}
			enable, err := parseOnOff(c)
			if err != nil {
				return err
			}
			return confirm(client.SetBuiltinMountEnabled(c.Context, enable), "setting builtin mount")
		}),
	},
	{
		Name:  "log",
		Usage: "tail the daemon log",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "kernel", Usage: "read hymofs lines from the kernel log instead"},
			&cli.IntFlag{Name: "lines", Aliases: []string{"n"}, Usage: "number of lines"},
		},
		Action: withClient(func(c *cli.Context, client *hymo.Client) error {
			if c.Bool("kernel") {
				return printText(c, client.ReadKernelLog(c.Context, c.Int("lines")))
			}
			return printText(c, client.ReadLog(c.Context, c.Int("lines")))
		}),
	},
}
