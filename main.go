package main

import (
	"fmt"
	"os"

	"github.com/kairos-io/hymoctl/internal/cmd"
	"github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/internal/version"
	"github.com/urfave/cli/v2"
)

// Drive the HymoFS overlay service from the command line.
func main() {
	app := cli.NewApp()
	app.Name = "hymoctl"
	app.Usage = "control plane for the HymoFS overlay service"
	app.Version = version.Get().String()
	app.Authors = []*cli.Author{{Name: "Kairos authors"}}
	app.Copyright = "kairos authors"
	app.Flags = cmd.Flags
	app.Before = func(c *cli.Context) error {
		utils.SetLogger(c.Bool("debug"))
		utils.Log.Debug().Str("version", version.GetVersion()).Msg("hymoctl")
		return nil
	}
	app.Commands = cmd.Commands

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
