package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// printOut renders v in the format chosen with --output.
func printOut(c *cli.Context, v interface{}) error {
	var out []byte
	var err error
	switch c.String("output") {
	case "json":
		out, err = json.MarshalIndent(v, "", "  ")
		out = append(out, '\n')
	case "yaml", "":
		out, err = yaml.Marshal(v)
	default:
		return cli.Exit(fmt.Sprintf("unknown output format %q, use yaml or json", c.String("output")), 2)
	}
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(out)
	return err
}

// printText writes plain text, for logs and version strings.
func printText(c *cli.Context, text string) error {
	_, err := fmt.Fprintln(c.App.Writer, text)
	return err
}

// confirm turns a write's verdict into the command's exit status.
func confirm(ok bool, what string) error {
	if !ok {
		return cli.Exit(fmt.Sprintf("%s failed", what), 1)
	}
	return nil
}
