package hymo

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
)

// heredocDelimiter is unique per write so no content line can terminate the heredoc early.
func heredocDelimiter() string {
	id, err := uuid.NewV4()
	if err != nil {
		internalUtils.Log.Warn().Err(err).Msg("Generating heredoc delimiter")
		return constants.HeredocDelimiterStart
	}
	return constants.HeredocDelimiterStart + "_" + strings.ReplaceAll(id.String(), "-", "")
}

// writeFileScript creates the parent dir, writes content to a sibling temp file through a
// quoted heredoc and renames it over path. Readers see either the old or the new file.
func writeFileScript(path, content string) []string {
	delim := heredocDelimiter()
	tmp := path + ".tmp"
	return []string{
		"set -e",
		"mkdir -p " + internalUtils.ShellQuote(filepath.Dir(path)),
		"cat > " + internalUtils.ShellQuote(tmp) + " << '" + delim + "'",
		strings.TrimSuffix(content, "\n"),
		delim,
		"mv -f " + internalUtils.ShellQuote(tmp) + " " + internalUtils.ShellQuote(path),
	}
}

// writeFile writes content to path through the gateway and reports the gateway's verdict.
func (c *Client) writeFile(ctx context.Context, path, content string) bool {
	_, ok := c.run(ctx, "Writing file", writeFileScript(path, content)...)
	if ok {
		internalUtils.Log.Debug().Str("file", path).Msg("File written")
	}
	return ok
}

// readFile returns the lines of path. An absent file reads as empty, an existing file that
// cannot be read is an error.
func (c *Client) readFile(ctx context.Context, path string) ([]string, error) {
	p := internalUtils.ShellQuote(path)
	res := c.gw.Exec(ctx, "if [ -e "+p+" ]; then cat "+p+"; fi")
	if !res.Success {
		return nil, res.Error()
	}
	return res.Stdout, nil
}
