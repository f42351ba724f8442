package hymo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
)

// ParseModuleModes reads override file lines. Blank and # lines are ignored, the rest split
// on the first '='. Lines without '=' are dropped.
func ParseModuleModes(lines []string) map[string]string {
	modes := map[string]string{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, mode, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		modes[id] = strings.TrimSpace(mode)
	}
	return modes
}

// RenderModuleModes writes the whole override map, ids sorted so the file is stable.
func RenderModuleModes(modes map[string]string) string {
	ids := make([]string, 0, len(modes))
	for id := range modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(constants.ModuleModeHeader + "\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "%s=%s\n", id, modes[id])
	}
	return b.String()
}

// ModuleModes reads the override map.
func (c *Client) ModuleModes(ctx context.Context) (map[string]string, error) {
	lines, err := c.readFile(ctx, c.settings.ModuleModeFile)
	if err != nil {
		return nil, err
	}
	return ParseModuleModes(lines), nil
}

// SetMode records mode as the override for moduleID, auto removes the override. The file is
// rewritten in full while holding the override lock. If an existing file cannot be read
// nothing is written, so other entries are never lost.
func (c *Client) SetMode(ctx context.Context, moduleID, mode string) bool {
	l := internalUtils.Log.With().Str("module", moduleID).Str("mode", mode).Logger()
	if moduleID == "" || strings.ContainsAny(moduleID, "=\n") || !schema.ValidMode(mode) {
		l.Err(constants.ErrInvalidMode).Msg("Refusing to set module mode")
		return false
	}

	c.modesMu.Lock()
	defer c.modesMu.Unlock()

	modes, err := c.ModuleModes(ctx)
	if err != nil {
		l.Err(err).Msg("Reading module modes")
		return false
	}

	if mode == schema.ModeAuto {
		delete(modes, moduleID)
	} else {
		modes[moduleID] = mode
	}

	if !c.writeFile(ctx, c.settings.ModuleModeFile, RenderModuleModes(modes)) {
		return false
	}
	l.Info().Msg("Module mode updated")
	return true
}
