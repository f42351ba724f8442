package hymo

import (
	"context"
	"encoding/json"

	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
)

// ListModules returns the installed modules with their requested mode and the strategy the
// daemon resolved for them. Any failure yields an empty list.
func (c *Client) ListModules(ctx context.Context) []schema.ModuleInfo {
	res, ok := c.run(ctx, "Listing modules", c.hymo("modules"))
	if !ok {
		return []schema.ModuleInfo{}
	}
	mods, err := DecodeModules([]byte(res.Output()))
	if err != nil {
		internalUtils.Log.Err(err).Msg("Parsing module list")
		return []schema.ModuleInfo{}
	}
	return mods
}

// DecodeModules decodes the `modules` array of the daemon's module listing. Entries without
// an id are skipped, every other field falls back to its default.
func DecodeModules(data []byte) ([]schema.ModuleInfo, error) {
	o, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	field(o, "modules", &entries)

	mods := make([]schema.ModuleInfo, 0, len(entries))
	for i, raw := range entries {
		e, err := decodeObject(raw)
		if err != nil {
			internalUtils.Log.Debug().Err(err).Int("index", i).Msg("Skipping malformed module entry")
			continue
		}
		m := schema.ModuleInfo{Mode: schema.ModeAuto, Strategy: schema.ModeOverlay, Enabled: true}
		if !field(e, "id", &m.ID) || m.ID == "" {
			internalUtils.Log.Debug().Int("index", i).Msg("Skipping module without id")
			continue
		}
		if !field(e, "name", &m.Name) || m.Name == "" {
			m.Name = m.ID
		}
		field(e, "version", &m.Version)
		field(e, "author", &m.Author)
		field(e, "description", &m.Description)
		field(e, "path", &m.Path)

		if field(e, "mode", &m.Mode) && !schema.ValidMode(m.Mode) {
			internalUtils.Log.Debug().Str("module", m.ID).Str("mode", m.Mode).Msg("Unknown mode, using auto")
			m.Mode = schema.ModeAuto
		}
		if field(e, "strategy", &m.Strategy) && !schema.ValidStrategy(m.Strategy) {
			internalUtils.Log.Debug().Str("module", m.ID).Str("strategy", m.Strategy).Msg("Not an applied strategy, using overlay")
			m.Strategy = schema.ModeOverlay
		}

		var disabled bool
		if field(e, "disabled", &disabled) {
			m.Enabled = !disabled
		}
		mods = append(mods, m)
	}
	return mods, nil
}
