package hymo

import (
	"bytes"
	"encoding/json"

	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
)

// object is a JSON object whose fields are decoded one at a time, so a malformed field only
// loses itself.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, error) {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o == nil {
		o = object{}
	}
	return o, nil
}

// field decodes key into dst, leaving dst on its default when the key is missing, null or of
// the wrong type. Reports whether dst was set.
func field[T any](o object, key string, dst *T) bool {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		internalUtils.Log.Debug().Err(err).Str("field", key).Msg("Using default for malformed field")
		return false
	}
	*dst = v
	return true
}

// stringList decodes an array keeping only its string items, nil when key is not an array.
func stringList(o object, key string) []string {
	var items []json.RawMessage
	if !field(o, key, &items) {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			internalUtils.Log.Debug().Err(err).Str("field", key).Msg("Skipping non-string item")
			continue
		}
		out = append(out, s)
	}
	return out
}
