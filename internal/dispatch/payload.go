package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const truncationMarker = "... [truncated]"

// buildResultPayload serializes a tool result for the model, bounding it to
// limit characters. Strings pass through as-is; everything else renders as
// JSON. Truncation never splits a UTF-8 sequence.
func buildResultPayload(data any, limit int) string {
	var serialized string
	switch v := data.(type) {
	case nil:
		serialized = "null"
	case string:
		serialized = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			serialized = fmt.Sprintf("%v", v)
		} else {
			serialized = string(b)
		}
	}
	serialized = strings.ToValidUTF8(serialized, "")

	if limit <= 0 || len(serialized) <= limit {
		return serialized
	}
	cut := serialized[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + truncationMarker
}
