package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"teralink/internal/media"
)

// legacyField marks the legacy response shape:
//
//	{"response": [{"title": "...", "resolutions": {"HD Video": "https://..."}}]}
//
// Anything else is treated as the direct shape:
//
//	{"file_name": "...", "direct_link": "https://...", "link": "...", "sizebytes": 123}
const legacyField = "response"

// normalize converts an accepted endpoint payload into a Result.
func normalize(payload map[string]json.RawMessage, quality string) (*media.Result, error) {
	var result *media.Result
	var err error

	if raw, ok := payload[legacyField]; ok {
		result, err = normalizeLegacy(raw, quality)
	} else {
		result = normalizeDirect(payload)
	}
	if err != nil {
		return nil, err
	}

	if len(result.Contents) == 0 {
		return nil, ErrNoValidLinks
	}
	return result, nil
}

// normalizeLegacy picks the requested quality out of every object item. The
// result title is the title of the last object item, whether or not it had the
// quality.
func normalizeLegacy(raw json.RawMessage, quality string) (*media.Result, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: malformed %q list: %v", ErrNoValidLinks, legacyField, err)
	}

	result := &media.Result{Contents: []media.Content{}}
	for _, rawItem := range items {
		// Items that are not objects are skipped.
		var item map[string]json.RawMessage
		if err := json.Unmarshal(rawItem, &item); err != nil || item == nil {
			continue
		}

		title := stringField(item, "title")
		if title == "" {
			title = media.Untitled
		}

		var resolutions map[string]json.RawMessage
		if raw, ok := item["resolutions"]; ok {
			_ = json.Unmarshal(raw, &resolutions)
		}
		if u := stringField(resolutions, quality); u != "" {
			result.Contents = append(result.Contents, media.Content{URL: u, Filename: title})
		}

		result.Title = title
	}
	return result, nil
}

// normalizeDirect reads the single-file shape. direct_link wins over link.
func normalizeDirect(payload map[string]json.RawMessage) *media.Result {
	result := &media.Result{Contents: []media.Content{}}

	u := stringField(payload, "direct_link")
	if u == "" {
		u = stringField(payload, "link")
	}
	if u == "" {
		return result
	}

	title := stringField(payload, "file_name")
	if title == "" {
		title = media.Untitled
	}

	result.Title = title
	result.Contents = append(result.Contents, media.Content{URL: u, Filename: title})
	result.TotalSize = sizeField(payload, "sizebytes")
	return result
}

// stringField returns m[key] if it is a JSON string, otherwise "".
func stringField(m map[string]json.RawMessage, key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// sizeField reads a byte count given as a JSON number or numeric string.
// Missing, negative or unparseable values count as 0.
func sizeField(m map[string]json.RawMessage, key string) int64 {
	raw, ok := m[key]
	if !ok {
		return 0
	}

	// json.Number also accepts a quoted number.
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}

	if i, err := n.Int64(); err == nil {
		return max(i, 0)
	}
	if f, err := n.Float64(); err == nil && f > 0 && f < math.MaxInt64 {
		return int64(f)
	}
	return 0
}
