// Package parse converts free-form vision model output into canonical
// identification records. Responses arrive either as "Key: value" lines
// or as a JSON object, usually with markdown decorations, code fences or
// near-miss key spellings; everything here is defensive by necessity.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"car-identifier/pkg/types"
)

// Placeholder non-answers. A line carrying one of these contributes no
// field at all, so later repair passes can still fill it in.
var skipValues = map[string]struct{}{
	"not visible":         {},
	"unclear":             {},
	"not applicable":      {},
	"none":                {},
	"not a car":           {},
	"not clearly visible": {},
}

var edgeDecorations = regexp.MustCompile("^[*`_\"\\s]+|[*`_\"\\s]+$")

// CanonicalKey maps a raw response key to one of the six canonical field
// names. Matching is case-insensitive, ignores dash/underscore separators
// and falls back to token containment ("brand" counts as Make, "emblem"
// as Logos, and so on).
func CanonicalKey(raw string) (string, bool) {
	k := strings.TrimSpace(raw)
	k = strings.Trim(k, ":")
	k = edgeDecorations.ReplaceAllString(k, "")
	low := strings.ToLower(k)
	low = strings.ReplaceAll(low, "-", " ")
	low = strings.ReplaceAll(low, "_", " ")
	low = strings.TrimSpace(low)

	switch low {
	case "make", "brand":
		return types.KeyMake, true
	case "model":
		return types.KeyModel, true
	case "color", "colour":
		return types.KeyColor, true
	case "logos", "logo", "emblems", "badges", "text":
		return types.KeyLogos, true
	case "license plate", "licence plate", "plate", "registration", "number plate":
		return types.KeyPlate, true
	case "ai interpretation summary", "summary", "description":
		return types.KeySummary, true
	}

	// Containment fallbacks, checked in a fixed order so that e.g.
	// "license plate text" resolves to the plate, not to Logos.
	switch {
	case strings.Contains(low, "make") || strings.Contains(low, "brand"):
		return types.KeyMake, true
	case strings.Contains(low, "model"):
		return types.KeyModel, true
	case strings.Contains(low, "colour") || strings.Contains(low, "color"):
		return types.KeyColor, true
	case strings.Contains(low, "license") || strings.Contains(low, "licence") || strings.Contains(low, "plate"):
		return types.KeyPlate, true
	case strings.Contains(low, "logo") || strings.Contains(low, "emblem") ||
		strings.Contains(low, "badge") || strings.Contains(low, "text"):
		return types.KeyLogos, true
	case strings.Contains(low, "summary") || strings.Contains(low, "interpretation"):
		return types.KeySummary, true
	}
	return "", false
}

// cleanValue strips markdown emphasis markers and surrounding quotes.
func cleanValue(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.HasPrefix(v, "**") {
		v = strings.TrimLeft(v, "* ")
	}
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "\"")
	return strings.TrimSpace(v)
}

// Lines parses a response line by line: every line containing a colon is
// split at the first colon into key and value, the key is canonicalized
// and placeholder non-answers are dropped. If no summary line was found
// one is synthesized from the first line of the raw text.
func Lines(raw string) types.Record {
	var rec types.Record
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key, ok := CanonicalKey(line[:idx])
		if !ok {
			continue
		}
		value := cleanValue(line[idx+1:])
		if _, skip := skipValues[strings.ToLower(value)]; skip {
			continue
		}
		rec.Set(key, value)
	}
	if rec.Summary == "" {
		rec.Summary = synthesizeSummary(raw)
	}
	return rec
}

// synthesizeSummary derives a summary from the first line of raw text,
// truncated to 200 characters with an ellipsis marker.
func synthesizeSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Image analysis completed"
	}
	first := strings.SplitN(raw, "\n", 2)[0]
	return Truncate(first, 200)
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// JSON attempts a strict structured parse: the text (after sanitizing
// code fences, comments and trailing commas) must unmarshal to a JSON
// object. Keys are canonicalized the same way as in line parsing. Returns
// false when the text yields no usable object; callers fall back to plain
// line parsing, never to substring searches for embedded JSON.
func JSON(raw string) (types.Record, bool) {
	var rec types.Record
	cleaned := sanitizeJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return rec, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return rec, false
	}
	for k, v := range obj {
		key, ok := CanonicalKey(k)
		if !ok {
			continue
		}
		var value string
		switch t := v.(type) {
		case string:
			value = cleanValue(t)
		case nil:
			continue
		default:
			value = cleanValue(fmt.Sprintf("%v", t))
		}
		rec.Set(key, value)
	}
	return rec, true
}

// Preferred is the JSON-preferring normalizer used by the enhanced,
// repair and strict-JSON cascade stages: structured parse first, line
// parse as fallback, and all six fields guaranteed present.
func Preferred(raw string) types.Record {
	if rec, ok := JSON(raw); ok {
		return Complete(rec)
	}
	return Complete(Lines(raw))
}

// Complete fills absent fields so all six keys carry a value: "Unknown"
// everywhere except Logos, which defaults to the empty string.
func Complete(rec types.Record) types.Record {
	for _, k := range types.Keys {
		if k == types.KeyLogos {
			continue
		}
		if rec.Get(k) == "" {
			rec.Set(k, "Unknown")
		}
	}
	return rec
}

// MostlyUnknown reports whether Make, Model and Color are all unknown.
// An unpopulated field counts as unknown since the record type has no
// absent keys. Logos, plate and summary do not factor in.
func MostlyUnknown(rec types.Record) bool {
	for _, v := range []string{rec.Make, rec.Model, rec.Color} {
		if v != "" && !strings.EqualFold(v, "unknown") {
			return false
		}
	}
	return true
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeJSON removes code fences, comments and trailing commas, then
// keeps only the outermost {...} so surrounding prose does not break the
// unmarshal.
func sanitizeJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")
	raw = strings.TrimSpace(raw)

	// Trim trailing prose after a leading object. Text that does not
	// start with an object is left alone: prose-wrapped JSON falls back
	// to line parsing instead of a substring hunt.
	if strings.HasPrefix(raw, "{") {
		if end := strings.LastIndex(raw, "}"); end > 0 {
			raw = raw[:end+1]
		}
	}
	return strings.TrimSpace(raw)
}
