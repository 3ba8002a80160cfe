// Package metadata derives embeddable title, description, and keyword
// fields from an identification record and writes them with exiftool.
package metadata

import (
	"strings"

	"car-identifier/pkg/types"
)

// placeholders are values that read as "no information" and must not
// leak into embedded metadata.
var placeholders = map[string]struct{}{
	"":            {},
	"unknown":     {},
	"n/a":         {},
	"na":          {},
	"none":        {},
	"not visible": {},
	"unclear":     {},
}

// Clean maps placeholder values to the empty string and trims the rest.
func Clean(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := placeholders[strings.ToLower(v)]; ok {
		return ""
	}
	return v
}

// CleanRecord returns a copy of rec with every field passed through Clean.
func CleanRecord(rec types.Record) types.Record {
	var out types.Record
	for _, key := range types.Keys {
		out.Set(key, Clean(rec.Get(key)))
	}
	return out
}

// Title builds "<Make> <Model>", falling back to "Car" when neither is
// known.
func Title(rec types.Record) string {
	var parts []string
	if v := Clean(rec.Make); v != "" {
		parts = append(parts, v)
	}
	if v := Clean(rec.Model); v != "" {
		parts = append(parts, v)
	}
	if len(parts) == 0 {
		return "Car"
	}
	return strings.Join(parts, " ")
}

// Description builds a single-line caption from the known fields.
func Description(rec types.Record) string {
	var parts []string

	name := Title(rec)
	if name == "Car" {
		parts = append(parts, "Car photo")
	} else {
		parts = append(parts, "Car: "+name)
	}
	if v := Clean(rec.Color); v != "" {
		parts = append(parts, "Color: "+v)
	}
	if v := Clean(rec.LicensePlate); v != "" {
		parts = append(parts, "License: "+v)
	}
	if v := Clean(rec.Logos); v != "" {
		parts = append(parts, "Logos: "+cutRunes(v, 120))
	}
	if v := Clean(rec.Summary); v != "" {
		parts = append(parts, "Summary: "+cutRunes(v, 200))
	}
	return strings.Join(parts, " - ")
}

// Keywords builds an ordered, deduplicated keyword list. The generic
// seeds come first so galleries group car photos together.
func Keywords(rec types.Record) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		lower := strings.ToLower(v)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		out = append(out, v)
	}

	add("Car Photo")
	add("Vehicle")
	add("Automotive")

	if v := Clean(rec.Make); v != "" {
		add("Car Make: " + v)
		add(v)
	}
	if v := Clean(rec.Model); v != "" {
		add("Car Model: " + v)
		add(v)
		for _, tok := range strings.Fields(v) {
			if len(tok) > 1 && len(tok) <= 32 {
				add(tok)
			}
		}
	}
	if v := Clean(rec.Color); v != "" {
		add("Car Color: " + v)
		add(v)
	}
	if v := Clean(rec.LicensePlate); v != "" {
		add("License: " + v)
	}
	return out
}

// Fields is the full derived metadata set for one record.
type Fields struct {
	Title       string
	Description string
	Keywords    []string
}

// Build derives all embeddable fields from rec.
func Build(rec types.Record) Fields {
	return Fields{
		Title:       Title(rec),
		Description: Description(rec),
		Keywords:    Keywords(rec),
	}
}

// cutRunes truncates at a rune boundary without an ellipsis.
func cutRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
