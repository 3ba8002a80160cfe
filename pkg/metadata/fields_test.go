package metadata

import (
	"strings"
	"testing"

	"car-identifier/pkg/types"
)

func TestClean(t *testing.T) {
	cases := map[string]string{
		"Ford":          "Ford",
		"  Ford  ":      "Ford",
		"Unknown":       "",
		"unknown":       "",
		"N/A":           "",
		"none":          "",
		"Not Visible":   "",
		"unclear":       "",
		"":              "",
		"Unknown Model": "Unknown Model",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	rec := types.Record{Make: "Ford", Model: "Focus RS"}
	if got := Title(rec); got != "Ford Focus RS" {
		t.Errorf("Title = %q", got)
	}
	if got := Title(types.Record{Model: "Focus RS"}); got != "Focus RS" {
		t.Errorf("Title = %q, want model alone", got)
	}
	if got := Title(types.Record{Make: "Unknown", Model: "unknown"}); got != "Car" {
		t.Errorf("Title = %q, want Car fallback", got)
	}
}

func TestDescription(t *testing.T) {
	rec := types.Record{
		Make:         "Ford",
		Model:        "Focus RS",
		Color:        "Nitrous Blue",
		LicensePlate: "AB12 CDE",
		Logos:        "RS badge on grille",
		Summary:      "A blue hot hatch parked outside.",
	}
	got := Description(rec)
	want := "Car: Ford Focus RS - Color: Nitrous Blue - License: AB12 CDE - Logos: RS badge on grille - Summary: A blue hot hatch parked outside."
	if got != want {
		t.Errorf("Description = %q\nwant %q", got, want)
	}

	if got := Description(types.Record{}); got != "Car photo" {
		t.Errorf("empty Description = %q, want Car photo", got)
	}
}

func TestDescriptionTruncatesLongFields(t *testing.T) {
	rec := types.Record{Summary: strings.Repeat("q", 400), Logos: strings.Repeat("z", 300)}
	got := Description(rec)
	if strings.Count(got, "q") != 200 {
		t.Errorf("summary portion = %d chars, want 200", strings.Count(got, "q"))
	}
	if strings.Count(got, "z") != 120 {
		t.Errorf("logos portion = %d chars, want 120", strings.Count(got, "z"))
	}
}

func TestKeywords(t *testing.T) {
	rec := types.Record{
		Make:         "Ford",
		Model:        "Focus RS",
		Color:        "Blue",
		LicensePlate: "AB12 CDE",
	}
	got := Keywords(rec)
	want := []string{
		"Car Photo", "Vehicle", "Automotive",
		"Car Make: Ford", "Ford",
		"Car Model: Focus RS", "Focus RS", "Focus", "RS",
		"Car Color: Blue", "Blue",
		"License: AB12 CDE",
	}
	if len(got) != len(want) {
		t.Fatalf("keywords = %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestKeywordsDeduplicates(t *testing.T) {
	rec := types.Record{Make: "Mini", Model: "Mini Cooper"}
	got := Keywords(rec)
	seen := map[string]int{}
	for _, k := range got {
		seen[strings.ToLower(k)]++
	}
	for k, n := range seen {
		if n > 1 {
			t.Errorf("keyword %q appears %d times", k, n)
		}
	}
}

func TestKeywordsSkipsPlaceholders(t *testing.T) {
	got := Keywords(types.Record{Make: "Unknown", Color: "not visible"})
	if len(got) != 3 {
		t.Errorf("keywords = %v, want only the three seeds", got)
	}
}

func TestBuild(t *testing.T) {
	f := Build(types.Record{Make: "Audi", Model: "RS6"})
	if f.Title != "Audi RS6" {
		t.Errorf("Title = %q", f.Title)
	}
	if !strings.HasPrefix(f.Description, "Car: Audi RS6") {
		t.Errorf("Description = %q", f.Description)
	}
	if len(f.Keywords) == 0 {
		t.Error("no keywords built")
	}
}
