package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetSetRoundTrip(t *testing.T) {
	var rec Record
	for _, key := range Keys {
		if !rec.Set(key, key+"-value") {
			t.Errorf("Set(%q) rejected a canonical key", key)
		}
		if got := rec.Get(key); got != key+"-value" {
			t.Errorf("Get(%q) = %q after Set", key, got)
		}
	}
	if rec.Set("Weather", "sunny") {
		t.Error("Set accepted an unknown key")
	}
	if rec.Get("Weather") != "" {
		t.Error("Get returned a value for an unknown key")
	}
}

func TestFormat(t *testing.T) {
	rec := Record{Make: "Saab", Model: "900", Color: "Black"}
	out := rec.Format()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(Keys) {
		t.Fatalf("Format produced %d lines, want %d", len(lines), len(Keys))
	}
	for i, key := range Keys {
		if !strings.HasPrefix(lines[i], key+": ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], key+": ")
		}
	}
	if lines[0] != "Make: Saab" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestJSONUsesCanonicalKeys(t *testing.T) {
	rec := Record{Make: "Saab", LicensePlate: "ABC 123", Summary: "An old Saab."}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"License Plate"`, `"AI-Interpretation Summary"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshaled JSON missing %s: %s", key, data)
		}
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != rec {
		t.Errorf("round trip changed record: %+v", back)
	}
}

func TestIsZero(t *testing.T) {
	if !(Record{}).IsZero() {
		t.Error("empty record should be zero")
	}
	if (Record{Logos: "badge"}).IsZero() {
		t.Error("populated record should not be zero")
	}
}
