package types

import "fmt"

// Canonical field names used on the wire: in prompts, in model responses
// and in the embedded metadata JSON.
const (
	KeyMake    = "Make"
	KeyModel   = "Model"
	KeyColor   = "Color"
	KeyLogos   = "Logos"
	KeyPlate   = "License Plate"
	KeySummary = "AI-Interpretation Summary"
)

// Keys lists the six canonical field names in prompt order.
var Keys = []string{KeyMake, KeyModel, KeyColor, KeyLogos, KeyPlate, KeySummary}

// Record holds the six identification fields extracted from a model
// response. All six fields are always present; an empty string means the
// field was not populated yet, "Unknown" means the model could not tell.
// Records are values, rebuilt fresh for every processed image.
type Record struct {
	Make         string `json:"Make"`
	Model        string `json:"Model"`
	Color        string `json:"Color"`
	Logos        string `json:"Logos"`
	LicensePlate string `json:"License Plate"`
	Summary      string `json:"AI-Interpretation Summary"`
}

// Get returns the value stored under a canonical key.
func (r Record) Get(key string) string {
	switch key {
	case KeyMake:
		return r.Make
	case KeyModel:
		return r.Model
	case KeyColor:
		return r.Color
	case KeyLogos:
		return r.Logos
	case KeyPlate:
		return r.LicensePlate
	case KeySummary:
		return r.Summary
	}
	return ""
}

// Set stores a value under a canonical key and reports whether the key
// was recognized.
func (r *Record) Set(key, value string) bool {
	switch key {
	case KeyMake:
		r.Make = value
	case KeyModel:
		r.Model = value
	case KeyColor:
		r.Color = value
	case KeyLogos:
		r.Logos = value
	case KeyPlate:
		r.LicensePlate = value
	case KeySummary:
		r.Summary = value
	default:
		return false
	}
	return true
}

// IsZero reports whether no field has been populated.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Format renders the record as the six canonical "Key: value" lines, the
// same shape the prompts ask the model to produce.
func (r Record) Format() string {
	out := ""
	for _, k := range Keys {
		out += fmt.Sprintf("%s: %s\n", k, r.Get(k))
	}
	return out
}

// Prefs is the immutable preference set resolved once per processing
// request. The pipeline reads it but never mutates it.
type Prefs struct {
	// HighFidelity sends original image bytes when dimensions allow it,
	// instead of the resized transmission payload.
	HighFidelity bool
	// Enhanced starts the cascade on the persona-styled disambiguation
	// path with detail crops.
	Enhanced bool
	// Verify runs a second-pass re-check of the best-guess record.
	Verify bool
}
