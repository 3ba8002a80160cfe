// Package transcode prepares source images for transmission to the
// vision backend: size/format policy for the main payload and optional
// detail crops for model disambiguation.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MinSide is the smallest dimension the backend tiler accepts;
	// sub-minimum tiles make the inference engine panic.
	MinSide = 28
	// MaxSide caps the longer side of a resized payload to bound
	// request latency.
	MaxSide = 1024

	jpegQuality = 90
	cropMaxSide = 720
)

// Payload is a transmission-ready encoded image plus the format and size
// metadata used to produce it. Payloads are ephemeral: discarded after
// the network call.
type Payload struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// LoadImage decodes an image from disk, with an explicit WebP fallback
// for files the registered decoders reject.
func LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

func decodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// EncodeForModel converts a source image into a transmission payload.
//
// In high fidelity mode an image whose shorter side is already at least
// MinSide passes through untouched. Otherwise the image is resized:
// first the shorter side is raised to MinSide if below the floor, then
// the longer side is capped at MaxSide; the result is re-encoded as JPEG.
// Inspection or decode failures degrade to a thumbnail-and-encode path
// and finally to the raw file bytes. The only hard error is an
// unreadable file.
func EncodeForModel(path string, highFidelity bool) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fallbackEncode(data), nil
	}
	w, h := cfg.Width, cfg.Height
	shorter := min(w, h)
	longer := max(w, h)

	needUpscale := w > 0 && h > 0 && shorter < MinSide
	needDownscale := longer > MaxSide

	// Original bytes whenever the dimensions allow it: high fidelity
	// skips any downscale, and an in-bounds image never needs re-encoding.
	if (highFidelity && !needUpscale) || (!needUpscale && !needDownscale) {
		return Payload{Data: data, Format: format, Width: w, Height: h}, nil
	}

	img, err := decodeBytes(data)
	if err != nil {
		return fallbackEncode(data), nil
	}

	if needUpscale {
		// Scale by the limiting dimension, preserving aspect ratio.
		if w < h {
			img = imaging.Resize(img, MinSide, int(math.Round(float64(h)*MinSide/float64(w))), imaging.Lanczos)
		} else {
			img = imaging.Resize(img, int(math.Round(float64(w)*MinSide/float64(h))), MinSide, imaging.Lanczos)
		}
	}
	b := img.Bounds()
	if b.Dx() > MaxSide || b.Dy() > MaxSide {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, MaxSide, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, MaxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fallbackEncode(data), nil
	}
	b = img.Bounds()
	return Payload{Data: buf.Bytes(), Format: "jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fallbackEncode is the safe default path when dimension inspection
// fails: decode, enforce the size floor and cap, PNG-encode. If even that
// fails the raw bytes pass through unmodified as last resort.
func fallbackEncode(data []byte) Payload {
	img, err := decodeBytes(data)
	if err != nil {
		return Payload{Data: data}
	}
	b := img.Bounds()
	if min(b.Dx(), b.Dy()) < MinSide {
		if b.Dx() < b.Dy() {
			img = imaging.Resize(img, MinSide, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, MinSide, imaging.Lanczos)
		}
		b = img.Bounds()
	}
	if b.Dx() > MaxSide || b.Dy() > MaxSide {
		img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return Payload{Data: data}
	}
	b = img.Bounds()
	return Payload{Data: buf.Bytes(), Format: "png", Width: b.Dx(), Height: b.Dy()}
}

// Fractional crop boxes helpful for car model disambiguation: the
// central badge area and the lower rear/exhaust region.
var cropBoxes = []struct {
	x0, y0, x1, y1 float64
}{
	{0.28, 0.30, 0.72, 0.70},
	{0.18, 0.62, 0.82, 0.98},
}

// DetailCrops derives losslessly compressed sub-region payloads from the
// source image. Crops whose resulting dimension falls below MinSide are
// discarded; surviving crops are capped to cropMaxSide. Best-effort: any
// failure yields no entry for that region.
func DetailCrops(path string) []Payload {
	img, err := LoadImage(path)
	if err != nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	var crops []Payload
	for _, box := range cropBoxes {
		rect := image.Rect(int(box.x0*w), int(box.y0*h), int(box.x1*w), int(box.y1*h)).
			Add(bounds.Min).Intersect(bounds)
		if rect.Dx() < MinSide || rect.Dy() < MinSide {
			continue
		}
		crop := imaging.Crop(img, rect)
		cb := crop.Bounds()
		if cb.Dx() > cropMaxSide || cb.Dy() > cropMaxSide {
			crop = imaging.Fit(crop, cropMaxSide, cropMaxSide, imaging.Lanczos)
		}

		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, crop); err != nil {
			continue
		}
		cb = crop.Bounds()
		crops = append(crops, Payload{Data: buf.Bytes(), Format: "png", Width: cb.Dx(), Height: cb.Dy()})
	}
	return crops
}

// MimeType maps a payload format to the media type sent in data URLs.
func (p Payload) MimeType() string {
	switch strings.ToLower(p.Format) {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
