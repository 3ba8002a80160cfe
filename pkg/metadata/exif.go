package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/rs/zerolog"

	"car-identifier/pkg/types"
)

// Embedder writes identification results into image files via a
// long-lived exiftool process.
type Embedder struct {
	et  *exiftool.Exiftool
	log zerolog.Logger
}

// NewEmbedder starts the exiftool process. The caller must Close it.
func NewEmbedder(log zerolog.Logger) (*Embedder, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &Embedder{et: et, log: log.With().Str("component", "metadata").Logger()}, nil
}

// Close shuts down the exiftool process.
func (e *Embedder) Close() error {
	return e.et.Close()
}

// WriteResult reports which metadata groups were embedded.
type WriteResult struct {
	Comment bool // EXIF UserComment with the record JSON
	Tags    bool // IPTC keywords, caption, and object name
}

// Embedded reports whether at least one group was written.
func (r WriteResult) Embedded() bool {
	return r.Comment || r.Tags
}

// Write embeds the record into the JPEG at path. The two metadata
// groups are written independently so a failing IPTC pass does not
// lose the UserComment, and vice versa. An error is returned only when
// neither group could be written.
func (e *Embedder) Write(path string, rec types.Record) (WriteResult, error) {
	if !isJPEG(path) {
		return WriteResult{}, fmt.Errorf("metadata embedding supports JPEG only: %s", filepath.Base(path))
	}
	cleaned := CleanRecord(rec)
	fields := Build(cleaned)

	var res WriteResult
	var firstErr error

	payload, err := json.Marshal(cleaned)
	if err == nil {
		if werr := e.writePass(path, func(fm *exiftool.FileMetadata) {
			fm.SetString("UserComment", string(payload))
		}); werr == nil {
			res.Comment = true
		} else {
			firstErr = werr
			e.log.Warn().Err(werr).Str("path", path).Msg("failed to write user comment")
		}
	}

	if werr := e.writePass(path, func(fm *exiftool.FileMetadata) {
		fm.SetStrings("Keywords", fields.Keywords)
		fm.SetString("Caption-Abstract", fields.Description)
		fm.SetString("ObjectName", fields.Title)
	}); werr == nil {
		res.Tags = true
	} else {
		if firstErr == nil {
			firstErr = werr
		}
		e.log.Warn().Err(werr).Str("path", path).Msg("failed to write keyword tags")
	}

	if !res.Embedded() {
		return res, fmt.Errorf("no metadata embedded: %w", firstErr)
	}
	return res, nil
}

// writePass extracts the file's metadata, applies set, and writes it
// back, surfacing per-file exiftool errors.
func (e *Embedder) writePass(path string, set func(*exiftool.FileMetadata)) error {
	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	if metas[0].Err != nil {
		return metas[0].Err
	}
	set(&metas[0])
	e.et.WriteMetadata(metas)
	if metas[0].Err != nil {
		return metas[0].Err
	}
	return nil
}

// Read recovers a previously embedded record from the file at path.
// It returns nil when no identification metadata is present.
func (e *Embedder) Read(path string) (*types.Record, error) {
	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	if metas[0].Err != nil {
		return nil, metas[0].Err
	}

	if raw, err := metas[0].GetString("UserComment"); err == nil {
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "{") {
			var rec types.Record
			if jerr := json.Unmarshal([]byte(raw), &rec); jerr == nil && !rec.IsZero() {
				return &rec, nil
			}
		}
	}

	// Older writes used flat XMP tags.
	var rec types.Record
	xmpTags := map[string]string{
		"CarMake":          types.KeyMake,
		"CarModel":         types.KeyModel,
		"CarColor":         types.KeyColor,
		"LicensePlate":     types.KeyPlate,
		"AIInterpretation": types.KeySummary,
	}
	for tag, key := range xmpTags {
		if v, err := metas[0].GetString(tag); err == nil && strings.TrimSpace(v) != "" {
			rec.Set(key, strings.TrimSpace(v))
		}
	}
	if rec.IsZero() {
		return nil, nil
	}
	return &rec, nil
}

func isJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
