// Package identify drives a vision model through an escalating series
// of prompts until a usable car identification record is produced.
package identify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/rs/zerolog"

	"car-identifier/pkg/client"
	"car-identifier/pkg/parse"
	"car-identifier/pkg/transcode"
	"car-identifier/pkg/types"
)

// State names a step in the identification cascade.
type State int

const (
	StateSimple State = iota
	StateEnhanced
	StateRepair
	StateStrictJSON
	StateVerify
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSimple:
		return "SIMPLE"
	case StateEnhanced:
		return "ENHANCED"
	case StateRepair:
		return "REPAIR"
	case StateStrictJSON:
		return "STRICT_JSON"
	case StateVerify:
		return "VERIFY"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of one full cascade over a single image.
type Result struct {
	Record   types.Record
	RawText  string
	Attempts int
}

// Identifier runs the cascade against a configured backend and model.
type Identifier struct {
	client client.VisionClient
	model  string
	prefs  types.Prefs
	log    zerolog.Logger
}

// New creates an Identifier. The preferences select the entry path and
// whether a verification pass runs at the end.
func New(c client.VisionClient, model string, prefs types.Prefs, log zerolog.Logger) *Identifier {
	return &Identifier{
		client: c,
		model:  model,
		prefs:  prefs,
		log:    log.With().Str("component", "identify").Logger(),
	}
}

// run carries the mutable state of a single cascade.
type run struct {
	payload  transcode.Payload
	attempts int
	calls    int // successful model calls
	lastErr  error
	record   types.Record
	rawText  string

	simpleTried   bool
	enhancedTried bool
	repairTried   bool
	verified      bool
}

// Identify transcodes the image at path and walks the cascade until a
// terminal state is reached. A non-nil error means no model call ever
// returned text.
func (id *Identifier) Identify(ctx context.Context, path string) (Result, error) {
	payload, err := transcode.EncodeForModel(path, id.prefs.HighFidelity)
	if err != nil {
		return Result{}, fmt.Errorf("failed to prepare image: %w", err)
	}
	id.log.Debug().
		Str("path", path).
		Str("format", payload.Format).
		Int("width", payload.Width).
		Int("height", payload.Height).
		Msg("image prepared")

	r := &run{payload: payload}

	state := StateSimple
	if id.prefs.Enhanced {
		state = StateEnhanced
	}
	for state != StateDone && state != StateFailed {
		id.log.Debug().Str("state", state.String()).Int("attempts", r.attempts).Msg("cascade step")
		switch state {
		case StateSimple:
			state = id.stepSimple(ctx, r)
		case StateEnhanced:
			state = id.stepEnhanced(ctx, path, r)
		case StateRepair:
			state = id.stepRepair(ctx, r)
		case StateStrictJSON:
			state = id.stepStrictJSON(ctx, r)
		case StateVerify:
			state = id.stepVerify(ctx, r)
		}
	}

	if state == StateFailed {
		return Result{Attempts: r.attempts}, fmt.Errorf("all inference attempts failed: %w", r.lastErr)
	}

	r.record = parse.Complete(r.record)
	return Result{Record: r.record, RawText: r.rawText, Attempts: r.attempts}, nil
}

// chat issues one model call and keeps the attempt/error bookkeeping in
// one place.
func (id *Identifier) chat(ctx context.Context, r *run, prompt string, images [][]byte) (string, error) {
	r.attempts++
	text, err := id.client.Chat(ctx, id.model, prompt, images)
	if err != nil {
		r.lastErr = err
		id.log.Warn().Err(err).Int("attempt", r.attempts).Msg("model call failed")
		return "", err
	}
	r.calls++
	return text, nil
}

func (id *Identifier) stepSimple(ctx context.Context, r *run) State {
	r.simpleTried = true
	text, err := id.chat(ctx, r, SimplePrompt, [][]byte{r.payload.Data})
	if err != nil {
		if !r.enhancedTried {
			return StateEnhanced
		}
		return id.finish(r)
	}
	r.rawText = text
	r.record = parse.Lines(text)
	if parse.MostlyUnknown(r.record) {
		// The simple prompt occasionally returns JSON anyway.
		if rec := parse.Preferred(text); !parse.MostlyUnknown(rec) {
			r.record = rec
			return id.finish(r)
		}
		if !r.enhancedTried {
			return StateEnhanced
		}
		if !r.repairTried {
			return StateRepair
		}
		return id.finish(r)
	}
	return id.finish(r)
}

func (id *Identifier) stepEnhanced(ctx context.Context, path string, r *run) State {
	r.enhancedTried = true
	images := [][]byte{r.payload.Data}
	if crops := transcode.DetailCrops(path); len(crops) > 0 {
		images = append(images, crops[0].Data)
	}
	text, err := id.chat(ctx, r, PersonaPrompt, images)
	if err != nil && len(images) > 1 {
		// Some backends reject multi-image requests outright.
		text, err = id.chat(ctx, r, PersonaPrompt, images[:1])
	}
	if err != nil {
		if !r.simpleTried {
			return StateSimple
		}
		return id.finish(r)
	}
	r.rawText = text
	r.record = parse.Preferred(text)
	if parse.MostlyUnknown(r.record) {
		return StateRepair
	}
	return id.finish(r)
}

func (id *Identifier) stepRepair(ctx context.Context, r *run) State {
	r.repairTried = true
	text, err := id.chat(ctx, r, RepairPrompt, [][]byte{r.payload.Data})
	if err != nil {
		return StateStrictJSON
	}
	rec := parse.Lines(text)
	mergeNonUnknown(&r.record, rec)
	if parse.MostlyUnknown(r.record) {
		return StateStrictJSON
	}
	return id.finish(r)
}

func (id *Identifier) stepStrictJSON(ctx context.Context, r *run) State {
	text, err := id.chat(ctx, r, StrictJSONPrompt, [][]byte{r.payload.Data})
	if err == nil {
		r.rawText = text
		r.record = parse.Preferred(text)
		if !parse.MostlyUnknown(r.record) {
			return id.finish(r)
		}
	}
	if !r.simpleTried {
		return StateSimple
	}
	return id.finish(r)
}

func (id *Identifier) stepVerify(ctx context.Context, r *run) State {
	prompt := verifyPrompt + r.record.Format()
	text, err := id.chat(ctx, r, prompt, [][]byte{r.payload.Data})
	if err != nil || strings.TrimSpace(text) == "" {
		return StateDone
	}
	r.rawText = text
	r.record = parse.Lines(text)
	return StateDone
}

// finish decides the terminal state once the main cascade is exhausted.
// The verification pass runs at most once and never reopens the cascade.
func (id *Identifier) finish(r *run) State {
	if r.calls == 0 {
		return StateFailed
	}
	if id.prefs.Verify && !r.verified {
		r.verified = true
		return StateVerify
	}
	return StateDone
}

// mergeNonUnknown copies over fields from src that carry real values,
// keeping dst fields that were already filled in.
func mergeNonUnknown(dst *types.Record, src types.Record) {
	for _, key := range types.Keys {
		v := strings.TrimSpace(src.Get(key))
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		cur := strings.TrimSpace(dst.Get(key))
		if cur == "" || strings.EqualFold(cur, "unknown") {
			dst.Set(key, v)
		}
	}
}

// Warmup sends a tiny synthetic image so the backend loads the model
// weights before the first real request.
func Warmup(ctx context.Context, c client.VisionClient, model string, log zerolog.Logger) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	if _, err := c.Chat(ctx, model, "warmup", [][]byte{buf.Bytes()}); err != nil {
		log.Debug().Err(err).Msg("warmup request failed")
		return
	}
	log.Debug().Str("model", model).Msg("model warmed up")
}

// visionHints are substrings that mark a model name as vision-capable.
var visionHints = []string{
	"vl", "vision", "llava", "bakllava", "pixtral",
	"moondream", "minicpm", "qwen2-vl", "qwen2.5vl",
}

// PickVisionModel returns the first model whose name suggests vision
// support, or an empty string when none match.
func PickVisionModel(names []string) string {
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, hint := range visionHints {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return ""
}
