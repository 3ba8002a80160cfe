// Package batch processes directories of car photos, one image at a
// time, with cooperative cancellation between images.
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"car-identifier/internal/utils"
	"car-identifier/pkg/identify"
	"car-identifier/pkg/metadata"
	"car-identifier/pkg/types"
)

// MetadataStore is the subset of the embedder the runner needs. It is
// an interface so runs without a working exiftool can pass nil.
type MetadataStore interface {
	Write(path string, rec types.Record) (metadata.WriteResult, error)
	Read(path string) (*types.Record, error)
}

// Policy decides what happens when an image already carries
// identification metadata.
type Policy string

const (
	PolicySkip      Policy = "skip"
	PolicyOverwrite Policy = "overwrite"
	// PolicyAsk behaves like PolicySkip in unattended runs; there is
	// nobody to answer the prompt.
	PolicyAsk Policy = "ask"
)

// ParsePolicy validates a policy string from config or flags.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySkip:
		return PolicySkip, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyAsk:
		return PolicyAsk, nil
	default:
		return "", fmt.Errorf("unknown existing-metadata policy %q", s)
	}
}

// Options configures a batch run.
type Options struct {
	Recursive bool
	Existing  Policy
	Embed     bool
	// Progress, when set, is called after each file is handled with the
	// 1-based position, the total count, and the file's path.
	Progress func(done, total int, path string)
}

// Snapshot records the most recent successful identification so the
// caller can show progress or recover after an interrupt.
type Snapshot struct {
	Path    string
	Result  identify.Result
	RawText string
	When    time.Time
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Runner walks a directory and identifies each image in turn.
type Runner struct {
	ident *identify.Identifier
	meta  MetadataStore // nil disables embedding and skip checks
	opts  Options
	log   zerolog.Logger

	cancelled atomic.Bool

	mu   sync.Mutex
	last *Snapshot
}

// NewRunner creates a Runner. meta may be nil when exiftool is not
// available; embedding and existing-metadata checks are then disabled.
func NewRunner(ident *identify.Identifier, meta MetadataStore, opts Options, log zerolog.Logger) *Runner {
	return &Runner{
		ident: ident,
		meta:  meta,
		opts:  opts,
		log:   log.With().Str("component", "batch").Logger(),
	}
}

// Cancel stops the run after the image currently being processed.
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

// Last returns the most recent snapshot, or nil before the first
// successful identification.
func (r *Runner) Last() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// ProcessOne identifies a single image and, when enabled, embeds the
// result. A partial embed (one metadata group written) is logged but
// still counts as success.
func (r *Runner) ProcessOne(ctx context.Context, path string) (identify.Result, error) {
	res, err := r.ident.Identify(ctx, path)
	if err != nil {
		return identify.Result{}, err
	}

	r.mu.Lock()
	r.last = &Snapshot{Path: path, Result: res, RawText: res.RawText, When: time.Now()}
	r.mu.Unlock()

	if r.opts.Embed && r.meta != nil && utils.IsEmbeddable(path) {
		wres, werr := r.meta.Write(path, res.Record)
		if werr != nil {
			r.log.Warn().Err(werr).Str("path", path).Msg("metadata embedding failed")
		} else if !wres.Comment || !wres.Tags {
			r.log.Warn().
				Str("path", path).
				Bool("comment", wres.Comment).
				Bool("tags", wres.Tags).
				Msg("metadata only partially embedded")
		}
	}
	return res, nil
}

// Run identifies every image under dir, honoring the existing-metadata
// policy and cooperative cancellation. Per-image failures are counted
// and logged; only listing errors abort the run.
func (r *Runner) Run(ctx context.Context, dir string) (Summary, error) {
	files, err := utils.ListImageFiles(dir, r.opts.Recursive)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list images in %s: %w", dir, err)
	}
	r.log.Info().Str("dir", dir).Int("count", len(files)).Msg("starting batch")

	var sum Summary
	for i, path := range files {
		if r.cancelled.Load() || ctx.Err() != nil {
			r.log.Info().Msg("batch cancelled")
			break
		}
		switch {
		case r.shouldSkip(path):
			r.log.Debug().Str("path", path).Msg("existing metadata, skipping")
			sum.Skipped++
		default:
			res, perr := r.ProcessOne(ctx, path)
			if perr != nil {
				sum.Failed++
				r.log.Error().Err(perr).Str("path", path).Msg("identification failed")
				break
			}
			sum.Processed++
			r.log.Info().
				Str("path", path).
				Str("make", res.Record.Make).
				Str("model", res.Record.Model).
				Int("attempts", res.Attempts).
				Msg("image identified")
		}
		if r.opts.Progress != nil {
			r.opts.Progress(i+1, len(files), path)
		}
	}
	return sum, nil
}

// shouldSkip applies the existing-metadata policy to one file.
func (r *Runner) shouldSkip(path string) bool {
	if r.opts.Existing == PolicyOverwrite || r.meta == nil || !utils.IsEmbeddable(path) {
		return false
	}
	rec, err := r.meta.Read(path)
	if err != nil {
		r.log.Debug().Err(err).Str("path", path).Msg("metadata read failed, processing anyway")
		return false
	}
	return rec != nil
}
