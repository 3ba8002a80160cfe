package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"car-identifier/internal/config"
	"car-identifier/internal/utils"
	"car-identifier/pkg/batch"
	"car-identifier/pkg/client"
	"car-identifier/pkg/identify"
	"car-identifier/pkg/metadata"
	"car-identifier/pkg/ollama"
	"car-identifier/pkg/openaicompat"
)

func main() {
	// The config file seeds the flag defaults, so its path has to be
	// known before flag.Parse runs.
	cfgPath := configPathFromArgs(os.Args[1:])

	cfg := config.Default()
	if utils.FileExists(cfgPath) {
		if loaded, err := config.LoadFromFile(cfgPath); err == nil {
			cfg = loaded
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring config file: %v\n", err)
		}
	}

	var (
		_          = flag.String("config", config.GetConfigPath(), "Path to the config file")
		inPath     = flag.String("in", "", "Path to a single image to identify")
		dirPath    = flag.String("dir", "", "Directory of images to process")
		backend    = flag.String("backend", cfg.Backend, "Inference backend: ollama or openai")
		serverURL  = flag.String("url", cfg.ServerURL, "Inference server URL")
		model      = flag.String("model", cfg.Model, "Vision model name")
		listModels = flag.Bool("list-models", false, "List models available on the server and exit")
		pickModel  = flag.Bool("pick-model", false, "Pick the first vision-capable model on the server")
		fidelity   = flag.String("fidelity", fidelityName(cfg.HighFidelity), "Image fidelity: high or low")
		enhanced   = flag.Bool("enhanced", cfg.Enhanced, "Start with the detailed analysis prompt and crops")
		verify     = flag.Bool("verify", cfg.Verify, "Run a second verification pass")
		embed      = flag.Bool("embed", cfg.Embed, "Embed results into JPEG metadata")
		existing   = flag.String("existing", cfg.Existing, "Existing metadata policy: skip, overwrite, or ask")
		recursive  = flag.Bool("recursive", cfg.Recursive, "Recurse into subdirectories")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	highFidelity, err := parseFidelity(*fidelity)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}
	policy, err := batch.ParsePolicy(*existing)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vc, err := newBackend(*backend, *serverURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up backend")
	}

	if *listModels || *pickModel {
		names, err := vc.ListModels(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list models")
		}
		if *pickModel {
			picked := identify.PickVisionModel(names)
			if picked == "" {
				log.Fatal().Msg("no vision-capable model found on the server")
			}
			fmt.Println(picked)
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	if *inPath == "" && *dirPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	prefs := cfg.Prefs()
	prefs.HighFidelity = highFidelity
	prefs.Enhanced = *enhanced
	prefs.Verify = *verify

	go identify.Warmup(ctx, vc, *model, log)

	var embedder *metadata.Embedder
	if *embed {
		embedder, err = metadata.NewEmbedder(log)
		if err != nil {
			log.Warn().Err(err).Msg("exiftool unavailable, metadata embedding disabled")
			embedder = nil
		} else {
			defer embedder.Close()
		}
	}

	var store batch.MetadataStore
	if embedder != nil {
		store = embedder
	}

	ident := identify.New(vc, *model, prefs, log)
	runner := batch.NewRunner(ident, store, batch.Options{
		Recursive: *recursive,
		Existing:  policy,
		Embed:     *embed && embedder != nil,
		Progress: func(done, total int, path string) {
			log.Info().Int("done", done).Int("total", total).Str("path", path).Msg("progress")
		},
	}, log)

	go func() {
		<-ctx.Done()
		runner.Cancel()
	}()

	if *inPath != "" {
		res, err := runner.ProcessOne(ctx, *inPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *inPath).Msg("identification failed")
		}
		fmt.Println(res.Record.Format())
		if *verbose {
			fmt.Println("\nRaw model output:")
			fmt.Println(res.RawText)
		}
		return
	}

	sum, err := runner.Run(ctx, *dirPath)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dirPath).Msg("batch run failed")
	}
	log.Info().
		Int("processed", sum.Processed).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("batch complete")
	if sum.Failed > 0 && sum.Processed == 0 {
		os.Exit(1)
	}
}

func newBackend(name, url string) (client.VisionClient, error) {
	switch name {
	case "ollama":
		return ollama.NewClient(url, client.DefaultOptions())
	case "openai":
		o := client.DefaultOptions()
		return openaicompat.NewClient(url, openaicompat.Options{
			Temperature: o.Temperature,
			TopP:        o.TopP,
			MaxTokens:   o.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q (want ollama or openai)", name)
	}
}

func parseFidelity(s string) (bool, error) {
	switch s {
	case "high":
		return true, nil
	case "low":
		return false, nil
	default:
		return false, fmt.Errorf("unknown fidelity %q (want high or low)", s)
	}
}

func fidelityName(high bool) string {
	if high {
		return "high"
	}
	return "low"
}

// configPathFromArgs pre-scans the arguments for -config so the file
// can be loaded before the flag set is parsed.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return config.GetConfigPath()
}
