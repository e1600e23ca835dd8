package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/DisTuneJS/plugins/config"
	"github.com/DisTuneJS/plugins/internal/bandcamp"
	"github.com/DisTuneJS/plugins/internal/directlink"
	"github.com/DisTuneJS/plugins/internal/extractor"
	"github.com/DisTuneJS/plugins/internal/ytdlp"
)

func main() {
	resolveURL := flag.String("url", "", "URL to resolve into track/album metadata")
	query := flag.String("query", "", "free-text search query (bandcamp)")
	albums := flag.Bool("albums", false, "search albums instead of tracks")
	limit := flag.Int("limit", 0, "maximum search results")
	configPath := flag.String("config", "", "path to a YAML config file (optional)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *resolveURL == "" && *query == "" {
		log.Fatal("Missing required flag: -url or -query")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if *limit <= 0 {
		*limit = cfg.Search.DefaultLimit
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	bc := bandcamp.New(cfg)
	registry := extractor.NewRegistry(bc, directlink.New(cfg), ytdlp.New(cfg))

	ctx := context.Background()

	if *resolveURL != "" {
		result, err := registry.Resolve(ctx, *resolveURL)
		if err != nil {
			log.Fatal(err)
		}
		if result.Track != nil {
			printJSON(result.Track)
		} else {
			printJSON(result.Album)
		}
		return
	}

	bar := progressbar.NewOptions(
		*limit,
		progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
		progressbar.OptionEnableColorCodes(true),
		// progressbar.ThemeASCII, inlined: the predefined theme requires
		// progressbar >= v3.16, which needs a newer Go toolchain.
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Fetching results..."),
	)
	bc.SearchProgress = func(done, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(done)
	}

	if *albums {
		results, err := bc.SearchAlbums(ctx, *query, *limit)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(results)
		return
	}

	results, err := bc.SearchTracks(ctx, *query, *limit)
	if err != nil {
		log.Fatal(err)
	}
	printJSON(results)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
