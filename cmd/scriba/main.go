// Command scriba scrapes development application registers: it discovers
// register PDFs on a council listing page (or takes local files),
// extracts application records from them, and saves the records to a
// SQLite database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tsawler/scriba"
	"github.com/tsawler/scriba/address"
	"github.com/tsawler/scriba/fetch"
	"github.com/tsawler/scriba/internal/config"
	"github.com/tsawler/scriba/ocr"
	"github.com/tsawler/scriba/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scriba:", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional; environment variables win over the .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dicts, err := address.LoadDictionaries(cfg.StreetsPath, cfg.SuffixesPath, cfg.SuburbsPath)
	if err != nil {
		return fmt.Errorf("load dictionaries: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var recognizer ocr.Recognizer
	if client, err := ocr.New(); err != nil {
		logger.Warn("ocr unavailable, native text only", "error", err)
	} else {
		defer client.Close()
		if err := client.SetLanguage(strings.Split(cfg.OCRLanguages, ",")...); err != nil {
			return fmt.Errorf("set ocr languages: %w", err)
		}
		recognizer = client
	}

	documents, cleanup, err := resolveDocuments(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := scriba.DefaultOptions()
	opts.DPI = cfg.DPI

	total := 0
	for _, doc := range documents {
		proc := scriba.Open(doc.path).
			WithOptions(opts).
			WithDictionaries(dicts).
			WithLogger(logger).
			InfoURL(doc.infoURL).
			CommentURL(cfg.CommentURL)
		if recognizer != nil {
			proc = proc.WithRecognizer(recognizer)
		}

		saved, err := proc.SaveTo(ctx, st)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("document failed", "document", doc.path, "error", err)
			continue
		}
		logger.Info("document done", "document", doc.path, "records", saved)
		total += saved
	}

	logger.Info("scrape complete", "documents", len(documents), "records", total)
	return nil
}

type document struct {
	path    string
	infoURL string
}

// resolveDocuments returns the register files to process: downloads from
// the listing page when one is configured, local paths otherwise.
func resolveDocuments(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]document, func(), error) {
	if cfg.ListingURL == "" {
		docs := make([]document, len(cfg.Documents))
		for i, path := range cfg.Documents {
			docs[i] = document{path: path, infoURL: cfg.InfoURL}
		}
		return docs, func() {}, nil
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Timeout = cfg.HTTPTimeout
	fetchCfg.RequestsPerMinute = cfg.RequestsPerMinute
	client := fetch.NewClient(fetchCfg, logger)

	links, err := client.DocumentLinks(ctx, cfg.ListingURL)
	if err != nil {
		return nil, nil, err
	}

	dir, err := os.MkdirTemp("", "scriba-")
	if err != nil {
		return nil, nil, fmt.Errorf("create download dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	var docs []document
	for _, link := range links {
		path, err := client.Download(ctx, link, dir)
		if err != nil {
			if ctx.Err() != nil {
				cleanup()
				return nil, nil, ctx.Err()
			}
			logger.Error("download failed", "url", link, "error", err)
			continue
		}
		docs = append(docs, document{path: path, infoURL: link})
	}
	return docs, cleanup, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
