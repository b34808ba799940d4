// Package scriba extracts development application records from scanned
// council registers. It locates each record on the page by its anchor
// label, reads the fields around the anchor by position, and normalizes
// the address against street and suburb dictionaries.
//
// Basic usage:
//
//	dicts, err := address.LoadDictionaries("streets.csv", "suffixes.csv", "suburbs.csv")
//	if err != nil {
//	    // handle error
//	}
//	records, err := scriba.Open("register.pdf").
//	    WithDictionaries(dicts).
//	    WithRecognizer(recognizer).
//	    Records(ctx)
//
// Pages carrying native text are read directly; scanned pages fall back
// to segmentation and OCR when a recognizer is configured.
package scriba

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	_ "golang.org/x/image/tiff"

	"github.com/tsawler/scriba/address"
	"github.com/tsawler/scriba/assemble"
	"github.com/tsawler/scriba/extract"
	"github.com/tsawler/scriba/format"
	"github.com/tsawler/scriba/layout"
	"github.com/tsawler/scriba/model"
	"github.com/tsawler/scriba/ocr"
	"github.com/tsawler/scriba/source"
	"github.com/tsawler/scriba/store"
)

// Processor extracts records from one register document. Configure it
// with the With methods, then call a terminal operation.
type Processor struct {
	filename   string
	options    Options
	recognizer ocr.Recognizer
	normalizer *address.Normalizer
	logger     *slog.Logger
}

// Open prepares a processor for the register document at filename.
func Open(filename string) *Processor {
	return &Processor{
		filename: filename,
		options:  DefaultOptions(),
		logger:   slog.Default(),
	}
}

// WithDictionaries sets the address dictionaries. Required before calling
// a terminal operation.
func (p *Processor) WithDictionaries(dicts *address.Dictionaries) *Processor {
	p.normalizer = address.NewNormalizer(dicts)
	return p
}

// WithRecognizer sets the OCR recognizer used for pages without native
// text. Without one, scanned pages are skipped.
func (p *Processor) WithRecognizer(r ocr.Recognizer) *Processor {
	p.recognizer = r
	return p
}

// WithLogger sets the logger. Defaults to slog.Default.
func (p *Processor) WithLogger(logger *slog.Logger) *Processor {
	p.logger = logger
	return p
}

// WithOptions replaces the processing configuration.
func (p *Processor) WithOptions(opts Options) *Processor {
	if opts.Now == nil {
		opts.Now = DefaultOptions().Now
	}
	p.options = opts
	return p
}

// InfoURL sets the source URL recorded on every extracted record.
func (p *Processor) InfoURL(u string) *Processor {
	p.options.InfoURL = u
	return p
}

// CommentURL sets the comment URL recorded on every extracted record.
func (p *Processor) CommentURL(u string) *Processor {
	p.options.CommentURL = u
	return p
}

// Records processes every page and returns the extracted records.
// Rejected records are logged and skipped; a page whose text cannot be
// obtained at all is logged and skipped too. The error reports failures
// that prevent processing entirely, such as an unreadable document or
// missing dictionaries.
func (p *Processor) Records(ctx context.Context) ([]store.Record, error) {
	if p.normalizer == nil {
		return nil, errors.New("scriba: no address dictionaries configured")
	}

	ft, err := detectFormat(p.filename)
	if err != nil {
		return nil, err
	}
	if ft.IsImage() {
		return p.imageRecords(ctx)
	}
	if ft != format.PDF {
		return nil, fmt.Errorf("scriba: unsupported document format %s", ft)
	}

	native, nativeErr := source.OpenNative(p.filename)
	if nativeErr != nil {
		p.logger.Warn("native text unavailable", "file", p.filename, "error", nativeErr)
	} else {
		defer native.Close()
	}

	poppler := source.NewPopplerSource(p.filename, p.options.DPI)
	defer poppler.Close()

	pageCount, err := p.pageCount(ctx, native, poppler)
	if err != nil {
		return nil, fmt.Errorf("scriba: page count of %s: %w", p.filename, err)
	}

	var records []store.Record
	for page := 1; page <= pageCount; page++ {
		fragments, err := p.pageFragments(ctx, native, poppler, page)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			p.logger.Error("page skipped", "file", p.filename, "page", page, "error", err)
			continue
		}
		records = append(records, p.extractPage(fragments, page)...)
	}
	return records, nil
}

// SaveTo runs Records and upserts the results, returning the number of
// records stored.
func (p *Processor) SaveTo(ctx context.Context, st *store.Store) (int, error) {
	records, err := p.Records(ctx)
	if err != nil {
		return 0, err
	}
	saved := 0
	for _, rec := range records {
		if err := st.Upsert(ctx, rec); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// detectFormat sniffs the file's magic bytes, falling back to the
// extension for files too short to sniff.
func detectFormat(filename string) (format.Format, error) {
	f, err := os.Open(filename)
	if err != nil {
		return format.Unknown, fmt.Errorf("scriba: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return format.Unknown, fmt.Errorf("scriba: read %s: %w", filename, err)
	}
	if ft := format.DetectFromMagic(head[:n]); ft != format.Unknown {
		return ft, nil
	}
	return format.Detect(filename), nil
}

// imageRecords handles registers published as a single scanned image
// rather than a PDF.
func (p *Processor) imageRecords(ctx context.Context) ([]store.Record, error) {
	if p.recognizer == nil {
		return nil, errors.New("scriba: image document requires a recognizer")
	}

	f, err := os.Open(p.filename)
	if err != nil {
		return nil, fmt.Errorf("scriba: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scriba: decode %s: %w", p.filename, err)
	}

	assembler := assemble.New(p.recognizer, p.options.Segment, p.logger)
	fragments, err := assembler.Fragments(ctx, []source.PageImage{
		{Image: img, Transform: model.Identity()},
	})
	if err != nil {
		return nil, err
	}
	return p.extractPage(fragments, 1), nil
}

func (p *Processor) pageCount(ctx context.Context, native *source.NativeSource, poppler *source.PopplerSource) (int, error) {
	if native != nil {
		if n, err := native.PageCount(ctx); err == nil {
			return n, nil
		}
	}
	return poppler.PageCount(ctx)
}

// pageFragments returns the page's text, preferring the native layer and
// falling back to rasterization plus OCR.
func (p *Processor) pageFragments(ctx context.Context, native *source.NativeSource, poppler *source.PopplerSource, page int) ([]model.TextFragment, error) {
	if native != nil {
		fragments, err := native.PageText(ctx, page)
		if err == nil && len(fragments) > 0 {
			return fragments, nil
		}
		if err != nil && !errors.Is(err, source.ErrNoNativeText) {
			p.logger.Warn("native text read failed", "page", page, "error", err)
		}
	}

	if p.recognizer == nil {
		return nil, errors.New("no native text and no recognizer configured")
	}

	images, err := poppler.PageImages(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("rasterize page: %w", err)
	}
	assembler := assemble.New(p.recognizer, p.options.Segment, p.logger)
	return assembler.Fragments(ctx, images)
}

// extractPage groups the page's fragments by anchor and extracts one
// record per group, logging and skipping rejections.
func (p *Processor) extractPage(fragments []model.TextFragment, page int) []store.Record {
	extractor := extract.New(p.options.Extract, p.normalizer)
	groups := layout.Groups(fragments, p.options.Anchor)

	var records []store.Record
	for _, group := range groups {
		rec, err := extractor.Extract(group)
		if err != nil {
			p.logger.Info("record skipped", "file", p.filename, "page", page, "reason", err)
			continue
		}
		records = append(records, store.Record{
			CouncilReference: rec.ApplicationNumber,
			Address:          rec.Address,
			Description:      rec.Description,
			InfoURL:          p.options.InfoURL,
			CommentURL:       p.options.CommentURL,
			DateScraped:      p.options.Now().Format("2006-01-02"),
			DateReceived:     rec.ReceivedDate,
		})
	}

	p.logger.Info("page processed", "file", p.filename, "page", page,
		"fragments", len(fragments), "anchors", len(groups), "records", len(records))
	return records
}
