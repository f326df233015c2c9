// Package ocr recovers text from image-only PDF pages by rasterizing them
// with pdftoppm and recognising them with tesseract.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Page is the recognised text of one 1-based PDF page. Err is set when that
// page alone could not be recognised.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Err    string `json:"error,omitempty"`
}

// Engine is an optional capability; callers check Available once and skip
// OCR entirely when it reports false.
type Engine interface {
	Available() bool
	// Recognize runs OCR over the given pages, or the whole document when
	// pages is nil. Results are ordered by page number.
	Recognize(ctx context.Context, pdf []byte, pages []int) ([]Page, error)
}

type Config struct {
	Enabled     bool
	Pdftoppm    string
	Tesseract   string
	Lang        string
	DPI         int
	PSM         int
	Concurrency int
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 144
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type Tesseract struct {
	cfg       Config
	runner    Runner
	available bool
}

// NewTesseract probes both binaries once; a missing binary or a disabled
// config leaves the engine unavailable.
func NewTesseract(cfg Config) *Tesseract {
	cfg.defaults()
	t := &Tesseract{cfg: cfg, runner: execRunner{logger: cfg.Logger}}
	if !cfg.Enabled {
		return t
	}
	for _, bin := range []string{cfg.Pdftoppm, cfg.Tesseract} {
		if _, err := exec.LookPath(bin); err != nil {
			cfg.Logger.Warn("ocr.unavailable", "binary", bin, "error", err)
			return t
		}
	}
	t.available = true
	return t
}

func (t *Tesseract) Available() bool { return t.available }

func (t *Tesseract) Recognize(ctx context.Context, pdf []byte, pages []int) ([]Page, error) {
	if !t.available {
		return nil, fmt.Errorf("ocr engine unavailable")
	}
	dir, err := os.MkdirTemp("", "unveil-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create ocr workdir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			t.cfg.Logger.Warn("ocr.cleanup.failed", "dir", dir, "error", err)
		}
	}()
	in := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write ocr input: %w", err)
	}

	images, err := t.render(ctx, in, dir, pages)
	if err != nil {
		return nil, err
	}
	t.cfg.Logger.Info("ocr.run", "pages", len(images), "requested", len(pages))

	out := make([]Page, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			out[i] = Page{Number: img.page}
			text, err := t.recognizeImage(gctx, img.path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				out[i].Err = err.Error()
				return nil
			}
			out[i].Text = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type pageImage struct {
	page int
	path string
}

func (t *Tesseract) render(ctx context.Context, in, dir string, pages []int) ([]pageImage, error) {
	dpi := strconv.Itoa(t.cfg.DPI)
	if pages == nil {
		prefix := filepath.Join(dir, "page")
		if _, errb, err := t.runner.Run(ctx, t.cfg.Pdftoppm, "-r", dpi, "-png", in, prefix); err != nil {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
		}
		return collectImages(prefix)
	}

	images := make([]pageImage, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)
	for i, p := range pages {
		g.Go(func() error {
			n := strconv.Itoa(p)
			prefix := filepath.Join(dir, "page-"+n)
			if _, errb, err := t.runner.Run(gctx, t.cfg.Pdftoppm, "-r", dpi, "-png", "-f", n, "-l", n, "-singlefile", in, prefix); err != nil {
				return fmt.Errorf("pdftoppm page %d: %w: %s", p, err, truncate(string(errb), 512))
			}
			images[i] = pageImage{page: p, path: prefix + ".png"}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(images, func(a, b int) bool { return images[a].page < images[b].page })
	return images, nil
}

// collectImages maps pdftoppm's prefix-N.png (possibly zero padded) output
// back to page numbers.
func collectImages(prefix string) ([]pageImage, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}
	images := make([]pageImage, 0, len(matches))
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".png")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		images = append(images, pageImage{page: n, path: m})
	}
	sort.Slice(images, func(a, b int) bool { return images[a].page < images[b].page })
	return images, nil
}

func (t *Tesseract) recognizeImage(ctx context.Context, path string) (string, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, path, "stdout", "-l", t.cfg.Lang, "--psm", strconv.Itoa(t.cfg.PSM))
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// Noop is the engine used when OCR is switched off.
type Noop struct{}

func (Noop) Available() bool { return false }

func (Noop) Recognize(context.Context, []byte, []int) ([]Page, error) {
	return nil, nil
}
