// Package convert rasterizes PDF manuals into page images plus a task descriptor.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/async"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

type Config struct {
	OutputRoot string // one sub-folder per PDF is created here
	BaseURL    string // public URL of OutputRoot, e.g. http://host.docker.internal:9900/images
	DPI        int    // default 200
	Pdftoppm   string // binary name or absolute path; if empty -> "pdftoppm"
	KeepSource bool   // copy the PDF into its folder instead of moving it
}

// Result describes one converted PDF.
type Result struct {
	Name          string
	Dir           string
	TaskFile      string
	Pages         []string // public page URLs in page order
	ExpectedPages int      // from the PDF structure, 0 if unknown
}

type Converter struct {
	cfg       Config
	runner    Runner
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

type Option func(*Converter)

// WithRunner replaces the exec runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(c *Converter) {
		if r != nil {
			c.runner = r
		}
	}
}

func NewConverter(cfg Config, logger *slog.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Converter{cfg: cfg, runner: execRunner{logger: logger}, pageCount: PageCount, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ async.Handler = (*Converter)(nil)

// Handle converts the PDF named by job.Path.
func (c *Converter) Handle(ctx context.Context, job async.Job) error {
	_, err := c.Convert(ctx, job.Path)
	return err
}

// Convert writes <OutputRoot>/<name>/<name>_<i>.jpg for every page (1-based),
// a data_json.json task descriptor listing their URLs, and moves the PDF into
// the same folder.
func (c *Converter) Convert(ctx context.Context, pdfPath string) (Result, error) {
	start := time.Now()
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return Result{}, fmt.Errorf("invalid pdf name %q", base)
	}
	res := Result{Name: name, Dir: filepath.Join(c.cfg.OutputRoot, name)}

	if n, err := c.pageCount(pdfPath); err != nil {
		c.logger.Warn("convert.page_count_failed", "pdf", pdfPath, "error", err)
	} else {
		res.ExpectedPages = n
	}

	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	files, err := c.rasterize(ctx, pdfPath, res.Dir, name)
	if err != nil {
		return res, err
	}
	if res.ExpectedPages > 0 && res.ExpectedPages != len(files) {
		c.logger.Warn("convert.page_count_mismatch", "pdf", pdfPath, "expected", res.ExpectedPages, "rendered", len(files))
	}

	for _, f := range files {
		res.Pages = append(res.Pages, c.pageURL(name, f))
	}

	res.TaskFile = filepath.Join(res.Dir, constants.TaskFileName)
	task := entity.Task{Data: entity.TaskData{PDFName: name, Pages: res.Pages}}
	b, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return res, fmt.Errorf("marshal task: %w", err)
	}
	if err := os.WriteFile(res.TaskFile, b, 0o644); err != nil {
		return res, fmt.Errorf("write task file: %w", err)
	}

	dst := filepath.Join(res.Dir, base)
	if c.cfg.KeepSource {
		err = copyFile(pdfPath, dst)
	} else {
		err = moveFile(pdfPath, dst)
	}
	if err != nil {
		return res, fmt.Errorf("place source pdf: %w", err)
	}

	c.logger.Info("convert.ok",
		"pdf", base,
		"pages", len(res.Pages),
		"dir", res.Dir,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// rasterize renders pages into a scratch dir and renames them to <name>_<i>.jpg.
func (c *Converter) rasterize(ctx context.Context, pdfPath, outDir, name string) ([]string, error) {
	tmp, err := os.MkdirTemp(outDir, ".raster-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			c.logger.Warn("convert.cleanup_failed", "dir", tmp, "error", err)
		}
	}()

	prefix := filepath.Join(tmp, "page")
	// pdftoppm -jpeg -r 200 <in.pdf> <tmp/page>
	_, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm, "-jpeg", "-r", strconv.Itoa(c.cfg.DPI), pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers by page count (page-1.jpg, page-01.jpg, ...)
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	if len(matches) == 0 {
		return nil, errors.New("pdftoppm produced no images")
	}
	type numbered struct {
		n    int
		path string
	}
	pages := make([]numbered, 0, len(matches))
	for _, m := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "page-"), ".jpg")
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		pages = append(pages, numbered{n: n, path: m})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	out := make([]string, 0, len(pages))
	for i, p := range pages {
		fname := fmt.Sprintf("%s_%d.%s", name, i+1, constants.PageImageExt)
		if err := os.Rename(p.path, filepath.Join(outDir, fname)); err != nil {
			return nil, fmt.Errorf("rename page %d: %w", i+1, err)
		}
		out = append(out, fname)
	}
	return out, nil
}

func (c *Converter) pageURL(name, file string) string {
	rel := url.PathEscape(name) + "/" + url.PathEscape(file)
	if c.cfg.BaseURL == "" {
		return rel
	}
	return c.cfg.BaseURL + "/" + rel
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// cross-device: copy then remove
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
