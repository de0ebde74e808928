package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

var (
	// ErrExportBusy is returned while another export is running.
	ErrExportBusy = errors.New("an export is already in progress")
	// ErrUnknownFormat rejects formats other than png, jpeg and pdf.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format is an export file type.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts png, jpeg (or jpg) and pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension is the file extension used for downloads.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType is the MIME type of the encoded file.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName names an export after the root topic, e.g. mindmap-Geography.pdf.
func FileName(rootName string, f Format) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(rootName))
	if name == "" {
		name = "export"
	}
	return "mindmap-" + name + "." + f.Extension()
}

// Page geometry for PDF exports, in millimetres.
const (
	PageMargin = 10.0
	pageSize   = "A4"
)

// Recorder observes finished exports.
type Recorder interface {
	ObserveExport(format string, elapsed time.Duration, err error)
}

// Exporter turns scenes into files. It runs one export at a time.
type Exporter struct {
	busy        atomic.Bool
	logger      *zap.Logger
	recorder    Recorder
	jpegQuality int
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithJPEGQuality sets the JPEG encoder quality (1-100).
func WithJPEGQuality(q int) ExporterOption {
	return func(e *Exporter) {
		if q >= 1 && q <= 100 {
			e.jpegQuality = q
		}
	}
}

// WithExportRecorder attaches a metrics recorder.
func WithExportRecorder(r Recorder) ExporterOption {
	return func(e *Exporter) { e.recorder = r }
}

// NewExporter creates an exporter drawing at PixelDensity.
func NewExporter(logger *zap.Logger, opts ...ExporterOption) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{logger: logger, jpegQuality: 92}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Export encodes s as format into w. Nothing is written to w unless the
// whole file was produced. A second call while one is running fails with
// ErrExportBusy.
func (e *Exporter) Export(ctx context.Context, s Scene, format Format, w io.Writer) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrExportBusy
	}
	defer e.busy.Store(false)

	start := time.Now()
	data, err := e.encode(ctx, s, format)
	if err == nil {
		_, err = w.Write(data)
	}
	if e.recorder != nil {
		e.recorder.ObserveExport(string(format), time.Since(start), err)
	}
	if err != nil {
		e.logger.Error("export failed",
			zap.String("format", string(format)),
			zap.String("title", s.Title),
			zap.Error(err),
		)
		return fmt.Errorf("exporting %s: %w", format, err)
	}
	e.logger.Info("export complete",
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// WriteFile exports s to path. The file appears only once it is complete.
func (e *Exporter) WriteFile(ctx context.Context, s Scene, format Format, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mindmap-export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := e.Export(ctx, s, format, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming export: %w", err)
	}
	return nil
}

func (e *Exporter) encode(ctx context.Context, s Scene, format Format) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("rendering panicked: %v", r)
		}
	}()
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := Rasterize(s)
	if err != nil {
		return nil, fmt.Errorf("rasterizing: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.jpegQuality})
	case FormatPDF:
		err = writePDF(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitRect scales an imgW×imgH image to fit inside a page with margin on
// every side, keeping its aspect ratio, and centres it.
func FitRect(imgW, imgH, pageW, pageH, margin float64) (x, y, w, h float64) {
	availW, availH := pageW-2*margin, pageH-2*margin
	ratio := math.Min(availW/imgW, availH/imgH)
	w, h = imgW*ratio, imgH*ratio
	return (pageW - w) / 2, (pageH - h) / 2, w, h
}

// writePDF embeds img as the single raster image of a landscape page.
func writePDF(w io.Writer, img image.Image) error {
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return fmt.Errorf("encoding page image: %w", err)
	}

	pdf := fpdf.New("L", "mm", pageSize, "")
	pdf.SetMargins(PageMargin, PageMargin, PageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("mindmap", opt, &raw)

	bounds := img.Bounds()
	pageW, pageH := pdf.GetPageSize()
	x, y, iw, ih := FitRect(float64(bounds.Dx()), float64(bounds.Dy()), pageW, pageH, PageMargin)
	pdf.ImageOptions("mindmap", x, y, iw, ih, false, opt, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building pdf: %w", err)
	}
	return pdf.Output(w)
}
