package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/health-reports/constants"
)

// PDFImage is one raster image embedded in a PDF.
type PDFImage struct {
	Page      int
	Object    int
	Name      string
	MediaType string
	Data      []byte
}

// PDFParser lets us stub PDF parsing in tests.
type PDFParser interface {
	// Text returns the native text layer, pages separated by newlines.
	Text(ctx context.Context, data []byte) (string, error)
	// Images returns embedded raster images in page order.
	Images(ctx context.Context, data []byte) ([]PDFImage, error)
}

// NewPDFParser returns the default parser: ledongthuc/pdf for the text layer
// and pdfcpu for image extraction.
func NewPDFParser(logger *slog.Logger) PDFParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &pdfParser{logger: logger}
}

type pdfParser struct {
	logger *slog.Logger
}

func (p *pdfParser) Text(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf text: open reader: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("ocr.pdf.page_text_failed", "page", i, "error", err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (p *pdfParser) Images(ctx context.Context, data []byte) (images []PDFImage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// pdfcpu indexes into the page list unguarded on page-less documents
	defer func() {
		if r := recover(); r != nil {
			images, err = nil, fmt.Errorf("pdf images: malformed document: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	collect := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if img.Reader == nil || img.Thumb {
			return nil
		}
		mt := constants.MediaTypeForExt(img.FileType)
		if !constants.IsImageMediaType(mt) {
			p.logger.Warn("ocr.pdf.image_skipped", "page", img.PageNr, "image", img.Name, "file_type", img.FileType)
			return nil
		}
		b, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		images = append(images, PDFImage{
			Page:      img.PageNr,
			Object:    img.ObjNr,
			Name:      img.Name,
			MediaType: mt,
			Data:      b,
		})
		return nil
	}
	if err := api.ExtractImages(bytes.NewReader(data), nil, collect, conf); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdf images: extract: %w", err)
	}

	sortEmbedOrder(images)
	return images, nil
}

// sortEmbedOrder orders images by page, then by object number. pdfcpu hands
// back a page's images from a map, so its callback order is not stable.
func sortEmbedOrder(images []PDFImage) {
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Page != images[j].Page {
			return images[i].Page < images[j].Page
		}
		return images[i].Object < images[j].Object
	})
}
