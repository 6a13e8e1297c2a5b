package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// DefaultDPI is the rasterization resolution for detection. Matches the
// resolution the detection model was tuned against for scanned documents.
const DefaultDPI = 200

// PageRenderer rasterizes single PDF pages to images. Page numbers are
// 1-based.
type PageRenderer interface {
	RenderPage(ctx context.Context, pdfPath string, page int) (image.Image, error)
}

// PopplerRenderer renders pages by shelling out to pdftoppm. Requires
// poppler-utils on PATH.
type PopplerRenderer struct {
	DPI int
}

// NewPopplerRenderer returns a renderer at the given DPI, falling back
// to DefaultDPI for non-positive values.
func NewPopplerRenderer(dpi int) *PopplerRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PopplerRenderer{DPI: dpi}
}

// Available reports whether pdftoppm can be found on PATH.
func (r *PopplerRenderer) Available() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

// RenderPage rasterizes one page to a PNG in a temp directory and
// decodes it.
func (r *PopplerRenderer) RenderPage(ctx context.Context, pdfPath string, page int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", page)
	}

	tempDir, err := os.MkdirTemp("", "sigdet-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	prefix := filepath.Join(tempDir, "page")
	args := []string{
		"-png",
		"-r", strconv.Itoa(r.DPI),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		pdfPath,
		prefix,
	}
	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		// CommandContext kills the subprocess on cancellation and
		// surfaces "signal: killed"; report the context error instead
		// so callers can recognize cancelled renders.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w (%s)", page, err, output)
	}

	path, err := findRenderedPage(prefix, page)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is inside our own temp directory
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page %d: %w", page, err)
	}
	return img, nil
}

// findRenderedPage locates the output file. pdftoppm zero-pads the page
// number to the width of the document's last page, so the suffix width
// varies with the document.
func findRenderedPage(prefix string, page int) (string, error) {
	for width := 1; width <= 6; width++ {
		candidate := fmt.Sprintf("%s-%0*d.png", prefix, width, page)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", err
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", fmt.Errorf("rendered image not found for page %d", page)
}
