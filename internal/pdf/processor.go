package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/MeKo-Tech/sigdet/internal/common"
	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/metrics"
)

// ImageDetector is the detection dependency of the processor. Satisfied
// by *detector.Detector.
type ImageDetector interface {
	DetectWithThresholds(img image.Image, confThreshold, iouThreshold float64) (*detector.DetectionResult, error)
}

// PageError wraps a failure on a specific page. Page is 1-based.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Options controls one ProcessDocument run.
type Options struct {
	// Pages restricts processing to these 1-based page numbers. Nil
	// means all pages.
	Pages []int
	// ConfThreshold and IoUThreshold override the detector defaults
	// when positive.
	ConfThreshold float64
	IoUThreshold  float64
	// Workers bounds page-level concurrency. Values below 2 process
	// sequentially.
	Workers int
	// OnPage, when set, is called after each successfully processed
	// page. Sequential runs call it in page order; parallel runs call
	// it in completion order, one call at a time.
	OnPage func(result PageResult)
}

// Processor runs signature detection across every page of a PDF
// document. A failure on any page aborts the whole document.
type Processor struct {
	detector      ImageDetector
	renderer      PageRenderer
	confThreshold float64
	iouThreshold  float64
}

// NewProcessor creates a document processor. Default thresholds are
// taken from cfg and can be overridden per call via Options.
func NewProcessor(det ImageDetector, renderer PageRenderer, cfg detector.Config) (*Processor, error) {
	if det == nil {
		return nil, fmt.Errorf("detector is nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is nil")
	}
	return &Processor{
		detector:      det,
		renderer:      renderer,
		confThreshold: cfg.ConfThreshold,
		iouThreshold:  cfg.IoUThreshold,
	}, nil
}

// ProcessDocument renders and detects every requested page of the PDF
// at path. Results are ordered by page number. The first page failure
// aborts processing and is returned as a *PageError.
func (p *Processor) ProcessDocument(ctx context.Context, path string, opts Options) (*DocumentResult, error) {
	timer := common.NewTimer()

	if err := ValidateDocument(path); err != nil {
		return nil, err
	}

	totalPages, err := PageCount(path)
	if err != nil {
		return nil, err
	}

	pages, err := resolvePages(opts.Pages, totalPages)
	if err != nil {
		return nil, err
	}

	confThreshold := p.confThreshold
	if opts.ConfThreshold > 0 {
		confThreshold = opts.ConfThreshold
	}
	iouThreshold := p.iouThreshold
	if opts.IoUThreshold > 0 {
		iouThreshold = opts.IoUThreshold
	}

	slog.Info("Processing document",
		"path", path,
		"total_pages", totalPages,
		"requested_pages", len(pages),
		"conf_threshold", confThreshold,
		"iou_threshold", iouThreshold)

	var results []PageResult
	if opts.Workers > 1 && len(pages) > 1 {
		results, err = p.processPagesParallel(ctx, path, pages, confThreshold, iouThreshold, opts.Workers, opts.OnPage)
	} else {
		results, err = p.processPagesSequential(ctx, path, pages, confThreshold, iouThreshold, opts.OnPage)
	}
	if err != nil {
		return nil, err
	}

	totalSignatures := 0
	for _, r := range results {
		totalSignatures += r.SignatureCount()
	}

	timer.Stop()
	return &DocumentResult{
		SourcePath:      path,
		TotalPages:      totalPages,
		ProcessedPages:  len(results),
		TotalSignatures: totalSignatures,
		Pages:           results,
		ProcessingMs:    timer.Milliseconds(),
	}, nil
}

// resolvePages validates requested page numbers against the document
// and returns the effective 1-based page list in ascending order.
func resolvePages(requested []int, totalPages int) ([]int, error) {
	if len(requested) == 0 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	seen := make(map[int]bool, len(requested))
	var pages []int
	for _, page := range requested {
		if page < 1 || page > totalPages {
			return nil, fmt.Errorf("page %d out of range: document has %d pages", page, totalPages)
		}
		if !seen[page] {
			seen[page] = true
			pages = append(pages, page)
		}
	}
	// Requested lists come from ParsePageRange and may interleave
	// ranges out of order; results must still be page-ordered.
	sort.Ints(pages)
	return pages, nil
}

func (p *Processor) processPage(ctx context.Context, path string, page int, confThreshold, iouThreshold float64) (PageResult, error) {
	if err := ctx.Err(); err != nil {
		return PageResult{}, &PageError{Page: page, Err: err}
	}

	img, err := p.renderer.RenderPage(ctx, path, page)
	if err != nil {
		return PageResult{}, &PageError{Page: page, Err: fmt.Errorf("render failed: %w", err)}
	}

	detection, err := p.detector.DetectWithThresholds(img, confThreshold, iouThreshold)
	if err != nil {
		return PageResult{}, &PageError{Page: page, Err: err}
	}

	metrics.IncPagesProcessed()

	bounds := img.Bounds()
	return PageResult{
		PageNumber: page,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Detection:  detection,
	}, nil
}

func (p *Processor) processPagesSequential(ctx context.Context, path string, pages []int, confThreshold, iouThreshold float64, onPage func(PageResult)) ([]PageResult, error) {
	results := make([]PageResult, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := p.processPage(ctx, path, page, confThreshold, iouThreshold)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		if onPage != nil {
			onPage(result)
		}
	}
	return results, nil
}

type pageJob struct {
	index int
	page  int
}

type pageOutcome struct {
	index  int
	result PageResult
	err    error
}

// processPagesParallel runs a bounded worker pool over the pages. Order
// is restored from job indexes; the lowest-page failure wins when
// several pages fail before cancellation takes effect.
func (p *Processor) processPagesParallel(ctx context.Context, path string, pages []int, confThreshold, iouThreshold float64, workers int, onPage func(PageResult)) ([]PageResult, error) {
	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}
	if workers > len(pages) {
		workers = len(pages)
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan pageJob, len(pages))
	outcomes := make(chan pageOutcome, len(pages))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					result, err := p.processPage(workCtx, path, job.page, confThreshold, iouThreshold)
					if err != nil {
						cancel()
					}
					select {
					case outcomes <- pageOutcome{index: job.index, result: result, err: err}:
					case <-workCtx.Done():
						if err == nil {
							return
						}
						// Failures still need to reach the collector.
						outcomes <- pageOutcome{index: job.index, err: err}
						return
					}
				case <-workCtx.Done():
					return
				}
			}
		}()
	}

	for i, page := range pages {
		jobs <- pageJob{index: i, page: page}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]*PageResult, len(pages))
	var firstErr, firstCancelled *PageError
	for outcome := range outcomes {
		if outcome.err != nil {
			var pageErr *PageError
			if !errors.As(outcome.err, &pageErr) {
				continue
			}
			// Pages that failed only because cancellation reached them
			// must not mask the page that triggered it.
			if errors.Is(pageErr, context.Canceled) {
				if firstCancelled == nil || pageErr.Page < firstCancelled.Page {
					firstCancelled = pageErr
				}
				continue
			}
			if firstErr == nil || pageErr.Page < firstErr.Page {
				firstErr = pageErr
			}
			continue
		}
		r := outcome.result
		results[outcome.index] = &r
		if onPage != nil {
			onPage(r)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstCancelled != nil {
		return nil, firstCancelled
	}

	ordered := make([]PageResult, 0, len(pages))
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("page %d produced no result", pages[i])
		}
		ordered = append(ordered, *r)
	}
	return ordered, nil
}
