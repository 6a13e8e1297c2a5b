package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/sigdet/internal/config"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf [file...]",
	Short: "Detect signatures in PDF documents",
	Long: `Detect handwritten signatures in multi-page PDF documents.

Pages are rasterized with poppler (pdftoppm) and each rendered page
runs through the detection model. Processing stops at the first page
that fails.

Examples:
  sigdet pdf agreement.pdf
  sigdet pdf *.pdf --format json
  sigdet pdf scan.pdf --pages 1-5 --workers 4`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         processPDFs,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringP("format", "f", "", "output format (text, json, yaml)")
	pdfCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	pdfCmd.Flags().String("pages", "", "page range to process (e.g., '1-5', '1,3,5')")
	pdfCmd.Flags().Float64("confidence", 0, "minimum detection confidence threshold (0..1)")
	pdfCmd.Flags().Float64("iou", 0, "IoU threshold for non-maximum suppression (0..1)")
	pdfCmd.Flags().String("model", "", "override detection model path")
	pdfCmd.Flags().Int("dpi", 0, "rasterization resolution in DPI")
	pdfCmd.Flags().Int("workers", 0, "max worker goroutines for page processing (1=sequential)")
	pdfCmd.Flags().Bool("progress", false, "print per-page progress to stderr")
}

// pdfOptions holds the resolved configuration for PDF processing.
type pdfOptions struct {
	format     string
	outputFile string
	pages      string
	confidence float64
	iou        float64
	modelPath  string
	dpi        int
	workers    int
	progress   bool
}

func resolvePDFOptions(cmd *cobra.Command, cfg *config.Config) pdfOptions {
	opts := pdfOptions{
		format:     cfg.Output.Format,
		outputFile: cfg.Output.File,
		confidence: cfg.Pipeline.Detector.ConfThreshold,
		iou:        cfg.Pipeline.Detector.IoUThreshold,
		modelPath:  cfg.Pipeline.Detector.ModelPath,
		dpi:        cfg.Pipeline.DPI,
		workers:    cfg.Pipeline.Workers,
	}

	if cmd.Flags().Changed("format") {
		opts.format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		opts.outputFile, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("pages") {
		opts.pages, _ = cmd.Flags().GetString("pages")
	}
	if cmd.Flags().Changed("confidence") {
		opts.confidence, _ = cmd.Flags().GetFloat64("confidence")
	}
	if cmd.Flags().Changed("iou") {
		opts.iou, _ = cmd.Flags().GetFloat64("iou")
	}
	if cmd.Flags().Changed("model") {
		opts.modelPath, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("dpi") {
		opts.dpi, _ = cmd.Flags().GetInt("dpi")
	}
	if cmd.Flags().Changed("workers") {
		opts.workers, _ = cmd.Flags().GetInt("workers")
	}
	opts.progress, _ = cmd.Flags().GetBool("progress")
	return opts
}

func processPDFs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()
	opts := resolvePDFOptions(cmd, cfg)

	if err := validateOutputFormat(opts.format); err != nil {
		return err
	}
	if err := validateThreshold("confidence", opts.confidence); err != nil {
		return err
	}
	if err := validateThreshold("IoU", opts.iou); err != nil {
		return err
	}

	pages, err := pdf.ParsePageRange(opts.pages)
	if err != nil {
		return fmt.Errorf("invalid page range: %w", err)
	}

	pl, err := buildPipeline(cfg, opts.modelPath, opts.confidence, opts.iou, opts.dpi, opts.workers)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	var out strings.Builder
	for _, path := range args {
		if err := processPDFFile(cmd, pl, path, pages, opts, len(args) > 1, &out); err != nil {
			return err
		}
	}

	return writeOutput(cmd, opts.outputFile, out.String())
}

func processPDFFile(cmd *cobra.Command, pl *pipeline.Pipeline, path string, pages []int,
	opts pdfOptions, multi bool, out *strings.Builder,
) error {
	procOpts := pdf.Options{
		Pages:         pages,
		ConfThreshold: opts.confidence,
		IoUThreshold:  opts.iou,
		Workers:       opts.workers,
	}
	if opts.progress {
		procOpts.OnPage = func(page pdf.PageResult) {
			fmt.Fprintf(cmd.ErrOrStderr(), "page %d: %d signature(s)\n",
				page.PageNumber, page.SignatureCount())
		}
	}

	res, err := pl.ProcessPDF(cmd.Context(), path, procOpts)
	if err != nil {
		var pageErr *pdf.PageError
		if errors.As(err, &pageErr) {
			return fmt.Errorf("%s: page %d failed: %w", path, pageErr.Page, pageErr.Err)
		}
		return fmt.Errorf("failed to process %s: %w", path, err)
	}

	formatted, err := pipeline.FormatDocumentResult(res, opts.format)
	if err != nil {
		return err
	}

	if multi && (opts.format == "" || opts.format == pipeline.FormatText) {
		fmt.Fprintf(out, "==> %s\n", path)
	}
	out.WriteString(formatted)
	if !strings.HasSuffix(formatted, "\n") {
		out.WriteString("\n")
	}
	return nil
}
