package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [file...]",
	Short: "Detect signatures in images or PDFs, sniffing the format",
	Long: `Detect handwritten signatures in mixed input files. Each file is
content-sniffed: PDFs are processed page by page, everything else is
decoded as a raster image and reported as a single-page document.

Examples:
  sigdet detect contract.png agreement.pdf
  sigdet detect scan.pdf --format json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         detectFiles,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("format", "f", "", "output format (text, json, yaml)")
	detectCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	detectCmd.Flags().String("pages", "", "page range for PDF inputs (e.g., '1-5', '1,3,5')")
	detectCmd.Flags().Float64("confidence", 0, "minimum detection confidence threshold (0..1)")
	detectCmd.Flags().Float64("iou", 0, "IoU threshold for non-maximum suppression (0..1)")
	detectCmd.Flags().String("model", "", "override detection model path")
	detectCmd.Flags().Int("dpi", 0, "rasterization resolution for PDF inputs")
	detectCmd.Flags().Int("workers", 0, "max worker goroutines for PDF page processing")
	detectCmd.Flags().Bool("progress", false, "print per-page progress to stderr")
}

func detectFiles(cmd *cobra.Command, args []string) error {
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
		if err := detectFile(cmd, pl, path, pages, opts, len(args) > 1, &out); err != nil {
			return err
		}
	}

	return writeOutput(cmd, opts.outputFile, out.String())
}

func detectFile(cmd *cobra.Command, pl *pipeline.Pipeline, path string, pages []int,
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

	res, err := pl.ProcessFile(cmd.Context(), path, procOpts)
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
