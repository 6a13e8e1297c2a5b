package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/sigdet/internal/config"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [file...]",
	Short: "Detect signatures in image files",
	Long: `Detect handwritten signatures in one or more image files.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  sigdet image contract.png
  sigdet image *.jpg --format json
  sigdet image scan.png --overlay-dir overlays --crops-dir crops`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         processImages,
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("format", "f", "", "output format (text, json, yaml)")
	imageCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	imageCmd.Flags().Float64("confidence", 0, "minimum detection confidence threshold (0..1)")
	imageCmd.Flags().Float64("iou", 0, "IoU threshold for non-maximum suppression (0..1)")
	imageCmd.Flags().String("model", "", "override detection model path")
	imageCmd.Flags().String("overlay-dir", "", "directory to write overlay images with detection boxes")
	imageCmd.Flags().String("crops-dir", "", "directory to write cropped signature grids")
	imageCmd.Flags().String("box-color", "", "overlay box color as #RRGGBB")
}

// imageOptions holds the resolved configuration for image processing.
type imageOptions struct {
	format     string
	outputFile string
	confidence float64
	iou        float64
	modelPath  string
	overlayDir string
	cropsDir   string
	boxColor   string
}

// resolveImageOptions merges config values with CLI flag overrides.
func resolveImageOptions(cmd *cobra.Command, cfg *config.Config) imageOptions {
	opts := imageOptions{
		format:     cfg.Output.Format,
		outputFile: cfg.Output.File,
		confidence: cfg.Pipeline.Detector.ConfThreshold,
		iou:        cfg.Pipeline.Detector.IoUThreshold,
		modelPath:  cfg.Pipeline.Detector.ModelPath,
		overlayDir: cfg.Output.OverlayDir,
		cropsDir:   cfg.Output.CropsDir,
		boxColor:   cfg.Output.OverlayBoxColor,
	}

	if cmd.Flags().Changed("format") {
		opts.format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		opts.outputFile, _ = cmd.Flags().GetString("output")
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
	if cmd.Flags().Changed("overlay-dir") {
		opts.overlayDir, _ = cmd.Flags().GetString("overlay-dir")
	}
	if cmd.Flags().Changed("crops-dir") {
		opts.cropsDir, _ = cmd.Flags().GetString("crops-dir")
	}
	if cmd.Flags().Changed("box-color") {
		opts.boxColor, _ = cmd.Flags().GetString("box-color")
	}
	return opts
}

func validateOutputFormat(format string) error {
	switch format {
	case "", pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be one of: %s, %s, %s)",
		format, pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML)
}

func validateThreshold(name string, value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("invalid %s threshold: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// buildPipeline constructs the detection pipeline from the resolved
// configuration. Shared by the image and pdf commands.
func buildPipeline(cfg *config.Config, modelPath string, confidence, iou float64, dpi, workers int) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithModelPath(modelPath).
		WithConfidenceThreshold(confidence).
		WithIoUThreshold(iou).
		WithDPI(dpi).
		WithWorkers(workers)

	if cfg.GPU.Enabled {
		b = b.WithGPU(cfg.GPU.Device)
		if cfg.GPU.MemoryLimit != "" {
			limit, err := config.ParseMemoryLimit(cfg.GPU.MemoryLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid GPU memory limit: %w", err)
			}
			b = b.WithGPUMemLimit(limit)
		}
	}

	return b.Build()
}

func processImages(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()
	opts := resolveImageOptions(cmd, cfg)

	if err := validateOutputFormat(opts.format); err != nil {
		return err
	}
	if err := validateThreshold("confidence", opts.confidence); err != nil {
		return err
	}
	if err := validateThreshold("IoU", opts.iou); err != nil {
		return err
	}

	pl, err := buildPipeline(cfg, opts.modelPath, opts.confidence, opts.iou, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	var out strings.Builder
	for _, path := range args {
		if err := processImageFile(pl, path, opts, len(args) > 1, &out); err != nil {
			return err
		}
	}

	stats := pl.Stats()
	slog.Debug("Inference statistics",
		"total", stats.Total, "average_ms", stats.AverageMs)

	return writeOutput(cmd, opts.outputFile, out.String())
}

// processImageFile runs detection on a single image and appends the
// formatted result, plus any overlay or crop artifacts, to out.
func processImageFile(pl *pipeline.Pipeline, path string, opts imageOptions, multi bool, out *strings.Builder) error {
	img, err := utils.LoadImage(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	res, err := pl.ProcessImage(img)
	if err != nil {
		return fmt.Errorf("detection failed for %s: %w", path, err)
	}

	formatted, err := pipeline.FormatImageResult(res, opts.format)
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

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if opts.overlayDir != "" {
		if err := os.MkdirAll(opts.overlayDir, 0o750); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
		overlay := pipeline.RenderOverlay(img, res, pipeline.ParseHexColor(opts.boxColor))
		overlayPath := filepath.Join(opts.overlayDir, base+"_overlay.png")
		if err := utils.SaveImagePNG(overlay, overlayPath); err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
	}

	if opts.cropsDir != "" {
		if err := os.MkdirAll(opts.cropsDir, 0o750); err != nil {
			return fmt.Errorf("failed to create crops directory: %w", err)
		}
		crops := pipeline.CropSignatures(img, res, pipeline.DefaultCropPadding)
		cropPath := filepath.Join(opts.cropsDir, base+"_signatures.png")
		if err := pipeline.SaveCropGrid(crops, cropPath); err != nil {
			return fmt.Errorf("failed to save signature crops: %w", err)
		}
	}

	return nil
}

// writeOutput writes the accumulated results to the output file, or to
// the command's stdout when no file is configured.
func writeOutput(cmd *cobra.Command, outputFile, content string) error {
	if outputFile == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
