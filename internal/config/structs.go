package config

// Config represents the complete configuration for the sigdet
// application. It covers all commands (image, pdf, serve) and loads
// from configuration files, environment variables, and command-line
// flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// PipelineConfig contains detection pipeline settings.
type PipelineConfig struct {
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// DPI used when rasterizing PDF pages.
	DPI int `mapstructure:"dpi" yaml:"dpi" json:"dpi"`

	// Workers bounds page-level concurrency for PDF documents.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// DetectorConfig contains signature detection settings.
type DetectorConfig struct {
	ModelPath     string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	ConfThreshold float64 `mapstructure:"conf_threshold" yaml:"conf_threshold" json:"conf_threshold"`
	IoUThreshold  float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	NumThreads    int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format          string `mapstructure:"format" yaml:"format" json:"format"`
	File            string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir      string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	CropsDir        string `mapstructure:"crops_dir" yaml:"crops_dir" json:"crops_dir"`
	OverlayBoxColor string `mapstructure:"overlay_box_color" yaml:"overlay_box_color" json:"overlay_box_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}
