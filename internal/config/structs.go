//nolint:lll
package config

// Config represents the complete configuration for the puzzlebox
// application. It covers every command (correct, box, edit, batch, serve) and is
// loaded from configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Corner adjustment session
	Editor EditorConfig `mapstructure:"editor" yaml:"editor" json:"editor"`

	// Perspective correction
	Rectify RectifyConfig `mapstructure:"rectify" yaml:"rectify" json:"rectify"`

	// Rectangle detection
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Plane hand-off
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay" json:"overlay"`

	// Directory correction (for batch command)
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// EditorConfig contains corner adjustment settings.
type EditorConfig struct {
	Tolerance    float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
	DisplayScale float64 `mapstructure:"display_scale" yaml:"display_scale" json:"display_scale"`
}

// RectifyConfig contains perspective correction settings.
type RectifyConfig struct {
	Interpolation          string `mapstructure:"interpolation" yaml:"interpolation" json:"interpolation"`
	SizeMode               string `mapstructure:"size_mode" yaml:"size_mode" json:"size_mode"`
	OutputWidth            int    `mapstructure:"output_width" yaml:"output_width" json:"output_width"`
	OutputHeight           int    `mapstructure:"output_height" yaml:"output_height" json:"output_height"`
	Workers                int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	RejectSelfIntersecting bool   `mapstructure:"reject_self_intersecting" yaml:"reject_self_intersecting" json:"reject_self_intersecting"`
	DebugDir               string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// DetectorConfig contains rectangle detection settings.
type DetectorConfig struct {
	Enabled         bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	ModelPath       string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	NumThreads      int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	InputSize       int     `mapstructure:"input_size" yaml:"input_size" json:"input_size"`
	AspectRatio     float64 `mapstructure:"aspect_ratio" yaml:"aspect_ratio" json:"aspect_ratio"`
	AspectTolerance float64 `mapstructure:"aspect_tolerance" yaml:"aspect_tolerance" json:"aspect_tolerance"`
	MinAreaRatio    float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	UseGPU          bool    `mapstructure:"use_gpu" yaml:"use_gpu" json:"use_gpu"`
	GPUDevice       int     `mapstructure:"gpu_device" yaml:"gpu_device" json:"gpu_device"`
	GPUMemLimitMB   int     `mapstructure:"gpu_mem_limit_mb" yaml:"gpu_mem_limit_mb" json:"gpu_mem_limit_mb"`
}

// OverlayConfig contains plane rendering settings.
type OverlayConfig struct {
	Opacity     float64 `mapstructure:"opacity" yaml:"opacity" json:"opacity"`
	DoubleSided bool    `mapstructure:"double_sided" yaml:"double_sided" json:"double_sided"`
	PDF         bool    `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	ReadCodes   bool    `mapstructure:"read_codes" yaml:"read_codes" json:"read_codes"`
}

// BatchConfig contains batch correction settings.
type BatchConfig struct {
	Workers   int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Suffix    string `mapstructure:"suffix" yaml:"suffix" json:"suffix"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Recursive bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}
