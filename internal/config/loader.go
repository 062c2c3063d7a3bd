package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "puzzlebox"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PUZZLEBOX"

	// DefaultConfigFile is written by GenerateDefaultConfigFile when no name is given.
	DefaultConfigFile = "puzzlebox.yaml"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the global viper instance so that flag
// bindings made by the command tree are honoured.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader over the given viper instance.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from configFile (or the search paths when empty),
// environment variables and defaults. The result is validated when validate
// is true.
func (l *Loader) Load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// rectify.output_width -> PUZZLEBOX_RECTIFY_OUTPUT_WIDTH
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("models_dir", defaults.ModelsDir)
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("editor.tolerance", defaults.Editor.Tolerance)
	l.v.SetDefault("editor.display_scale", defaults.Editor.DisplayScale)

	l.v.SetDefault("rectify.interpolation", defaults.Rectify.Interpolation)
	l.v.SetDefault("rectify.size_mode", defaults.Rectify.SizeMode)
	l.v.SetDefault("rectify.output_width", defaults.Rectify.OutputWidth)
	l.v.SetDefault("rectify.output_height", defaults.Rectify.OutputHeight)
	l.v.SetDefault("rectify.workers", defaults.Rectify.Workers)
	l.v.SetDefault("rectify.reject_self_intersecting", defaults.Rectify.RejectSelfIntersecting)
	l.v.SetDefault("rectify.debug_dir", defaults.Rectify.DebugDir)

	l.v.SetDefault("detector.enabled", defaults.Detector.Enabled)
	l.v.SetDefault("detector.model_path", defaults.Detector.ModelPath)
	l.v.SetDefault("detector.num_threads", defaults.Detector.NumThreads)
	l.v.SetDefault("detector.input_size", defaults.Detector.InputSize)
	l.v.SetDefault("detector.aspect_ratio", defaults.Detector.AspectRatio)
	l.v.SetDefault("detector.aspect_tolerance", defaults.Detector.AspectTolerance)
	l.v.SetDefault("detector.min_area_ratio", defaults.Detector.MinAreaRatio)
	l.v.SetDefault("detector.use_gpu", defaults.Detector.UseGPU)
	l.v.SetDefault("detector.gpu_device", defaults.Detector.GPUDevice)
	l.v.SetDefault("detector.gpu_mem_limit_mb", defaults.Detector.GPUMemLimitMB)

	l.v.SetDefault("overlay.opacity", defaults.Overlay.Opacity)
	l.v.SetDefault("overlay.double_sided", defaults.Overlay.DoubleSided)
	l.v.SetDefault("overlay.pdf", defaults.Overlay.PDF)
	l.v.SetDefault("overlay.read_codes", defaults.Overlay.ReadCodes)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.suffix", defaults.Batch.Suffix)
	l.v.SetDefault("batch.output_dir", defaults.Batch.OutputDir)
	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
}

// GenerateDefaultConfigFile writes a configuration file holding every default.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoaderWith(viper.New())
	loader.setDefaults()

	if filename == "" {
		filename = DefaultConfigFile
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "puzzlebox"))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", "puzzlebox"))
	}

	return append(paths, "/etc/puzzlebox")
}

// PrintConfigInfo prints information about configuration loading for debugging.
func (l *Loader) PrintConfigInfo(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Configuration file used: %s\n", l.GetConfigFileUsed())
	_, _ = fmt.Fprintf(w, "Configuration search paths: %v\n", GetConfigSearchPaths())
	_, _ = fmt.Fprintf(w, "Environment prefix: %s\n", EnvPrefix)
}
