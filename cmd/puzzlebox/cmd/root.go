package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/puzzlebox/internal/config"
	"github.com/MeKo-Tech/puzzlebox/internal/models"
)

// app carries the configuration shared by one command tree.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

// NewRootCmd builds the puzzlebox command tree. Every call returns an
// independent tree with its own configuration state.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "puzzlebox",
		Short: "Straighten photos of puzzle box lids for AR overlay",
		Long: `puzzlebox turns a photo of a jigsaw puzzle box lid into an upright,
perspective-corrected texture that can be laid over the puzzle in progress.

It provides:
- Initial lid detection (ONNX corner model) with a full-width fallback box
- Corner adjustment sessions with undo/reset
- Perspective correction of the selected quadrilateral
- Plane manifests and printable PDFs at the lid's physical size
- Batch correction of whole directories
- An HTTP/WebSocket server for interactive clients

Examples:
  puzzlebox box photo.jpg
  puzzlebox correct photo.jpg --corners "120,80 530,95 90,410 560,390" --width 50 --height 40
  puzzlebox edit photo.jpg --events gestures.yaml
  puzzlebox batch photos/ --output-dir flat/
  puzzlebox serve --port 8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd, true)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/puzzlebox, /etc/puzzlebox)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	rootCmd.PersistentFlags().String("models-dir", defaultModelsDir,
		"directory containing ONNX models (can also be set via PUZZLEBOX_MODELS_DIR)")

	_ = a.v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = a.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("models_dir", rootCmd.PersistentFlags().Lookup("models-dir"))

	rootCmd.AddCommand(
		newBoxCmd(a),
		newCorrectCmd(a),
		newEditCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// initConfig loads .env, resolves configuration and installs the logger.
func (a *app) initConfig(cmd *cobra.Command, validate bool) error {
	_ = godotenv.Load()

	cfg, err := config.NewLoaderWith(a.v).Load(a.cfgFile, validate)
	if err != nil {
		return err
	}
	a.cfg = cfg
	setupLogging(cmd.ErrOrStderr(), cfg)
	return nil
}

// config returns the resolved configuration, falling back to defaults for
// commands that skipped loading.
func (a *app) config() config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return *a.cfg
}

func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
