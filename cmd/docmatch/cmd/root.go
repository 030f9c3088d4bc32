package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/scandocs/docmatch/internal/config"
	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docmatch",
	Short: "Compare scanned documents by their invoice identifier",
	Long: `docmatch decides whether two scanned documents refer to the same invoice.

Each document image is preprocessed, OCR'd, and searched for a numeric
invoice identifier. The identifiers are then matched exactly or, when
enabled, by their trailing digits to tolerate OCR noise near the front
of long numbers.

This tool provides:
- Two-document comparison from images, PDFs, or raw OCR text
- Single-document identifier extraction for debugging
- An HTTP API with a stateful acquisition workflow
- Configurable identifier shape and matching policy

Examples:
  docmatch compare scan1.jpg scan2.jpg
  docmatch extract invoice.png --format json
  docmatch serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

// SetVersionInfo injects build metadata from main.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/docmatch, /etc/docmatch)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "info":
				logLevel = slog.LevelInfo
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Reload configuration to ensure CLI flags are included
	// This is necessary because flag binding happens after initial config loading
	loader := GetConfigLoader()
	var cfg config.Config
	if err := loader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}

	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// buildPipelineConfig translates the application configuration into a
// pipeline configuration.
func buildPipelineConfig(cfg *config.Config) pipeline.Config {
	pCfg := pipeline.DefaultConfig()

	if cfg.Identifier.Length > 0 {
		pCfg.Extract.CanonicalLength = cfg.Identifier.Length
	}
	if cfg.Identifier.MinDigits > 0 {
		pCfg.Extract.MinDigits = cfg.Identifier.MinDigits
	}
	if cfg.Identifier.MaxDigits > 0 {
		pCfg.Extract.MaxDigits = cfg.Identifier.MaxDigits
	}
	if len(cfg.Identifier.VendorLabels) > 0 {
		pCfg.Extract.Labels = cfg.Identifier.VendorLabels
	}
	if cfg.Identifier.SuffixLength > 0 {
		pCfg.Match.SuffixLength = cfg.Identifier.SuffixLength
	}
	pCfg.Match.FuzzyEnabled = cfg.Identifier.FuzzyEnabled

	pCfg.Preprocess.AutoOrient = cfg.Preprocess.AutoOrient
	pCfg.Preprocess.LandscapeRotate = cfg.Preprocess.LandscapeRotate
	pCfg.Preprocess.Grayscale = cfg.Preprocess.Grayscale
	if cfg.Preprocess.ContrastFactor > 0 {
		pCfg.Preprocess.ContrastFactor = cfg.Preprocess.ContrastFactor
	}
	if cfg.Preprocess.UpscaleFactor > 0 {
		pCfg.Preprocess.UpscaleFactor = cfg.Preprocess.UpscaleFactor
	}

	if cfg.OCR.Languages != "" {
		pCfg.OCR.Languages = cfg.OCR.Languages
	}
	pCfg.OCR.DigitsOnly = cfg.OCR.DigitsOnly
	pCfg.OCR.SparseText = cfg.OCR.SparseText
	if cfg.OCR.TimeoutSec > 0 {
		pCfg.OCRTimeout = time.Duration(cfg.OCR.TimeoutSec) * time.Second
	}

	return pCfg
}
