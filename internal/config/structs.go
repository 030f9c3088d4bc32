package config

// Config represents the complete configuration for the docmatch application.
// It covers all commands (compare, extract, serve, config) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Identifier matching policy
	Identifier IdentifierConfig `mapstructure:"identifier" yaml:"identifier" json:"identifier"`

	// Image preprocessing
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`

	// OCR adapter settings
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// IdentifierConfig describes the shape of the numeric identifier being matched
// and the tolerance of the cross-document matching policy. Deployments disagree
// on the canonical identifier length and on whether suffix matching should be
// enabled, so both are configuration rather than constants.
type IdentifierConfig struct {
	// Length is the canonical digit count of an identifier. Longer extracted
	// runs are truncated to their trailing Length digits.
	Length int `mapstructure:"length" yaml:"length" json:"length"`

	// MinDigits/MaxDigits bound the digit-run window accepted by extraction.
	MinDigits int `mapstructure:"min_digits" yaml:"min_digits" json:"min_digits"`
	MaxDigits int `mapstructure:"max_digits" yaml:"max_digits" json:"max_digits"`

	// SuffixLength is the trailing digit count compared by the fuzzy policy.
	SuffixLength int `mapstructure:"suffix_length" yaml:"suffix_length" json:"suffix_length"`

	// FuzzyEnabled toggles the suffix fallback policy.
	FuzzyEnabled bool `mapstructure:"fuzzy_enabled" yaml:"fuzzy_enabled" json:"fuzzy_enabled"`

	// VendorLabels are additional label phrases recognized ahead of the
	// built-in ones (e.g. "Acme Invoice Sr. No").
	VendorLabels []string `mapstructure:"vendor_labels" yaml:"vendor_labels" json:"vendor_labels"`
}

// PreprocessConfig contains image normalization settings applied before OCR.
type PreprocessConfig struct {
	AutoOrient      bool    `mapstructure:"auto_orient" yaml:"auto_orient" json:"auto_orient"`
	LandscapeRotate bool    `mapstructure:"landscape_rotate" yaml:"landscape_rotate" json:"landscape_rotate"`
	Grayscale       bool    `mapstructure:"grayscale" yaml:"grayscale" json:"grayscale"`
	ContrastFactor  float64 `mapstructure:"contrast_factor" yaml:"contrast_factor" json:"contrast_factor"`
	UpscaleFactor   float64 `mapstructure:"upscale_factor" yaml:"upscale_factor" json:"upscale_factor"`
}

// OCRConfig contains settings for the Tesseract-backed OCR adapter.
type OCRConfig struct {
	Languages  string `mapstructure:"languages" yaml:"languages" json:"languages"`
	DigitsOnly bool   `mapstructure:"digits_only" yaml:"digits_only" json:"digits_only"`
	SparseText bool   `mapstructure:"sparse_text" yaml:"sparse_text" json:"sparse_text"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	SessionTTLSec   int    `mapstructure:"session_ttl_sec" yaml:"session_ttl_sec" json:"session_ttl_sec"`
}
