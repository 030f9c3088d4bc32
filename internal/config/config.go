package config

import (
	"fmt"
	"strings"
)

const (
	// FormatText renders results as human-readable text.
	FormatText = "text"
	// FormatJSON renders results as JSON.
	FormatJSON = "json"
)

// DefaultConfig returns a configuration with sensible defaults for all settings.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Identifier: IdentifierConfig{
			Length:       13,
			MinDigits:    13,
			MaxDigits:    14,
			SuffixLength: 10,
			FuzzyEnabled: true,
		},
		Preprocess: PreprocessConfig{
			AutoOrient:      true,
			LandscapeRotate: true,
			Grayscale:       true,
			ContrastFactor:  2.0,
			UpscaleFactor:   1.5,
		},
		OCR: OCRConfig{
			Languages:  "eng",
			DigitsOnly: true,
			SparseText: true,
			TimeoutSec: 30,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
			SessionTTLSec:   1800,
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	if err := c.Identifier.Validate(); err != nil {
		return err
	}
	if err := c.Preprocess.Validate(); err != nil {
		return err
	}
	if err := c.OCR.Validate(); err != nil {
		return err
	}
	if c.Output.Format != "" && c.Output.Format != FormatText && c.Output.Format != FormatJSON {
		return fmt.Errorf("invalid output format: %s (must be %s or %s)", c.Output.Format, FormatText, FormatJSON)
	}
	return c.Server.Validate()
}

func (c *Config) validateLogLevel() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
}

// Validate checks identifier policy bounds.
func (c *IdentifierConfig) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("identifier length must be > 0, got %d", c.Length)
	}
	if c.MinDigits <= 0 || c.MaxDigits <= 0 {
		return fmt.Errorf("identifier digit window must be > 0, got %d-%d", c.MinDigits, c.MaxDigits)
	}
	if c.MinDigits > c.MaxDigits {
		return fmt.Errorf("identifier min_digits %d exceeds max_digits %d", c.MinDigits, c.MaxDigits)
	}
	if c.Length > c.MaxDigits {
		return fmt.Errorf("identifier length %d exceeds max_digits %d", c.Length, c.MaxDigits)
	}
	if c.SuffixLength <= 0 || c.SuffixLength > c.Length {
		return fmt.Errorf("suffix_length %d must be in 1..%d", c.SuffixLength, c.Length)
	}
	return nil
}

// Validate checks preprocessing factors.
func (c *PreprocessConfig) Validate() error {
	if c.ContrastFactor <= 0 {
		return fmt.Errorf("contrast_factor must be > 0, got %g", c.ContrastFactor)
	}
	if c.UpscaleFactor <= 0 {
		return fmt.Errorf("upscale_factor must be > 0, got %g", c.UpscaleFactor)
	}
	return nil
}

// Validate checks OCR adapter settings.
func (c *OCRConfig) Validate() error {
	if c.Languages == "" {
		return fmt.Errorf("ocr languages must not be empty")
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("ocr timeout_sec must be >= 0, got %d", c.TimeoutSec)
	}
	return nil
}

// Validate checks server settings.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0, got %d", c.MaxUploadMB)
	}
	if c.TimeoutSec < 0 || c.ShutdownTimeout < 0 || c.SessionTTLSec < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}
	return nil
}
