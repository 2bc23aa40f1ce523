package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	DefaultSignatureWidth  = 150.0
	DefaultSignatureHeight = 50.0

	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-4o"
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 1000
	DefaultOpenAITimeout     = 60 * time.Second
	DefaultOpenAIMaxRetries  = 2

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable
	EnvPrefix = "PDF_AUTOFILL"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// DefaultAnchorPhrases are the signature anchors searched by default
var DefaultAnchorPhrases = []string{"Signature", "Sign Here", "Authorized Signatory"}

// OpenAIConfig holds the value-generation client settings
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Config holds all configuration for the autofill tools
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory    string
	OutputDirectory string // defaults to PDFDirectory
	ConfigFile      string

	// Signing configuration
	SignatureImage     string
	AnchorPhrases      []string
	SignatureWidth     float64
	SignatureHeight    float64
	VerticalAdjustment float64

	// Extraction configuration
	LegacyFlagQuirk bool

	OpenAI OpenAIConfig

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	anchors := make([]string, len(DefaultAnchorPhrases))
	copy(anchors, DefaultAnchorPhrases)

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		AnchorPhrases:   anchors,
		SignatureWidth:  DefaultSignatureWidth,
		SignatureHeight: DefaultSignatureHeight,
		OpenAI: OpenAIConfig{
			BaseURL:     DefaultOpenAIBaseURL,
			Model:       DefaultOpenAIModel,
			Temperature: DefaultOpenAITemperature,
			MaxTokens:   DefaultOpenAIMaxTokens,
			Timeout:     DefaultOpenAITimeout,
			MaxRetries:  DefaultOpenAIMaxRetries,
		},
		Version:     "1.0.0",
		ServerName:  "mcp-pdf-autofill",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// Precedence is flags, then environment, then the optional config file,
// then defaults.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	// Expand paths if needed
	cfg.PDFDirectory = absPath(cfg.PDFDirectory)
	cfg.OutputDirectory = absPath(cfg.OutputDirectory)
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = cfg.PDFDirectory
	}
	cfg.SignatureImage = absPath(cfg.SignatureImage)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	if expanded, err := filepath.Abs(p); err == nil {
		return expanded
	}
	return p
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// The conventional variable is honoured next to the prefixed one
	_ = viper.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("output_dir", cfg.OutputDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("signature.image", cfg.SignatureImage)
	viper.SetDefault("signature.anchors", cfg.AnchorPhrases)
	viper.SetDefault("signature.width", cfg.SignatureWidth)
	viper.SetDefault("signature.height", cfg.SignatureHeight)
	viper.SetDefault("signature.vertical_adjustment", cfg.VerticalAdjustment)
	viper.SetDefault("extraction.legacy_flags", cfg.LegacyFlagQuirk)
	viper.SetDefault("openai.base_url", cfg.OpenAI.BaseURL)
	viper.SetDefault("openai.model", cfg.OpenAI.Model)
	viper.SetDefault("openai.temperature", cfg.OpenAI.Temperature)
	viper.SetDefault("openai.max_tokens", cfg.OpenAI.MaxTokens)
	viper.SetDefault("openai.timeout", cfg.OpenAI.Timeout)
	viper.SetDefault("openai.max_retries", cfg.OpenAI.MaxRetries)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("config", "", "Optional config file (YAML, TOML or JSON)")
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("output-dir", "", "Directory for filled and signed output (default: --dir)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("signature-image", "", "Signature image (PNG or JPEG) stamped at each anchor")
	pflag.StringSlice("anchor", cfg.AnchorPhrases, "Signature anchor phrase, in priority order (repeatable)")
	pflag.Float64("signature-width", cfg.SignatureWidth, "Signature box width in points")
	pflag.Float64("signature-height", cfg.SignatureHeight, "Signature box height in points")
	pflag.Float64("vertical-adjustment", cfg.VerticalAdjustment, "Vertical offset of the signature box in points")
	pflag.Bool("legacy-flags", cfg.LegacyFlagQuirk, "Omit zero field flags, zero max length and empty defaults from extraction")
	pflag.String("openai-base-url", cfg.OpenAI.BaseURL, "Chat completions API base URL")
	pflag.String("openai-model", cfg.OpenAI.Model, "Model used to generate field values")
	pflag.Float64("openai-temperature", cfg.OpenAI.Temperature, "Sampling temperature")
	pflag.Int("openai-max-tokens", cfg.OpenAI.MaxTokens, "Maximum tokens in the model reply")
	pflag.Duration("openai-timeout", cfg.OpenAI.Timeout, "Timeout per value-generation request")
	pflag.Int("openai-max-retries", cfg.OpenAI.MaxRetries, "Retries after 429, 5xx or transport failures")
}

// flagKeys maps flag names to viper keys
var flagKeys = map[string]string{
	"config":              "config",
	"mode":                "mode",
	"host":                "host",
	"port":                "port",
	"dir":                 "dir",
	"output-dir":          "output_dir",
	"loglevel":            "loglevel",
	"maxfilesize":         "maxfilesize",
	"signature-image":     "signature.image",
	"anchor":              "signature.anchors",
	"signature-width":     "signature.width",
	"signature-height":    "signature.height",
	"vertical-adjustment": "signature.vertical_adjustment",
	"legacy-flags":        "extraction.legacy_flags",
	"openai-base-url":     "openai.base_url",
	"openai-model":        "openai.model",
	"openai-temperature":  "openai.temperature",
	"openai-max-tokens":   "openai.max_tokens",
	"openai-timeout":      "openai.timeout",
	"openai-max-retries":  "openai.max_retries",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(flag))
	}
}

// readConfigFile loads --config when given
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Autofill - fill, flatten and sign PDF forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --signature-image=sig.png\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=autofill.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_DIR, %s_OUTPUT_DIR, %s_LOGLEVEL ...\n", EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_SIGNATURE_IMAGE   Signature image path\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_OPENAI_MODEL      Model name\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY                 API key (or %s_OPENAI_API_KEY)\n", EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.ConfigFile = viper.GetString("config")
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("output_dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")

	cfg.SignatureImage = viper.GetString("signature.image")
	cfg.AnchorPhrases = anchorPhrases(viper.Get("signature.anchors"))
	cfg.SignatureWidth = viper.GetFloat64("signature.width")
	cfg.SignatureHeight = viper.GetFloat64("signature.height")
	cfg.VerticalAdjustment = viper.GetFloat64("signature.vertical_adjustment")
	cfg.LegacyFlagQuirk = viper.GetBool("extraction.legacy_flags")

	cfg.OpenAI.APIKey = viper.GetString("openai.api_key")
	cfg.OpenAI.BaseURL = viper.GetString("openai.base_url")
	cfg.OpenAI.Model = viper.GetString("openai.model")
	cfg.OpenAI.Temperature = viper.GetFloat64("openai.temperature")
	cfg.OpenAI.MaxTokens = viper.GetInt("openai.max_tokens")
	cfg.OpenAI.Timeout = viper.GetDuration("openai.timeout")
	cfg.OpenAI.MaxRetries = viper.GetInt("openai.max_retries")
}

// anchorPhrases decodes the signature anchors. Environment variables arrive
// as a single string and are split on "|" or ","; phrases keep their inner
// spaces.
func anchorPhrases(v any) []string {
	s, ok := v.(string)
	if !ok {
		return viper.GetStringSlice("signature.anchors")
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	phrases := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	if err := ensureDir(c.PDFDirectory); err != nil {
		return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
	}
	if c.OutputDirectory != "" {
		if err := ensureDir(c.OutputDirectory); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.SignatureWidth <= 0 || c.SignatureHeight <= 0 {
		return errors.New("signature width and height must be positive")
	}
	if c.SignatureImage != "" {
		info, err := os.Stat(c.SignatureImage)
		if err != nil {
			return fmt.Errorf("cannot access signature image %s: %w", c.SignatureImage, err)
		}
		if info.IsDir() {
			return fmt.Errorf("signature image %s is a directory", c.SignatureImage)
		}
	}
	for _, phrase := range c.AnchorPhrases {
		if strings.TrimSpace(phrase) == "" {
			return errors.New("anchor phrases cannot be blank")
		}
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return errors.New("openai temperature must be between 0 and 2")
	}
	if c.OpenAI.MaxRetries < 0 {
		return errors.New("openai max retries cannot be negative")
	}

	return nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, DefaultDirPerm)
	} else if err != nil {
		return err
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// HasOpenAIKey reports whether value generation can be used
func (c *Config) HasOpenAIKey() bool {
	return c.OpenAI.APIKey != ""
}

// String returns a string representation of the configuration. The API
// key is never included.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, SignatureImage: %s, Model: %s, APIKeySet: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.SignatureImage, c.OpenAI.Model, c.HasOpenAIKey())
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
