// Package app wires configuration into the services shared by the
// command line entry points.
package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/a3tai/mcp-pdf-autofill/internal/config"
	"github.com/a3tai/mcp-pdf-autofill/internal/llm"
	"github.com/a3tai/mcp-pdf-autofill/internal/llm/openai"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/signature"
)

// ParseLevel maps a --loglevel value to a slog level; unknown values mean info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w. Stdout carries the MCP
// protocol in stdio mode, so callers pass stderr.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// NewGenerator builds the OpenAI value generator. It returns nil when no
// API key is configured; Autofill then fails with a MissingCredential error.
func NewGenerator(cfg *config.Config, logger *slog.Logger) (llm.ValueGenerator, error) {
	if !cfg.HasOpenAIKey() {
		logger.Warn("app.generator.disabled", "reason", "no OpenAI API key")
		return nil, nil
	}

	client, err := openai.NewClient(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: float32(cfg.OpenAI.Temperature),
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
		MaxRetries:  cfg.OpenAI.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("app.generator.ready", "model", client.Model())
	return client, nil
}

// NewService builds the pipeline service described by cfg
func NewService(cfg *config.Config, logger *slog.Logger, opts ...pdf.Option) (*pdf.Service, error) {
	generator, err := NewGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	all := []pdf.Option{pdf.WithLogger(logger)}
	if generator != nil {
		all = append(all, pdf.WithGenerator(generator))
	}
	all = append(all, opts...)

	return pdf.NewService(pdf.Options{
		MaxFileSize:     cfg.MaxFileSize,
		InputDirectory:  cfg.PDFDirectory,
		OutputDirectory: cfg.OutputDirectory,
		SignatureImage:  cfg.SignatureImage,
		AnchorPhrases:   cfg.AnchorPhrases,
		Geometry: signature.Geometry{
			Width:              cfg.SignatureWidth,
			Height:             cfg.SignatureHeight,
			VerticalAdjustment: cfg.VerticalAdjustment,
		},
		LegacyFlagQuirk: cfg.LegacyFlagQuirk,
	}, all...)
}
