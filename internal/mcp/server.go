package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-autofill/internal/config"
	"github.com/a3tai/mcp-pdf-autofill/internal/descriptions"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/extraction"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	serverInfo *pdf.ServerInfo
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list is fixed
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		serverInfo: pdf.NewServerInfo(pdfService),
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_extract_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_extract_fields")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file, absolute or relative to the input directory"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_autofill",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_autofill")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF form to fill"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to write the filled copy (defaults to filled_<name> in the output directory)"),
		),
		mcp.WithString("context",
			mcp.Description("Free text about the person or entity the form is for"),
		),
	), s.handleAutofill)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_sign",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_sign")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF document to sign"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to write the signed copy (defaults to signed_<name> in the output directory)"),
		),
	), s.handleSign)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_process",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_process")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF form to fill and sign"),
		),
		mcp.WithString("context",
			mcp.Description("Free text about the person or entity the form is for"),
		),
	), s.handleProcess)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_process_directory",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_process_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the input directory if empty)"),
		),
		mcp.WithString("context",
			mcp.Description("Free text used for every document"),
		),
	), s.handleProcessDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	), s.handleServerInfo)
}

// Handler functions

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ExtractFields(pdf.ExtractFieldsRequest{Path: path})
	if err != nil {
		return s.toolError("pdf_extract_fields", err), nil
	}

	fieldsJSON, err := extraction.MarshalFields(result.Fields)
	if err != nil {
		return s.toolError("pdf_extract_fields", err), nil
	}

	text := fmt.Sprintf("Form fields of %s (%d):\n%s", result.Path, result.Count, fieldsJSON)
	if required := requiredFields(result.Fields); len(required) > 0 {
		text += "\nRequired fields: " + strings.Join(required, ", ")
	}
	return mcp.NewToolResultText(text), nil
}

func requiredFields(fields []extraction.FieldDescriptor) []string {
	var names []string
	for _, f := range fields {
		if f.Flags != nil && f.Flags.Has(extraction.FlagRequired) && f.FieldName() != "" {
			names = append(names, f.FieldName())
		}
	}
	return names
}

func (s *Server) handleAutofill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	result, err := s.pdfService.Autofill(ctx, pdf.AutofillRequest{
		Path:       path,
		OutputPath: stringArg(args, "output_path"),
		Context:    stringArg(args, "context"),
	})
	if err != nil {
		return s.toolError("pdf_autofill", err), nil
	}

	return mcp.NewToolResultText(s.formatAutofillResult(result)), nil
}

func (s *Server) handleSign(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Sign(ctx, pdf.SignRequest{
		Path:       path,
		OutputPath: stringArg(request.GetArguments(), "output_path"),
	})
	if err != nil {
		return s.toolError("pdf_sign", err), nil
	}

	return mcp.NewToolResultText(s.formatSignResult(result)), nil
}

func (s *Server) handleProcess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Process(ctx, pdf.ProcessRequest{
		Path:    path,
		Context: stringArg(request.GetArguments(), "context"),
	})
	if err != nil {
		return s.toolError("pdf_process", err), nil
	}

	text := s.formatAutofillResult(result.Autofill) + "\n" + s.formatSignResult(result.Sign)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleProcessDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	result, err := s.pdfService.ProcessDirectory(ctx, pdf.ProcessDirectoryRequest{
		Directory: stringArg(args, "directory"),
		Context:   stringArg(args, "context"),
	})
	s.serverInfo.Refresh()
	if err != nil {
		if result == nil {
			return s.toolError("pdf_process_directory", err), nil
		}
		text := s.formatProcessDirectoryResult(result) + "\nStopped: " + err.Error()
		return mcp.NewToolResultError(text), nil
	}

	return mcp.NewToolResultText(s.formatProcessDirectoryResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.serverInfo.GetServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return s.toolError("pdf_server_info", err), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// toolError logs a failed call and turns it into a tool result error
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, "mcp.tool.failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Formatting methods

func (s *Server) formatAutofillResult(result *pdf.AutofillResult) string {
	text := fmt.Sprintf("Filled %s\n", result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Fields: %d, filled: %d\n", result.FieldCount, len(result.Filled))
	if len(result.Unmatched) > 0 {
		text += fmt.Sprintf("Values without a matching field: %s\n", strings.Join(result.Unmatched, ", "))
	}
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("Skipped (null value): %s\n", strings.Join(result.Skipped, ", "))
	}
	if values, err := json.MarshalIndent(result.Values, "", "  "); err == nil {
		text += fmt.Sprintf("Values:\n%s\n", values)
	}
	return text
}

func (s *Server) formatSignResult(result *pdf.SignResult) string {
	text := fmt.Sprintf("Signed %s\n", result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	if len(result.Anchors) == 0 {
		text += "No signature anchor found; the document was copied unchanged\n"
		return text
	}

	text += fmt.Sprintf("Signatures placed: %d on %d page(s)\n", len(result.Placements), result.PagesSigned)
	for i, p := range result.Placements {
		text += fmt.Sprintf("%d. Page %d, anchor %q at (%.1f, %.1f)-(%.1f, %.1f)\n",
			i+1, p.PageIndex+1, p.Phrase, p.Rect.X0, p.Rect.Y0, p.Rect.X1, p.Rect.Y1)
	}
	return text
}

func (s *Server) formatProcessDirectoryResult(result *pdf.ProcessDirectoryResult) string {
	text := fmt.Sprintf("Directory: %s\n", result.Directory)
	text += fmt.Sprintf("Documents found: %d, processed: %d\n", result.Found, len(result.Processed))
	for i, p := range result.Processed {
		text += fmt.Sprintf("%d. %s -> %s\n", i+1, p.Path, p.SignedPath)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("Input Directory: %s\n", result.InputDirectory)
	text += fmt.Sprintf("Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Autofill available: %t\n", result.CanAutofill)
	if result.SignatureImage != "" {
		text += fmt.Sprintf("Signature Image: %s\n", result.SignatureImage)
	} else {
		text += "Signature Image: not configured\n"
	}
	text += fmt.Sprintf("Anchor Phrases: %s\n\n", strings.Join(result.AnchorPhrases, ", "))

	if len(result.PendingInputs) > 0 {
		text += fmt.Sprintf("Pending Documents (%d):\n", len(result.PendingInputs))
		for i, file := range result.PendingInputs {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.PendingInputs)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
	} else {
		text += "Pending Documents: none\n"
	}

	text += "\nAvailable Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("• %s: %s\n", tool.Name, tool.Parameters)
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("mcp.stdio.start", "input_dir", s.pdfService.InputDirectory(),
		"output_dir", s.pdfService.OutputDirectory())

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp.sse.start", "address", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("mcp.sse.shutdown", "address", addr)
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down sse server: %w", err)
		}
		return nil
	}
}
