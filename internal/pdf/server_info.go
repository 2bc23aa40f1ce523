package pdf

import (
	"context"
	"sync"
	"time"

	"github.com/a3tai/mcp-pdf-autofill/internal/descriptions"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/signature"
)

// DefaultInfoCacheTTL is how long a directory listing is reused by
// GetServerInfo.
const DefaultInfoCacheTTL = 30 * time.Second

// ToolInfo describes one registered tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents the server status report
type ServerInfoResult struct {
	ServerName      string     `json:"server_name"`
	Version         string     `json:"version"`
	InputDirectory  string     `json:"input_directory"`
	OutputDirectory string     `json:"output_directory"`
	MaxFileSize     int64      `json:"max_file_size"`
	SignatureImage  string     `json:"signature_image,omitempty"`
	AnchorPhrases   []string   `json:"anchor_phrases"`
	CanAutofill     bool       `json:"can_autofill"`
	PendingInputs   []FileInfo `json:"pending_inputs"`
	FromCache       bool       `json:"from_cache"`
	AvailableTools  []ToolInfo `json:"available_tools"`
}

// DirectoryCache provides TTL-based caching for directory listings
type DirectoryCache struct {
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves cached directory contents if still valid
func (c *DirectoryCache) Get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &cacheEntry{files: files, lastUpdate: c.now()}
}

// Invalidate drops the cached listing for path
func (c *DirectoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for path, entry := range c.entries {
		if now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// ServerInfo builds status reports for the pdf_server_info tool
type ServerInfo struct {
	service *Service
	cache   *DirectoryCache
}

// NewServerInfo creates a server info handler backed by service
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		service: service,
		cache:   NewDirectoryCache(DefaultInfoCacheTTL),
	}
}

// Refresh forgets the cached input listing, e.g. after a batch run
func (p *ServerInfo) Refresh() {
	p.cache.Invalidate(p.service.InputDirectory())
}

// GetServerInfo reports configuration and the input documents not yet
// processed. A listing failure yields an empty list rather than an error.
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := p.service.InputDirectory()
	files, fromCache := p.cache.Get(dir)
	if !fromCache {
		var err error
		files, err = p.service.search.FindInputs(dir)
		if err != nil {
			p.service.logger.Warn("server.info.scan_failed", "directory", dir, "error", err)
			files = []FileInfo{}
		}
		p.cache.Set(dir, files)
	}
	if files == nil {
		files = []FileInfo{}
	}

	anchors := p.service.opts.AnchorPhrases
	if len(anchors) == 0 {
		anchors = append([]string(nil), signature.DefaultAnchorPhrases...)
	}

	return &ServerInfoResult{
		ServerName:      serverName,
		Version:         version,
		InputDirectory:  dir,
		OutputDirectory: p.service.OutputDirectory(),
		MaxFileSize:     p.service.GetMaxFileSize(),
		SignatureImage:  p.service.opts.SignatureImage,
		AnchorPhrases:   anchors,
		CanAutofill:     p.service.HasGenerator(),
		PendingInputs:   files,
		FromCache:       fromCache,
		AvailableTools:  availableTools(),
	}, nil
}

var toolParameters = map[string]string{
	"pdf_extract_fields":    "path (required): PDF file, absolute or relative to the input directory",
	"pdf_autofill":          "path (required), output_path (optional), context (optional): free text about the applicant",
	"pdf_sign":              "path (required), output_path (optional)",
	"pdf_process":           "path (required), context (optional)",
	"pdf_process_directory": "directory (optional, defaults to the input directory), context (optional)",
	"pdf_server_info":       "none",
}

func availableTools() []ToolInfo {
	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Parameters:  toolParameters[name],
		})
	}
	return tools
}
