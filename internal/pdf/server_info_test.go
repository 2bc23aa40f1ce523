package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-autofill/internal/descriptions"
)

func TestServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "form.pdf", formDocument())
	writeInput(t, dir, "filled_form.pdf", formDocument())

	svc := newTestService(t, dir)
	info := NewServerInfo(svc)

	result, err := info.GetServerInfo(context.Background(), "test-server", "1.0.0-test")
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, svc.InputDirectory(), result.InputDirectory)
	assert.Equal(t, int64(testMaxFileSize), result.MaxFileSize)
	assert.False(t, result.CanAutofill)
	assert.False(t, result.FromCache)
	assert.Equal(t, []string{"Signature", "Sign Here", "Authorized Signatory"}, result.AnchorPhrases)

	require.Len(t, result.PendingInputs, 1)
	assert.Equal(t, "form.pdf", result.PendingInputs[0].Name)

	names := make([]string, 0, len(result.AvailableTools))
	for _, tool := range result.AvailableTools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Parameters, tool.Name)
	}
	assert.Equal(t, descriptions.GetAllToolNames(), names)
}

func TestServerInfo_UsesCache(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	info := NewServerInfo(svc)

	first, err := info.GetServerInfo(context.Background(), "s", "v")
	require.NoError(t, err)
	assert.Empty(t, first.PendingInputs)

	writeInput(t, dir, "late.pdf", formDocument())

	cached, err := info.GetServerInfo(context.Background(), "s", "v")
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Empty(t, cached.PendingInputs)

	info.Refresh()
	fresh, err := info.GetServerInfo(context.Background(), "s", "v")
	require.NoError(t, err)
	assert.False(t, fresh.FromCache)
	assert.Len(t, fresh.PendingInputs, 1)
}

func TestDirectoryCache_Expiry(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("/docs", []FileInfo{{Name: "a.pdf"}})
	files, ok := cache.Get("/docs")
	require.True(t, ok)
	assert.Len(t, files, 1)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("/docs")
	assert.False(t, ok)

	cache.Clear()
	assert.Empty(t, cache.entries)
}

func TestServerInfo_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	require.NoError(t, os.RemoveAll(dir))

	result, err := NewServerInfo(svc).GetServerInfo(context.Background(), "s", "v")
	require.NoError(t, err)
	assert.Empty(t, result.PendingInputs)
	assert.Equal(t, filepath.Clean(svc.InputDirectory()), result.InputDirectory)
}
