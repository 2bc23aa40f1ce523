package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator()
	assert.Error(t, err)

	_, err = NewPathValidator("", "")
	assert.Error(t, err)

	dir := t.TempDir()
	v, err := NewPathValidator(dir, "", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(dir), v.GetConfiguredDirectory())
	assert.Len(t, v.Roots(), 2)
}

func TestPathValidator_ValidatePath(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "form.pdf"), []byte("%PDF"), 0o600))

	v, err := NewPathValidator(in, out)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing file in input dir", filepath.Join(in, "form.pdf"), false},
		{"input dir itself", in, false},
		{"new file in output dir", filepath.Join(out, "filled_form.pdf"), false},
		{"new file in missing subdir", filepath.Join(out, "a", "b", "x.pdf"), false},
		{"outside", filepath.Join(other, "x.pdf"), true},
		{"traversal", filepath.Join(in, "..", filepath.Base(other), "x.pdf"), true},
		{"prefix sibling", in + "-evil/x.pdf", true},
		{"empty", "", true},
		{"nul byte", in + "/x\x00.pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	in := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(in, "link")))

	v, err := NewPathValidator(in)
	require.NoError(t, err)

	assert.Error(t, v.ValidatePath(filepath.Join(in, "link", "secret.pdf")))
	assert.Error(t, v.ValidatePath(filepath.Join(in, "link", "new.pdf")))
}

func TestPathValidator_Resolve(t *testing.T) {
	in := t.TempDir()
	v, err := NewPathValidator(in)
	require.NoError(t, err)

	got, err := v.Resolve("forms/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(in, "forms", "a.pdf"), got)

	_, err = v.Resolve("../escape.pdf")
	assert.Error(t, err)

	_, err = v.Resolve("")
	assert.Error(t, err)
}

func TestPathValidator_ValidateDirectory(t *testing.T) {
	in := t.TempDir()
	file := filepath.Join(in, "a.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF"), 0o600))

	v, err := NewPathValidator(in)
	require.NoError(t, err)

	assert.NoError(t, v.ValidateDirectory(in))
	assert.NoError(t, v.ValidateDirectory(filepath.Join(in, "later")))
	assert.Error(t, v.ValidateDirectory(file))
	assert.Error(t, v.ValidateDirectory(t.TempDir()))
}
