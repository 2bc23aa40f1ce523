// Package security confines tool-supplied paths to the configured input
// and output directories.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks that paths resolve inside one of its roots. The
// first root is the base for relative paths.
type PathValidator struct {
	roots []string
}

// NewPathValidator creates a validator for the given directories. Empty
// entries are ignored but at least one root is required.
func NewPathValidator(roots ...string) (*PathValidator, error) {
	var cleaned []string
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %s: %w", r, err)
		}
		cleaned = append(cleaned, filepath.Clean(abs))
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{roots: cleaned}, nil
}

// GetConfiguredDirectory returns the primary (input) directory
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.roots[0]
}

// Roots returns all allowed directories
func (v *PathValidator) Roots() []string {
	out := make([]string, len(v.roots))
	copy(out, v.roots)
	return out
}

// ValidatePath checks that path is inside one of the roots. Symlinks are
// resolved for the longest existing prefix of the path, so output paths
// that do not exist yet are checked through their parent directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	resolved := resolveExisting(filepath.Clean(abs))

	for _, root := range v.roots {
		if within(resolved, resolveExisting(root)) {
			return nil
		}
	}
	return fmt.Errorf("path is outside configured directory: %s", path)
}

// Resolve makes a relative path absolute against the primary directory
// and validates the result.
func (v *PathValidator) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	path = strings.ReplaceAll(path, "\x00", "")
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.roots[0], path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidateDirectory checks that dirPath is inside a root and, when it
// exists, that it is a directory.
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of
// path and re-appends the missing tail.
func resolveExisting(path string) string {
	var tail []string
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}
