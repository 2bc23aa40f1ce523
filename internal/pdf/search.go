package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search discovers input documents in a directory
type Search struct {
	validator *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
	}
}

// FindInputs lists the PDFs directly inside directory, sorted by name.
// Files produced by earlier runs (filled_ and signed_ prefixes) and files
// failing the size checks are skipped.
func (s *Search) FindInputs(directory string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", directory)
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isPDFFile(entry.Name()) || IsGeneratedOutput(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// IsGeneratedOutput reports whether name looks like a pipeline output
func IsGeneratedOutput(name string) bool {
	return strings.HasPrefix(name, FilledPrefix) || strings.HasPrefix(name, SignedPrefix)
}

// isPDFFile checks if a file has a PDF extension
func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
