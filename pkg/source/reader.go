// Package source reads the project files that the analyzer scans.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultExtensions are the source file types scanned when none are configured.
var DefaultExtensions = []string{".java", ".kt"}

// DefaultIgnoredDirs are skipped while walking a project.
var DefaultIgnoredDirs = []string{".git", "node_modules", "target", "build", ".idea"}

// File is a source file and its text.
type File struct {
	// Path is the file path as walked, rooted at the project root.
	Path string
	Text string
}

// Stem returns the file name without its extension, e.g. "OrderRepository".
func (f File) Stem() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Reader yields the source files under a root directory.
type Reader interface {
	ListFiles(root string) ([]File, error)
}

// FSReader reads source files from the local filesystem.
type FSReader struct {
	extensions  map[string]bool
	ignoredDirs map[string]bool
	logger      *zap.Logger
}

var _ Reader = (*FSReader)(nil)

// NewFSReader creates a reader for the given extensions and ignored directory
// names. Empty slices select the defaults.
func NewFSReader(extensions, ignoredDirs []string, logger *zap.Logger) *FSReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if len(ignoredDirs) == 0 {
		ignoredDirs = DefaultIgnoredDirs
	}

	r := &FSReader{
		extensions:  make(map[string]bool, len(extensions)),
		ignoredDirs: make(map[string]bool, len(ignoredDirs)),
		logger:      logger.Named("source"),
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.extensions[ext] = true
	}
	for _, dir := range ignoredDirs {
		r.ignoredDirs[strings.TrimSpace(dir)] = true
	}
	return r
}

// ListFiles walks root in lexical order and returns every matching file.
// Files and subdirectories that cannot be read are logged and skipped; only a
// root that cannot be walked is an error.
func (r *FSReader) ListFiles(root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			r.logger.Warn("Skipping unreadable path",
				zap.String("path", path),
				zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && r.ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !r.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable file",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		files = append(files, File{Path: path, Text: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk project root: %w", err)
	}

	r.logger.Debug("Listed source files",
		zap.String("root", root),
		zap.Int("count", len(files)))
	return files, nil
}
