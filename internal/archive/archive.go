// Package archive packs a FileSet into a downloadable zip archive.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"ai-forge/internal/filetree"
	"ai-forge/pkg/models"
)

// ContentType is the MIME type of exported archives
const ContentType = "application/zip"

// DefaultFilename is used when no project name is given
const DefaultFilename = "project.zip"

var (
	// ErrNoFiles is returned when there is nothing to export
	ErrNoFiles = errors.New("no files to export")
	// ErrInvalidPath is wrapped by ExportError for keys that cannot be archive entries
	ErrInvalidPath = errors.New("invalid archive path")
)

// ExportError wraps a failure while building the archive
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to create zip archive: %v", e.Err)
	}
	return fmt.Sprintf("failed to add %q to zip archive: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Export builds an in-memory zip containing every file, in FileSet order
func Export(files *models.FileSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the zip archive for files into w. Entry names are the
// normalized relative paths; a key that is empty, escapes the archive root
// or collides with an earlier key after normalization fails the export
// before anything is written.
func Write(w io.Writer, files *models.FileSet) error {
	if files.Len() == 0 {
		return ErrNoFiles
	}

	names := make([]string, 0, files.Len())
	seen := make(map[string]string, files.Len())
	for path := range files.All() {
		name, err := filetree.NormalizePath(path)
		if err != nil {
			return &ExportError{Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidPath, err)}
		}
		if first, dup := seen[name]; dup {
			return &ExportError{Path: path, Err: fmt.Errorf("%w: duplicates %q as %q", ErrInvalidPath, first, name)}
		}
		seen[name] = path
		names = append(names, name)
	}

	zw := zip.NewWriter(w)
	modified := time.Now()

	i := 0
	for path, content := range files.All() {
		name := names[i]
		i++
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return &ExportError{Path: path, Err: err}
		}
		if _, err := io.WriteString(entry, content); err != nil {
			return &ExportError{Path: path, Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return &ExportError{Err: err}
	}
	return nil
}

// Read unpacks a zip archive back into a FileSet, in archive order
func Read(data []byte) (*models.FileSet, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := models.NewFileSet()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		files.Set(f.Name, string(content))
	}
	return files, nil
}

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`["\\/]`)
)

// Filename derives the download filename from a project name:
// lowercased, whitespace runs replaced with "-", plus ".zip".
func Filename(projectName string) string {
	name := strings.TrimSpace(projectName)
	if name == "" {
		return DefaultFilename
	}
	name = whitespace.ReplaceAllString(strings.ToLower(name), "-")
	name = unsafeChars.ReplaceAllString(name, "")
	if name == "" {
		return DefaultFilename
	}
	return name + ".zip"
}
