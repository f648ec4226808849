// Package filetree rebuilds a flat FileSet into a folder/file hierarchy for display.
package filetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"ai-forge/pkg/models"
)

// NodeType distinguishes files from folders
type NodeType string

const (
	TypeFile   NodeType = "file"
	TypeFolder NodeType = "folder"
)

// RootName is the name of the synthetic root folder
const RootName = "root"

// Node is one entry in the tree. Folders always carry a (possibly empty)
// Children slice; files never do.
type Node struct {
	Name     string
	Path     string
	Type     NodeType
	Children []*Node
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Type == TypeFolder
}

// Child returns the direct child with the given name
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type fileJSON struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Type NodeType `json:"type"`
}

type folderJSON struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children"`
}

// MarshalJSON emits children only for folders, as [] when empty
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Type == TypeFile {
		return json.Marshal(fileJSON{Name: n.Name, Path: n.Path, Type: n.Type})
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(folderJSON{Name: n.Name, Path: n.Path, Type: n.Type, Children: children})
}

// InvalidPathError is returned for paths that cannot be placed in a tree
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// PathConflictError is returned when one path is both a file and a folder,
// e.g. "a" and "a/b" in the same set.
type PathConflictError struct {
	File   string // path stored as a file
	Nested string // path that needs File to be a folder
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("path conflict: %q is a file but %q needs it to be a folder", e.File, e.Nested)
}

// Build constructs a fresh tree from files. Children keep the order in which
// their first path appeared in the set. Every file node's Path equals the
// FileSet key it came from. Keys that cannot be placed (see Unplaceable) are
// skipped; only file/folder conflicts fail the build.
func Build(files *models.FileSet) (*Node, error) {
	root := &Node{Name: RootName, Path: "", Type: TypeFolder, Children: []*Node{}}

	// full path -> node, for O(1) find-or-create
	index := map[string]*Node{"": root}

	for p := range files.All() {
		segments, err := splitPath(p)
		if err != nil {
			continue
		}

		current := root
		for i, segment := range segments {
			fullPath := strings.Join(segments[:i+1], "/")
			last := i == len(segments)-1
			existing, ok := index[fullPath]

			if last {
				if ok {
					// only a folder can already exist here, since keys are unique
					return nil, &PathConflictError{File: p, Nested: firstFileUnder(existing)}
				}
				node := &Node{Name: segment, Path: fullPath, Type: TypeFile}
				current.Children = append(current.Children, node)
				index[fullPath] = node
				break
			}

			if ok {
				if existing.Type == TypeFile {
					return nil, &PathConflictError{File: fullPath, Nested: p}
				}
				current = existing
				continue
			}

			folder := &Node{Name: segment, Path: fullPath, Type: TypeFolder, Children: []*Node{}}
			current.Children = append(current.Children, folder)
			index[fullPath] = folder
			current = folder
		}
	}

	return root, nil
}

// ValidatePaths reports the first file/folder conflict in files
func ValidatePaths(files *models.FileSet) error {
	_, err := Build(files)
	return err
}

// Unplaceable returns the keys Build skips, each as an *InvalidPathError,
// in FileSet order
func Unplaceable(files *models.FileSet) []*InvalidPathError {
	var skipped []*InvalidPathError
	for p := range files.All() {
		if _, err := splitPath(p); err != nil {
			var invalid *InvalidPathError
			if errors.As(err, &invalid) {
				skipped = append(skipped, invalid)
			}
		}
	}
	return skipped
}

// FilePaths lists the full paths of every file node, depth first
func FilePaths(root *Node) []string {
	var paths []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type == TypeFile {
			paths = append(paths, n.Path)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return paths
}

// NormalizePath turns a model-produced path into a clean relative path.
// Backslashes become slashes, leading "./" and "/" are dropped, and paths that
// escape the project root are rejected.
func NormalizePath(p string) (string, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "" {
		return "", &InvalidPathError{Path: p, Reason: "empty path"}
	}

	cleaned = path.Clean(cleaned)
	switch {
	case cleaned == ".":
		return "", &InvalidPathError{Path: p, Reason: "empty path"}
	case cleaned == ".." || strings.HasPrefix(cleaned, "../"):
		return "", &InvalidPathError{Path: p, Reason: "path escapes project root"}
	}
	return cleaned, nil
}

func splitPath(p string) ([]string, error) {
	if p == "" {
		return nil, &InvalidPathError{Path: p, Reason: "empty path"}
	}
	segments := strings.Split(p, "/")
	for _, s := range segments {
		switch s {
		case "":
			return nil, &InvalidPathError{Path: p, Reason: "empty path segment"}
		case ".", "..":
			return nil, &InvalidPathError{Path: p, Reason: "relative segment " + s}
		}
	}
	return segments, nil
}

func firstFileUnder(n *Node) string {
	if paths := FilePaths(n); len(paths) > 0 {
		return paths[0]
	}
	return n.Path
}
