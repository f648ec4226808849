package models

import (
	"bytes"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FileSet maps relative, forward-slash separated file paths to file content.
// Iteration follows insertion order, which is also the order keys appeared in
// decoded JSON. The zero value is an empty set ready to use.
type FileSet struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewFileSet creates an empty FileSet
func NewFileSet() *FileSet {
	return &FileSet{m: orderedmap.New[string, string]()}
}

func (f *FileSet) init() {
	if f.m == nil {
		f.m = orderedmap.New[string, string]()
	}
}

// Set stores content at path. Overwriting keeps the original position.
func (f *FileSet) Set(path, content string) {
	f.init()
	f.m.Set(path, content)
}

// Get returns the content stored at path
func (f *FileSet) Get(path string) (string, bool) {
	if f == nil || f.m == nil {
		return "", false
	}
	return f.m.Get(path)
}

// Len returns the number of files
func (f *FileSet) Len() int {
	if f == nil || f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Paths returns all paths in insertion order
func (f *FileSet) Paths() []string {
	paths := make([]string, 0, f.Len())
	for p := range f.All() {
		paths = append(paths, p)
	}
	return paths
}

// All iterates over (path, content) pairs in insertion order
func (f *FileSet) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if f == nil || f.m == nil {
			return
		}
		for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the set
func (f *FileSet) Map() map[string]string {
	out := make(map[string]string, f.Len())
	for p, c := range f.All() {
		out[p] = c
	}
	return out
}

// MarshalJSON encodes the set as a JSON object in insertion order
func (f *FileSet) MarshalJSON() ([]byte, error) {
	if f == nil || f.m == nil || f.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return f.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, preserving key order. Values must be strings.
func (f *FileSet) UnmarshalJSON(data []byte) error {
	f.m = orderedmap.New[string, string]()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return f.m.UnmarshalJSON(data)
}
