package archive

import (
	"errors"
	"testing"

	"ai-forge/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_RoundTrip(t *testing.T) {
	files := models.NewFileSet()
	files.Set("a.txt", "hello")

	data, err := Export(files)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	unpacked, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "hello"}, unpacked.Map())
}

func TestExport_NestedPathsKeepOrder(t *testing.T) {
	files := models.NewFileSet()
	files.Set("app/page.tsx", "export default function Page() {}")
	files.Set("app/components/button.tsx", "export function Button() {}")
	files.Set("README.md", "# Todo\n")

	data, err := Export(files)
	require.NoError(t, err)

	unpacked, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, files.Paths(), unpacked.Paths())
	assert.Equal(t, files.Map(), unpacked.Map())
}

func TestExport_Empty(t *testing.T) {
	_, err := Export(models.NewFileSet())
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, err = Export(nil)
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func TestExport_NormalizesEntryNames(t *testing.T) {
	files := models.NewFileSet()
	files.Set("/app/page.tsx", "page")
	files.Set("./lib//util.ts", "util")

	data, err := Export(files)
	require.NoError(t, err)

	unpacked, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/page.tsx", "lib/util.ts"}, unpacked.Paths())
}

func TestExport_RejectsInvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		bad  string
	}{
		{"escaping", []string{"ok.txt", "../x"}, "../x"},
		{"escaping after cleaning", []string{"app/../../etc/passwd"}, "app/../../etc/passwd"},
		{"blank", []string{"   "}, "   "},
		{"root only", []string{"/"}, "/"},
		{"duplicate after normalization", []string{"a.txt", "./a.txt"}, "./a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := models.NewFileSet()
			for _, k := range tt.keys {
				files.Set(k, "content")
			}

			data, err := Export(files)
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, ErrInvalidPath))

			var eerr *ExportError
			require.True(t, errors.As(err, &eerr))
			assert.Equal(t, tt.bad, eerr.Path)
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Todo App", "todo-app.zip"},
		{"  My   Cool\tProject ", "my-cool-project.zip"},
		{"already-slugged", "already-slugged.zip"},
		{`quote"d/name`, "quotedname.zip"},
		{"", DefaultFilename},
		{"   ", DefaultFilename},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.in))
		})
	}
}
