package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSet_PreservesDecodedOrder(t *testing.T) {
	raw := `{"zeta.md":"z","app/page.tsx":"page","README.md":"readme"}`

	var fs FileSet
	require.NoError(t, json.Unmarshal([]byte(raw), &fs))

	assert.Equal(t, []string{"zeta.md", "app/page.tsx", "README.md"}, fs.Paths())

	out, err := json.Marshal(&fs)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Equal(t, raw, string(out))
}

func TestFileSet_ZeroValueAndNil(t *testing.T) {
	var nilSet *FileSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Empty(t, nilSet.Paths())
	_, ok := nilSet.Get("a")
	assert.False(t, ok)

	var zero FileSet
	zero.Set("a.txt", "hello")
	content, ok := zero.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", content)

	out, err := json.Marshal(NewFileSet())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestFileSet_NullAndInvalidValues(t *testing.T) {
	var fs FileSet
	require.NoError(t, json.Unmarshal([]byte("null"), &fs))
	assert.Equal(t, 0, fs.Len())

	var bad FileSet
	assert.Error(t, json.Unmarshal([]byte(`{"a.txt": 42}`), &bad))
}

func TestFileSet_OverwriteKeepsPosition(t *testing.T) {
	fs := NewFileSet()
	fs.Set("first", "1")
	fs.Set("second", "2")
	fs.Set("first", "updated")

	assert.Equal(t, []string{"first", "second"}, fs.Paths())
	content, _ := fs.Get("first")
	assert.Equal(t, "updated", content)
	assert.Equal(t, 2, fs.Len())
}
