package filetree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	root, err := Build(fileSet(
		"src/index.ts", "a",
		"src/utils/math.ts", "b",
		"README.md", "c",
	))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, Render(&b, root))

	want := "root/\n" +
		"├── src/\n" +
		"│   ├── index.ts\n" +
		"│   └── utils/\n" +
		"│       └── math.ts\n" +
		"└── README.md\n"
	assert.Equal(t, want, b.String())
}

func TestRenderEmpty(t *testing.T) {
	root, err := Build(fileSet())
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, Render(&b, root))
	assert.Equal(t, "root/\n", b.String())
}
