package filetree

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"ai-forge/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileSet(pairs ...string) *models.FileSet {
	fs := models.NewFileSet()
	for i := 0; i+1 < len(pairs); i += 2 {
		fs.Set(pairs[i], pairs[i+1])
	}
	return fs
}

func childNames(n *Node) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

func TestBuild_NextAppLayout(t *testing.T) {
	files := fileSet(
		"app/page.tsx", "export default function Page() {}",
		"app/components/button.tsx", "export function Button() {}",
		"README.md", "# Todo",
	)

	root, err := Build(files)
	require.NoError(t, err)

	assert.Equal(t, RootName, root.Name)
	assert.Equal(t, "", root.Path)
	assert.Equal(t, TypeFolder, root.Type)
	assert.Equal(t, []string{"app", "README.md"}, childNames(root))

	app := root.Child("app")
	require.NotNil(t, app)
	assert.Equal(t, TypeFolder, app.Type)
	assert.Equal(t, "app", app.Path)
	assert.Equal(t, []string{"page.tsx", "components"}, childNames(app))

	page := app.Child("page.tsx")
	require.NotNil(t, page)
	assert.Equal(t, TypeFile, page.Type)
	assert.Equal(t, "app/page.tsx", page.Path)
	assert.Nil(t, page.Children)

	components := app.Child("components")
	require.NotNil(t, components)
	assert.Equal(t, TypeFolder, components.Type)
	assert.Equal(t, "app/components", components.Path)
	assert.Equal(t, []string{"button.tsx"}, childNames(components))

	readme := root.Child("README.md")
	require.NotNil(t, readme)
	assert.Equal(t, TypeFile, readme.Type)
}

func TestBuild_RoundTripAndUniqueSiblings(t *testing.T) {
	files := fileSet(
		"src/index.ts", "1",
		"src/lib/util.ts", "2",
		"src/lib/deep/a.ts", "3",
		"src/lib/deep/b.ts", "4",
		"package.json", "{}",
		"src/app.ts", "5",
		"docs/guide/intro.md", "6",
	)

	root, err := Build(files)
	require.NoError(t, err)

	got := FilePaths(root)
	want := files.Paths()
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)

	var check func(n *Node)
	check = func(n *Node) {
		seen := map[string]bool{}
		for _, c := range n.Children {
			assert.False(t, seen[c.Name], "duplicate sibling %q under %q", c.Name, n.Path)
			seen[c.Name] = true
			if c.Type == TypeFile {
				assert.Nil(t, c.Children)
			} else {
				assert.NotNil(t, c.Children)
				check(c)
			}
		}
	}
	check(root)
}

func TestBuild_Deterministic(t *testing.T) {
	files := fileSet("b/x.go", "x", "a/y.go", "y", "b/z.go", "z")

	first, err := Build(files)
	require.NoError(t, err)
	second, err := Build(files)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestBuild_EmptySet(t *testing.T) {
	root, err := Build(models.NewFileSet())
	require.NoError(t, err)
	assert.Equal(t, TypeFolder, root.Type)
	assert.NotNil(t, root.Children)
	assert.Empty(t, root.Children)

	root, err = Build(nil)
	require.NoError(t, err)
	assert.Empty(t, root.Children)
}

func TestBuild_Conflicts(t *testing.T) {
	tests := []struct {
		name   string
		files  *models.FileSet
		file   string
		nested string
	}{
		{"file then nested", fileSet("a", "1", "a/b", "2"), "a", "a/b"},
		{"nested then file", fileSet("a/b", "2", "a", "1"), "a", "a/b"},
		{"deep conflict", fileSet("src/lib", "1", "src/lib/x/y.ts", "2"), "src/lib", "src/lib/x/y.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(tt.files)
			assert.Nil(t, root)

			var conflict *PathConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tt.file, conflict.File)
			assert.Equal(t, tt.nested, conflict.Nested)
			assert.Error(t, ValidatePaths(tt.files))
		})
	}
}

func TestBuild_SkipsUnplaceablePaths(t *testing.T) {
	for _, p := range []string{"", "/abs.txt", "dir/", "a//b", "../escape", "a/./b"} {
		t.Run(p, func(t *testing.T) {
			files := fileSet(p, "content", "app/page.tsx", "ok")

			root, err := Build(files)
			require.NoError(t, err)
			assert.Equal(t, []string{"app/page.tsx"}, FilePaths(root))

			skipped := Unplaceable(files)
			require.Len(t, skipped, 1)
			assert.Equal(t, p, skipped[0].Path)
			assert.NoError(t, ValidatePaths(files))
		})
	}
}

func TestUnplaceable_None(t *testing.T) {
	assert.Empty(t, Unplaceable(fileSet("app/page.tsx", "x", "README.md", "y")))
	assert.Empty(t, Unplaceable(nil))
}

func TestNodeJSON(t *testing.T) {
	root, err := Build(fileSet("app/page.tsx", "x"))
	require.NoError(t, err)

	out, err := json.Marshal(root)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "root", "path": "", "type": "folder",
		"children": [{
			"name": "app", "path": "app", "type": "folder",
			"children": [{"name": "page.tsx", "path": "app/page.tsx", "type": "file"}]
		}]
	}`, string(out))

	empty, err := json.Marshal(&Node{Name: "root", Type: TypeFolder})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"root","path":"","type":"folder","children":[]}`, string(empty))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "app/page.tsx", want: "app/page.tsx"},
		{in: "./app/page.tsx", want: "app/page.tsx"},
		{in: "/app/page.tsx", want: "app/page.tsx"},
		{in: "app\\lib\\db.ts", want: "app/lib/db.ts"},
		{in: "app//lib/../page.tsx", want: "app/page.tsx"},
		{in: "  README.md ", want: "README.md"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: ".", wantErr: true},
		{in: "../secrets", wantErr: true},
		{in: "app/../../x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
