package filetree

import (
	"io"
	"strings"
)

// Render writes the tree as indented text, one node per line, in the same
// order as Children. Folders end with "/".
func Render(w io.Writer, root *Node) error {
	var b strings.Builder
	b.WriteString(root.Name + "/\n")
	renderChildren(&b, root.Children, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func renderChildren(b *strings.Builder, children []*Node, prefix string) {
	for i, child := range children {
		last := i == len(children)-1

		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		b.WriteString(prefix + branch + child.Name)
		if child.IsFolder() {
			b.WriteString("/")
		}
		b.WriteString("\n")

		if child.IsFolder() {
			renderChildren(b, child.Children, prefix+indent)
		}
	}
}
