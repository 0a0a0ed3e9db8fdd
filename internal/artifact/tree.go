package artifact

import "strings"

// NodeType distinguishes files from folders in the tree projection.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// Node is one entry of the hierarchical file tree derived from a step
// collection. Folders own their children in first-seen order.
type Node struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     NodeType `json:"type"`
	Content  string   `json:"content,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// BuildTree projects steps onto a folder/file hierarchy over the
// /-delimited path segments. The tree is rebuilt in full on every
// call; expected file counts are small enough that incremental
// diffing is not worth the bookkeeping. A later step for an existing
// path overwrites the file's content in place (last write wins).
func BuildTree(steps []Step) []*Node {
	var roots []*Node
	index := make(map[string]*Node)

	for _, step := range steps {
		if step.FilePath == "" {
			continue
		}
		parts := strings.Split(step.FilePath, "/")
		var parent *Node
		prefix := ""
		for i, part := range parts {
			if part == "" {
				continue
			}
			if prefix == "" {
				prefix = part
			} else {
				prefix = prefix + "/" + part
			}
			node, ok := index[prefix]
			if !ok {
				node = &Node{Name: part, Path: prefix, Type: NodeFolder}
				if i == len(parts)-1 {
					node.Type = NodeFile
				}
				index[prefix] = node
				if parent == nil {
					roots = append(roots, node)
				} else {
					parent.Children = append(parent.Children, node)
				}
			}
			if i == len(parts)-1 && node.Type == NodeFile {
				node.Content = step.Content
			}
			parent = node
		}
	}
	return roots
}

// FlattenFiles walks the tree depth-first and returns the file nodes
// in tree order.
func FlattenFiles(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Type == NodeFile {
			out = append(out, n)
			continue
		}
		out = append(out, FlattenFiles(n.Children)...)
	}
	return out
}
