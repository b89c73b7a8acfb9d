package files

import (
	"context"
	"path"
)

// Node is one entry in a project tree.
type Node struct {
	Entry
	Children []*Node
}

// TreeOptions bounds tree construction.
type TreeOptions struct {
	Filter Filter

	// MaxDepth limits recursion; 0 means unlimited.
	MaxDepth int
}

// Tree builds the filtered, sorted tree rooted at root (getFileTree).
func Tree(ctx context.Context, fsys FS, root string, opts TreeOptions) (*Node, error) {
	node := &Node{Entry: Entry{Name: path.Base(root), Path: root, IsDir: true}}
	if err := fillTree(ctx, fsys, node, opts, 1); err != nil {
		return nil, err
	}
	return node, nil
}

func fillTree(ctx context.Context, fsys FS, node *Node, opts TreeOptions, depth int) error {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := DirectoryContents(ctx, fsys, node.Path, opts.Filter)
	if err != nil {
		return err
	}

	node.Children = make([]*Node, 0, len(entries))
	for _, e := range entries {
		child := &Node{Entry: e}
		if e.IsDir {
			if err := fillTree(ctx, fsys, child, opts, depth+1); err != nil {
				return err
			}
		}
		node.Children = append(node.Children, child)
	}
	return nil
}

// Walk visits every node depth-first, parents before children.
func (n *Node) Walk(fn func(n *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(n *Node, depth int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
