// Package phylo holds the reference phylogeny: Newick parsing, outgroup
// rooting and pruning, selection annotation and SVG rendering.
package phylo

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoOutgroup is returned when no tip matches the outgroup pattern.
var ErrNoOutgroup = errors.New("phylo: no tip matches outgroup pattern")

// ErrEmptyTree is returned when pruning would remove every tip.
var ErrEmptyTree = errors.New("phylo: tree has no remaining tips")

// Node is a vertex of a Tree. Nodes are never modified once a Tree has been
// built; every transformation copies.
type Node struct {
	name     string
	length   float64
	children []*Node
}

// Name is the tip label or internal node label (possibly empty).
func (n *Node) Name() string { return n.name }

// Length is the branch length to the parent.
func (n *Node) Length() float64 { return n.length }

// IsTip reports whether the node is a leaf.
func (n *Node) IsTip() bool { return len(n.children) == 0 }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) clone() *Node {
	c := &Node{name: n.name, length: n.length}
	if len(n.children) > 0 {
		c.children = make([]*Node, len(n.children))
		for i, child := range n.children {
			c.children[i] = child.clone()
		}
	}
	return c
}

// Tree is an immutable rooted tree. A single Tree is safe to share between
// goroutines.
type Tree struct {
	root *Node
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// TipNodes returns the leaves in left-to-right order.
func (t *Tree) TipNodes() []*Node {
	var out []*Node
	walk(t.root, func(n *Node) {
		if n.IsTip() {
			out = append(out, n)
		}
	})
	return out
}

// InternalNodes returns the internal nodes in preorder, root first.
func (t *Tree) InternalNodes() []*Node {
	var out []*Node
	walk(t.root, func(n *Node) {
		if !n.IsTip() {
			out = append(out, n)
		}
	})
	return out
}

// Tips returns the tip labels in canonical order.
func (t *Tree) Tips() []string {
	return names(t.TipNodes())
}

// NodeNames returns the internal node labels in canonical order.
func (t *Tree) NodeNames() []string {
	return names(t.InternalNodes())
}

// String renders the tree back to Newick.
func (t *Tree) String() string {
	var b strings.Builder
	writeNewick(&b, t.root)
	b.WriteByte(';')
	return b.String()
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.name
	}
	return out
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		walk(c, fn)
	}
}

func writeNewick(b *strings.Builder, n *Node) {
	if len(n.children) > 0 {
		b.WriteByte('(')
		for i, c := range n.children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewick(b, c)
		}
		b.WriteByte(')')
	}
	if strings.ContainsAny(n.name, "(),:;[]' \t") {
		b.WriteString("'" + strings.ReplaceAll(n.name, "'", "''") + "'")
	} else {
		b.WriteString(n.name)
	}
	if n.length != 0 {
		fmt.Fprintf(b, ":%g", n.length)
	}
}

// LoadReferenceTree parses a Newick tree, roots it on the clade of tips whose
// label contains outgroup and then drops those tips.
func LoadReferenceTree(r io.Reader, outgroup string) (*Tree, error) {
	tree, err := Parse(r)
	if err != nil {
		return nil, err
	}
	rooted, err := tree.RootOn(outgroup)
	if err != nil {
		return nil, fmt.Errorf("root on %q: %w", outgroup, err)
	}
	pruned, err := rooted.DropTips(outgroup)
	if err != nil {
		return nil, fmt.Errorf("drop %q: %w", outgroup, err)
	}
	return pruned, nil
}
