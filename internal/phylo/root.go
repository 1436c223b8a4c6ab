package phylo

import (
	"fmt"
	"strings"
)

// RootOn returns a copy of the tree rooted on the branch above the smallest
// clade containing every tip whose label contains pattern. When that clade
// spans the current root, the complementary clade defines the same branch.
// The root branch is split in half between the two sides.
func (t *Tree) RootOn(pattern string) (*Tree, error) {
	parents := make(map[*Node]*Node)
	var in, out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.IsTip() {
			if strings.Contains(n.name, pattern) {
				in = append(in, n)
			} else {
				out = append(out, n)
			}
			return
		}
		for _, c := range n.children {
			parents[c] = n
			visit(c)
		}
	}
	visit(t.root)
	if len(in) == 0 {
		return nil, ErrNoOutgroup
	}

	target := mrca(in, parents)
	if target == t.root {
		if len(out) == 0 {
			return nil, ErrEmptyTree
		}
		target = mrca(out, parents)
		if target == t.root {
			return nil, fmt.Errorf("phylo: outgroup %q is not monophyletic", pattern)
		}
	}
	return &Tree{root: rootAbove(target, parents)}, nil
}

func mrca(nodes []*Node, parents map[*Node]*Node) *Node {
	anc := nodes[0]
	for _, n := range nodes[1:] {
		onPath := make(map[*Node]bool)
		for a := anc; a != nil; a = parents[a] {
			onPath[a] = true
		}
		for b := n; b != nil; b = parents[b] {
			if onPath[b] {
				anc = b
				break
			}
		}
	}
	return anc
}

func rootAbove(x *Node, parents map[*Node]*Node) *Node {
	half := x.length / 2
	side := x.clone()
	side.length = half
	rest := reorient(parents[x], x, half, parents)
	if rest == nil {
		side.length = 0
		return side
	}
	return &Node{children: []*Node{side, rest}}
}

// reorient copies n as a child hanging from the subtree it used to parent
// (from), turning the path towards the old root upside down. The old root
// collapses away when it is left with a single child.
func reorient(n, from *Node, length float64, parents map[*Node]*Node) *Node {
	out := &Node{name: n.name, length: length}
	for _, c := range n.children {
		if c == from {
			continue
		}
		out.children = append(out.children, c.clone())
	}
	p, hasParent := parents[n]
	if hasParent {
		out.children = append(out.children, reorient(p, n, n.length, parents))
		return out
	}
	switch len(out.children) {
	case 0:
		return nil
	case 1:
		only := out.children[0]
		only.length += length
		return only
	}
	return out
}

// DropTips returns a copy of the tree without the tips whose label contains
// pattern. Clades left empty are removed and nodes left with a single child
// are merged into that child, summing branch lengths.
func (t *Tree) DropTips(pattern string) (*Tree, error) {
	root := prune(t.root, pattern)
	if root == nil {
		return nil, ErrEmptyTree
	}
	root.length = t.root.length
	return &Tree{root: root}, nil
}

func prune(n *Node, pattern string) *Node {
	if n.IsTip() {
		if strings.Contains(n.name, pattern) {
			return nil
		}
		return &Node{name: n.name, length: n.length}
	}
	var kids []*Node
	for _, c := range n.children {
		if p := prune(c, pattern); p != nil {
			kids = append(kids, p)
		}
	}
	switch len(kids) {
	case 0:
		return nil
	case 1:
		kids[0].length += n.length
		return kids[0]
	}
	return &Node{name: n.name, length: n.length, children: kids}
}
