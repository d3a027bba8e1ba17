package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeIndex maps a node's id to its parent. It is built once per file and
// answers every ancestor query without holding owning references.
type nodeIndex map[uintptr]*sitter.Node

// parentOf returns the parent of node, or nil at the root.
func (idx nodeIndex) parentOf(node *sitter.Node) *sitter.Node {
	return idx[node.Id()]
}

// ancestors calls fn for each ancestor of node, nearest first, until fn
// returns false or the root is passed.
func (idx nodeIndex) ancestors(node *sitter.Node, fn func(*sitter.Node) bool) {
	for p := idx.parentOf(node); p != nil; p = idx.parentOf(p) {
		if !fn(p) {
			return
		}
	}
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree in pre-order and calls the
// visitor for each node. Returning false skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child.Kind() == "comment" {
			continue
		}
		results = append(results, child)
	}
	return results
}

// compactText rebuilds the node's source text from its tokens the way a
// printed expression would look: no spaces around '.' or inside brackets,
// single spaces elsewhere. String literals are kept verbatim and comments
// are dropped.
func compactText(node *sitter.Node, source []byte) string {
	var b strings.Builder
	var prev string
	prevEnd := uint(0)

	walkTree(node, func(n *sitter.Node) bool {
		switch {
		case n.Kind() == "comment", n.Kind() == "line_continuation":
			return false
		case n.ChildCount() > 0 && n.Kind() != "string":
			return true
		case n.StartByte() == n.EndByte():
			return false
		}

		text := extractNodeText(n, source)
		if b.Len() > 0 && n.StartByte() > prevEnd && !noSpaceAfter[prev] && !noSpaceBefore[text] {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		prev, prevEnd = text, n.EndByte()
		return false
	})
	return b.String()
}

var (
	noSpaceAfter  = map[string]bool{".": true, "(": true, "[": true}
	noSpaceBefore = map[string]bool{".": true, ")": true, "]": true, ",": true}
)
