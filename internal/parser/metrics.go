package parser

import (
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// Constructs that open a new nesting level.
var nestingKinds = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"function_definition": true,
}

// Statements that add a path to cyclomatic complexity. Boolean operators
// are handled separately.
var branchKinds = map[string]bool{
	"if_statement":    true,
	"elif_clause":     true,
	"for_statement":   true,
	"while_statement": true,
	"try_statement":   true,
	"with_statement":  true,
}

// nestingDepth returns the deepest nesting level inside an entity. The
// entity itself is level 0.
func nestingDepth(entity *sitter.Node) int {
	maxDepth := 0
	var visit func(n *sitter.Node, depth int)
	visit = func(n *sitter.Node, depth int) {
		if nestingKinds[n.Kind()] {
			depth++
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(uint(i)), depth)
		}
	}

	for i := 0; i < int(entity.ChildCount()); i++ {
		visit(entity.Child(uint(i)), 0)
	}
	return maxDepth
}

// branchCount counts branching statements and boolean combinations in the
// given subtrees. "a and b and c" is one combination; tree-sitter nests it
// as a left-leaning chain of the same operator.
func branchCount(roots ...*sitter.Node) int {
	count := 0
	for _, root := range roots {
		walkTree(root, func(n *sitter.Node) bool {
			switch {
			case branchKinds[n.Kind()]:
				count++
			case n.Kind() == "boolean_operator" && !continuesChain(n):
				count++
			}
			return true
		})
	}
	return count
}

// continuesChain reports whether a boolean_operator is the left operand of
// another boolean_operator with the same operator.
func continuesChain(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil || parent.Kind() != "boolean_operator" {
		return false
	}
	left := parent.ChildByFieldName("left")
	if left == nil || left.Id() != n.Id() {
		return false
	}
	return operatorOf(parent) == operatorOf(n)
}

func operatorOf(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Kind()
	}
	return ""
}

// magicNumbers collects numeric literals other than 0 and 1.
func magicNumbers(source []byte, roots ...*sitter.Node) []chunk.MagicNumber {
	var nums []chunk.MagicNumber
	for _, root := range roots {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "integer", "float":
				if v, ok := chunk.ParseLiteral(extractNodeText(n, source)); ok && !v.IsTrivial() {
					nums = append(nums, v)
				}
				return false
			}
			return true
		})
	}
	return chunk.SortedSet(nums)
}

// dependencies lists call targets: bare names for identifier callees and
// the dotted text for attribute callees. Other callee shapes are skipped.
func dependencies(source []byte, roots ...*sitter.Node) []string {
	set := make(map[string]struct{})
	for _, root := range roots {
		walkTree(root, func(n *sitter.Node) bool {
			if n.Kind() != "call" {
				return true
			}
			if target, ok := callTarget(n.ChildByFieldName("function"), source); ok {
				set[target] = struct{}{}
			}
			return true
		})
	}
	return sortedKeys(set)
}

func callTarget(callee *sitter.Node, source []byte) (string, bool) {
	if callee == nil {
		return "", false
	}
	switch callee.Kind() {
	case "identifier":
		return extractNodeText(callee, source), true
	case "attribute":
		return compactText(callee, source), true
	}
	return "", false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
