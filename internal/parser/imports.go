package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// collectImports returns every import target in the file, sorted and
// deduplicated. "import a.b as c" records "a.b"; "from x import y" records
// "x.y"; relative imports keep only the module part after the dots, so
// "from . import y" records ".y".
func collectImports(root *sitter.Node, source []byte) []string {
	set := make(map[string]struct{})
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			for _, name := range namedChildren(n) {
				set[importedName(name, source)] = struct{}{}
			}
			return false
		case "import_from_statement", "future_import_statement":
			module, names := fromImportParts(n, source)
			for _, name := range names {
				set[module+"."+name] = struct{}{}
			}
			return false
		}
		return true
	})
	return sortedKeys(set)
}

// fromImportParts splits a from-import into its module and imported names.
// Children before the "import" keyword form the module, children after it
// the names.
func fromImportParts(n *sitter.Node, source []byte) (string, []string) {
	module := ""
	if n.Kind() == "future_import_statement" {
		module = "__future__"
	}

	var names []string
	afterImport := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "import":
			afterImport = true
		case "dotted_name":
			if afterImport {
				names = append(names, compactText(child, source))
			} else {
				module = compactText(child, source)
			}
		case "relative_import":
			if dotted := findChildByType(child, "dotted_name"); dotted != nil {
				module = compactText(dotted, source)
			}
		case "aliased_import":
			names = append(names, importedName(child, source))
		case "wildcard_import":
			names = append(names, "*")
		}
	}
	return module, names
}

func importedName(n *sitter.Node, source []byte) string {
	if n.Kind() == "aliased_import" {
		return compactText(n.ChildByFieldName("name"), source)
	}
	return compactText(n, source)
}
