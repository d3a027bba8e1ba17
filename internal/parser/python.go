// Package parser extracts per-entity chunks and metrics from Python source.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

var (
	// ErrSyntax marks a file whose text is not valid Python 3.
	ErrSyntax = errors.New("syntax error")

	// ErrEncoding marks a file that is not valid UTF-8.
	ErrEncoding = errors.New("invalid UTF-8")
)

var pythonLanguage = sitter.NewLanguage(python.Language())

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Statements that only exist in Python 2; tree-sitter accepts them but a
// Python 3 interpreter would not. Python 2 integer literals are rejected
// through chunk.IsLegacyInteger.
var python2Statements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// FileResult is the outcome of extracting one file.
type FileResult struct {
	File     string
	Chunks   []chunk.CodeChunk
	Skipped  []Skip
	ParseErr error
}

// Skip records an entity that could not be extracted.
type Skip struct {
	File   string `json:"file"`
	Entity string `json:"entity"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Parser extracts chunks from Python files. A Parser owns a tree-sitter
// parser and must not be shared between goroutines.
type Parser struct {
	ts *sitter.Parser
}

// New creates a Python parser.
func New() (*Parser, error) {
	ts := sitter.NewParser()
	if err := ts.SetLanguage(pythonLanguage); err != nil {
		ts.Close()
		return nil, fmt.Errorf("failed to set python language: %w", err)
	}
	return &Parser{ts: ts}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// ParseFile reads and extracts one file. Syntax errors yield an empty
// result; only I/O failures are returned as errors.
func ParseFile(path string) ([]chunk.CodeChunk, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.ParseFile(path)
}

// ParseFile reads and extracts one file using this parser.
func (p *Parser) ParseFile(path string) ([]chunk.CodeChunk, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result := p.ParseSource(path, source)
	return result.Chunks, nil
}

// ParseSource extracts chunks from source. file is recorded in every chunk
// with forward slashes, whatever separator the caller used.
func (p *Parser) ParseSource(file string, source []byte) *FileResult {
	file = strings.ReplaceAll(file, "\\", "/")
	result := &FileResult{File: file, Chunks: []chunk.CodeChunk{}}

	source = bytes.TrimPrefix(source, utf8BOM)
	if !utf8.Valid(source) {
		result.ParseErr = fmt.Errorf("%s: %w", file, ErrEncoding)
		return result
	}

	tree := p.ts.Parse(source, nil)
	if tree == nil {
		result.ParseErr = fmt.Errorf("%s: %w: parser returned no tree", file, ErrSyntax)
		return result
	}
	defer tree.Close()

	root := tree.RootNode()
	fc := &fileContext{
		file:    file,
		source:  source,
		lines:   splitLines(source),
		parents: make(nodeIndex),
	}

	if err := fc.index(root); err != nil {
		result.ParseErr = err
		return result
	}

	fc.imports = collectImports(root, source)

	for _, node := range fc.entities {
		c, err := fc.safeBuild(node)
		if err != nil {
			skip := Skip{
				File:   file,
				Entity: entityName(node, source),
				Line:   int(node.StartPosition().Row) + 1,
				Reason: err.Error(),
			}
			log.Printf("Warning: %s: skipped %s (line %d): %s", skip.File, skip.Entity, skip.Line, skip.Reason)
			result.Skipped = append(result.Skipped, skip)
			continue
		}
		result.Chunks = append(result.Chunks, c)
	}

	// Definitions that were skipped still count: the fallback is for files
	// without any.
	if len(fc.entities) == 0 && strings.TrimSpace(string(source)) != "" {
		result.Chunks = append(result.Chunks, fc.topLevel(root))
	}

	assignIDs(result.Chunks)
	return result
}

// fileContext carries the per-file state shared by every entity.
type fileContext struct {
	file     string
	source   []byte
	lines    []string
	parents  nodeIndex
	entities []*sitter.Node
	imports  []string
}

// index records parents, collects entity nodes in pre-order and rejects
// trees that are not valid Python 3.
func (fc *fileContext) index(root *sitter.Node) error {
	if root.HasError() {
		return fmt.Errorf("%s: %w near line %d", fc.file, ErrSyntax, firstErrorLine(root))
	}

	var err error
	walkTree(root, func(n *sitter.Node) bool {
		if err != nil {
			return false
		}
		if python2Statements[n.Kind()] {
			err = fmt.Errorf("%s: %w: %s at line %d", fc.file, ErrSyntax,
				strings.TrimSuffix(n.Kind(), "_statement"), n.StartPosition().Row+1)
			return false
		}
		switch n.Kind() {
		case "function_definition", "class_definition":
			fc.entities = append(fc.entities, n)
		case "integer":
			if text := extractNodeText(n, fc.source); chunk.IsLegacyInteger(text) {
				err = fmt.Errorf("%s: %w: integer literal %s at line %d", fc.file, ErrSyntax,
					text, n.StartPosition().Row+1)
				return false
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			fc.parents[n.Child(uint(i)).Id()] = n
		}
		return true
	})
	return err
}

func firstErrorLine(root *sitter.Node) int {
	line := 0
	walkTree(root, func(n *sitter.Node) bool {
		if line != 0 {
			return false
		}
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPosition().Row) + 1
			return false
		}
		return n.HasError()
	})
	return line
}

// safeBuild converts a panic while building one entity into an error so the
// remaining entities are still extracted.
func (fc *fileContext) safeBuild(node *sitter.Node) (c chunk.CodeChunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fc.buildChunk(node)
}

func (fc *fileContext) buildChunk(node *sitter.Node) (chunk.CodeChunk, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return chunk.CodeChunk{}, errors.New("definition has no name")
	}
	name := extractNodeText(nameNode, fc.source)

	entityType := definitionLabel(node)
	decorators := decoratorNodes(fc.parents.parentOf(node))

	var class *string
	isMethod := false
	fc.parents.ancestors(node, func(a *sitter.Node) bool {
		if a.Kind() == "class_definition" {
			if class == nil {
				n := extractNodeText(a.ChildByFieldName("name"), fc.source)
				class = &n
			}
			isMethod = true
			return false
		}
		return true
	})

	ctx := chunk.Context{
		Class:      class,
		IsMethod:   isMethod,
		IsAsync:    entityType == chunk.TypeAsyncFunction,
		Decorators: make([]string, 0, len(decorators)),
	}
	for _, d := range decorators {
		ctx.Decorators = append(ctx.Decorators, decoratorText(d, fc.source))
	}
	if node.Kind() == "function_definition" {
		ctx.ArgsCount = countArgs(node.ChildByFieldName("parameters"))
		if ret := node.ChildByFieldName("return_type"); ret != nil {
			r := compactText(ret, fc.source)
			ctx.Returns = &r
		}
	}

	startLine := int(node.StartPosition().Row) + 1
	endLine := endLineOf(node)
	code := extractLines(fc.lines, startLine, endLine)

	scope := append(append([]*sitter.Node{}, decorators...), node)
	docstring := docstringOf(node, fc.source)

	return chunk.CodeChunk{
		File:     fc.file,
		Name:     name,
		Type:     entityType,
		Language: chunk.Language,
		ASTPath:  fc.astPath(node),
		Context:  ctx,
		Metrics: chunk.Metrics{
			LineCount:            countLines(code),
			NestingDepth:         nestingDepth(node),
			CyclomaticComplexity: 1 + branchCount(scope...),
			MagicNumbers:         magicNumbers(fc.source, scope...),
			HasDocstring:         docstring != "",
		},
		Docstring:    docstring,
		Code:         code,
		Dependencies: dependencies(fc.source, scope...),
		Imports:      fc.imports,
	}, nil
}

// topLevel builds the whole-file fallback chunk.
func (fc *fileContext) topLevel(root *sitter.Node) chunk.CodeChunk {
	return chunk.CodeChunk{
		File:          fc.file,
		Name:          chunk.TopLevelName,
		Type:          chunk.TypeTopLevel,
		Language:      chunk.Language,
		ASTPath:       []string{"Module"},
		IsScriptEntry: true,
		Context: chunk.Context{
			Decorators: []string{},
		},
		Metrics: chunk.Metrics{
			LineCount:    len(fc.lines),
			MagicNumbers: magicNumbers(fc.source, root),
		},
		Code:         string(fc.source),
		Dependencies: dependencies(fc.source, root),
		Imports:      fc.imports,
	}
}

// astPath lists the enclosing definitions from the module down to node.
func (fc *fileContext) astPath(node *sitter.Node) []string {
	path := []string{fc.label(node)}
	fc.parents.ancestors(node, func(a *sitter.Node) bool {
		switch a.Kind() {
		case "function_definition", "class_definition":
			path = append(path, fc.label(a))
		}
		return true
	})
	path = append(path, "Module")

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (fc *fileContext) label(node *sitter.Node) string {
	return definitionLabel(node) + ":" + extractNodeText(node.ChildByFieldName("name"), fc.source)
}

func definitionLabel(node *sitter.Node) string {
	if node.Kind() == "class_definition" {
		return chunk.TypeClass
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		return chunk.TypeAsyncFunction
	}
	return chunk.TypeFunction
}

func entityName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return extractNodeText(n, source)
	}
	return node.Kind()
}

// decoratorNodes returns the decorators attached to a definition whose
// parent is a decorated_definition.
func decoratorNodes(parent *sitter.Node) []*sitter.Node {
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var decorators []*sitter.Node
	for _, child := range namedChildren(parent) {
		if child.Kind() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	return decorators
}

func decoratorText(node *sitter.Node, source []byte) string {
	children := namedChildren(node)
	if len(children) == 0 {
		return strings.TrimPrefix(compactText(node, source), "@")
	}
	return compactText(children[0], source)
}

// countArgs counts positional-or-keyword parameters: those after a "/"
// marker and before "*", "*args" or "**kwargs".
func countArgs(params *sitter.Node) int {
	count := 0
	for _, p := range namedChildren(params) {
		kind := p.Kind()
		if kind == "typed_parameter" {
			if inner := p.NamedChild(0); inner != nil {
				kind = inner.Kind()
			}
		}
		switch kind {
		case "positional_separator":
			count = 0
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return count
		case "identifier", "default_parameter", "typed_default_parameter":
			count++
		}
	}
	return count
}

// endLineOf returns the 1-indexed line of the last token of node that is
// not a comment. tree-sitter attaches comments that follow a block's last
// statement to the block; they are not part of the entity.
func endLineOf(node *sitter.Node) int {
	last := lastCodeToken(node)
	if last == nil {
		last = node
	}
	end := last.EndPosition()
	line := int(end.Row) + 1
	if end.Column == 0 && end.Row > last.StartPosition().Row {
		line--
	}
	return line
}

// lastCodeToken returns the last non-comment leaf under node. String
// literals count as one token.
func lastCodeToken(node *sitter.Node) *sitter.Node {
	for i := int(node.ChildCount()) - 1; i >= 0; i-- {
		child := node.Child(uint(i))
		switch {
		case child.Kind() == "comment", child.StartByte() == child.EndByte():
			continue
		case child.ChildCount() == 0, child.Kind() == "string":
			return child
		}
		if last := lastCodeToken(child); last != nil {
			return last
		}
	}
	return nil
}

// splitLines splits source after every '\n', keeping terminators.
func splitLines(source []byte) []string {
	if len(source) == 0 {
		return nil
	}
	text := string(source)
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// extractLines joins lines startLine..endLine (1-indexed, inclusive).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < startLine || startLine > len(lines) {
		return ""
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	return strings.Join(lines[startLine-1:endLine], "")
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(code, "\n"), "\n") + 1
}

// assignIDs sets "<file>::<name>" ids, suffixing repeats of a name within
// the file with "#2", "#3" in walk order.
func assignIDs(chunks []chunk.CodeChunk) {
	seen := make(map[string]int, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		seen[c.Name]++
		c.ID = c.File + "::" + c.Name
		if n := seen[c.Name]; n > 1 {
			c.ID = fmt.Sprintf("%s#%d", c.ID, n)
		}
	}
}
