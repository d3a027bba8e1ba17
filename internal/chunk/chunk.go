// Package chunk defines the per-entity record produced by the extractor and
// the JSON document that carries those records between pipeline stages.
package chunk

// Entity types.
const (
	TypeFunction      = "FunctionDef"
	TypeAsyncFunction = "AsyncFunctionDef"
	TypeClass         = "ClassDef"
	TypeTopLevel      = "TopLevel"
)

// TopLevelName is the entity name of the whole-file fallback chunk.
const TopLevelName = "__top_level__"

// Language is the only source language the extractor understands.
const Language = "python"

// CodeChunk is one extracted entity plus its metrics and source text.
// Field order is the serialized order.
type CodeChunk struct {
	ID            string   `json:"id"`
	File          string   `json:"file"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Language      string   `json:"language"`
	ASTPath       []string `json:"ast_path"`
	IsScriptEntry bool     `json:"is_script_entry"`
	Context       Context  `json:"context"`
	Metrics       Metrics  `json:"code_metrics"`
	Docstring     string   `json:"docstring"`
	Code          string   `json:"code"`
	Dependencies  []string `json:"dependencies"`
	Imports       []string `json:"imports"`

	// Written by downstream stages.
	LLMResponse    string `json:"llm_response,omitempty"`
	RefactoredCode string `json:"refactored_code,omitempty"`
}

// Context describes where an entity sits and how it is declared.
type Context struct {
	Class      *string  `json:"class"`
	IsMethod   bool     `json:"is_method"`
	IsAsync    bool     `json:"is_async"`
	Decorators []string `json:"decorators"`
	ArgsCount  int      `json:"args_count"`
	Returns    *string  `json:"returns"`
}

// Metrics holds the structural measurements of one entity.
type Metrics struct {
	LineCount            int           `json:"line_count"`
	NestingDepth         int           `json:"nesting_depth"`
	CyclomaticComplexity int           `json:"cyclomatic_complexity"`
	MagicNumbers         []MagicNumber `json:"magic_numbers"`
	HasDocstring         bool          `json:"has_docstring"`
}

// ClassName returns the enclosing class name or "".
func (c *CodeChunk) ClassName() string {
	if c.Context.Class == nil {
		return ""
	}
	return *c.Context.Class
}
