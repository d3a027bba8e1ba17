// Package critic sends selected chunks to a language model for critiques
// and rewrites, storing the answers back on the chunks.
package critic

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/llm"
	"github.com/mvp-joe/code-critic/internal/prompts"
)

// Options controls selection and generation limits.
type Options struct {
	Thresholds Thresholds

	// All critiques every chunk, ignoring Thresholds.
	All bool

	MaxTokens         int
	FileMaxTokens     int
	RefactorMaxTokens int
	Temperature       float64

	Progress ProgressReporter
}

// DefaultOptions returns the stock thresholds and token budgets.
func DefaultOptions() Options {
	return Options{
		Thresholds:        DefaultThresholds(),
		MaxTokens:         512,
		FileMaxTokens:     2048,
		RefactorMaxTokens: 1024,
		Temperature:       0.7,
	}
}

// ChunkError records a model failure for one chunk or file.
type ChunkError struct {
	ID  string
	Err error
}

func (e ChunkError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ChunkError) Unwrap() error {
	return e.Err
}

// Result summarises one critique or refactor pass.
type Result struct {
	Selected  int
	Completed int
	Failed    []ChunkError
}

// Critic drives the model over a chunk document.
type Critic struct {
	model llm.Model
	opts  Options

	CritiquePrompt     prompts.PromptTemplate
	FileCritiquePrompt prompts.PromptTemplate
	RefactorPrompt     prompts.PromptTemplate
}

// New creates a critic using the default prompts.
func New(model llm.Model, opts Options) *Critic {
	if opts.Progress == nil {
		opts.Progress = &NoOpProgressReporter{}
	}
	return &Critic{
		model:              model,
		opts:               opts,
		CritiquePrompt:     prompts.DefaultCritiquePrompt,
		FileCritiquePrompt: prompts.DefaultFileCritiquePrompt,
		RefactorPrompt:     prompts.DefaultRefactorPrompt,
	}
}

// Selected returns the indexes of the chunks the critic would send.
func (c *Critic) Selected(chunks []chunk.CodeChunk) []int {
	var idx []int
	for i := range chunks {
		if c.opts.All || c.opts.Thresholds.Select(chunks[i].Metrics) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Critique asks the model about every selected chunk and stores the trimmed
// answer in LLMResponse. A model error is recorded and the pass continues;
// only context cancellation stops it early.
func (c *Critic) Critique(ctx context.Context, chunks []chunk.CodeChunk) (Result, error) {
	selected := c.Selected(chunks)
	res := Result{Selected: len(selected)}

	c.opts.Progress.OnStageStart(StageCritique, len(selected))
	for _, i := range selected {
		ch := &chunks[i]
		out, err := c.model.Generate(ctx, c.critiquePrompt(ch),
			llm.WithMaxTokens(c.opts.MaxTokens),
			llm.WithTemperature(c.opts.Temperature))
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Printf("Warning: critique of %s failed: %v", ch.ID, err)
			res.Failed = append(res.Failed, ChunkError{ID: ch.ID, Err: err})
		} else {
			ch.LLMResponse = strings.TrimSpace(out)
			res.Completed++
		}
		c.opts.Progress.OnItemDone(ch.ID)
	}
	c.opts.Progress.OnStageComplete(StageCritique)

	return res, nil
}

// Refactor asks for a rewrite of every chunk that already carries a
// critique and stores it in RefactoredCode.
func (c *Critic) Refactor(ctx context.Context, chunks []chunk.CodeChunk) (Result, error) {
	var selected []int
	for i := range chunks {
		if chunks[i].LLMResponse != "" {
			selected = append(selected, i)
		}
	}
	res := Result{Selected: len(selected)}

	c.opts.Progress.OnStageStart(StageRefactor, len(selected))
	for _, i := range selected {
		ch := &chunks[i]
		prompt := c.RefactorPrompt.Format(map[string]string{
			"file":     ch.File,
			"type":     ch.Type,
			"name":     ch.Name,
			"critique": ch.LLMResponse,
			"code":     ch.Code,
		})
		out, err := c.model.Generate(ctx, prompt,
			llm.WithMaxTokens(c.opts.RefactorMaxTokens),
			llm.WithTemperature(c.opts.Temperature))
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Printf("Warning: refactor of %s failed: %v", ch.ID, err)
			res.Failed = append(res.Failed, ChunkError{ID: ch.ID, Err: err})
		} else {
			ch.RefactoredCode = strings.TrimSpace(out)
			res.Completed++
		}
		c.opts.Progress.OnItemDone(ch.ID)
	}
	c.opts.Progress.OnStageComplete(StageRefactor)

	return res, nil
}

func (c *Critic) critiquePrompt(ch *chunk.CodeChunk) string {
	m := ch.Metrics
	return c.CritiquePrompt.Format(map[string]string{
		"file":                  ch.File,
		"type":                  ch.Type,
		"name":                  ch.Name,
		"line_count":            strconv.Itoa(m.LineCount),
		"cyclomatic_complexity": strconv.Itoa(m.CyclomaticComplexity),
		"nesting_depth":         strconv.Itoa(m.NestingDepth),
		"has_docstring":         strconv.FormatBool(m.HasDocstring),
		"magic_numbers":         formatMagicNumbers(m.MagicNumbers),
		"dependencies":          formatList(ch.Dependencies),
		"imports":               formatList(ch.Imports),
		"code":                  ch.Code,
	})
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func formatMagicNumbers(nums []chunk.MagicNumber) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
