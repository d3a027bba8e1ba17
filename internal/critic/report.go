package critic

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/llm"
)

// FileReport is the model's critique of one whole source file.
type FileReport struct {
	File     string
	Response string
	Err      error
}

// fileGroup is the aggregated view of one file's chunks.
type fileGroup struct {
	file   string
	chunks []*chunk.CodeChunk
}

// groupByFile groups chunks by file in first-seen order.
func groupByFile(chunks []chunk.CodeChunk) []*fileGroup {
	var groups []*fileGroup
	byFile := make(map[string]*fileGroup)
	for i := range chunks {
		ch := &chunks[i]
		g, ok := byFile[ch.File]
		if !ok {
			g = &fileGroup{file: ch.File}
			byFile[ch.File] = g
			groups = append(groups, g)
		}
		g.chunks = append(g.chunks, ch)
	}
	return groups
}

func (g *fileGroup) totalLines() int {
	total := 0
	for _, ch := range g.chunks {
		total += ch.Metrics.LineCount
	}
	return total
}

func (g *fileGroup) union(field func(*chunk.CodeChunk) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range g.chunks {
		for _, v := range field(ch) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (g *fileGroup) entityMetrics() string {
	lines := make([]string, len(g.chunks))
	for i, ch := range g.chunks {
		m := ch.Metrics
		lines[i] = fmt.Sprintf("- %s %s | Lines=%d, Complexity=%d, Depth=%d, Docstring=%t, MagicNumbers=%s",
			ch.Type, ch.Name, m.LineCount, m.CyclomaticComplexity, m.NestingDepth,
			m.HasDocstring, formatMagicNumbers(m.MagicNumbers))
	}
	return strings.Join(lines, "\n")
}

func (g *fileGroup) allCode() string {
	parts := make([]string, len(g.chunks))
	for i, ch := range g.chunks {
		parts[i] = ch.Code
	}
	return strings.Join(parts, "\n\n")
}

// CritiqueFiles asks the model for one critique per source file. Reports
// follow the first-seen order of files in chunks. A model error is stored
// on that file's report; only context cancellation stops the pass.
func (c *Critic) CritiqueFiles(ctx context.Context, chunks []chunk.CodeChunk) ([]FileReport, error) {
	groups := groupByFile(chunks)
	reports := make([]FileReport, 0, len(groups))

	c.opts.Progress.OnStageStart(StageFileCritique, len(groups))
	for _, g := range groups {
		prompt := c.FileCritiquePrompt.Format(map[string]string{
			"file":             g.file,
			"entity_count":     strconv.Itoa(len(g.chunks)),
			"total_lines":      strconv.Itoa(g.totalLines()),
			"all_imports":      formatList(g.union(func(ch *chunk.CodeChunk) []string { return ch.Imports })),
			"all_dependencies": formatList(g.union(func(ch *chunk.CodeChunk) []string { return ch.Dependencies })),
			"entity_metrics":   g.entityMetrics(),
			"all_code":         g.allCode(),
		})

		out, err := c.model.Generate(ctx, prompt,
			llm.WithMaxTokens(c.opts.FileMaxTokens),
			llm.WithTemperature(c.opts.Temperature))
		report := FileReport{File: g.file}
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			log.Printf("Warning: critique of %s failed: %v", g.file, err)
			report.Err = err
		} else {
			report.Response = strings.TrimSpace(out)
		}
		reports = append(reports, report)
		c.opts.Progress.OnItemDone(g.file)
	}
	c.opts.Progress.OnStageComplete(StageFileCritique)

	return reports, nil
}

// WriteReport writes reports as plain text, one `===== <file> =====`
// section per file.
func WriteReport(w io.Writer, reports []FileReport) error {
	for _, r := range reports {
		body := r.Response
		if r.Err != nil {
			body = fmt.Sprintf("critique failed: %v", r.Err)
		}
		if _, err := fmt.Fprintf(w, "===== %s =====\n%s\n\n", r.File, body); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
