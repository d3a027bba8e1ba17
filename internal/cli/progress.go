package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/code-critic/internal/critic"
	"github.com/mvp-joe/code-critic/internal/embed"
)

// CLIProgressReporter renders extraction, model and embedding progress as
// progress bars. It implements critic.ProgressReporter.
type CLIProgressReporter struct {
	w       io.Writer
	quiet   bool
	bar     *progressbar.ProgressBar
	reached int
}

var _ critic.ProgressReporter = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a reporter writing to w. A quiet reporter
// draws nothing.
func NewCLIProgressReporter(w io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{w: w, quiet: quiet}
}

func (c *CLIProgressReporter) start(total int, description, its string) {
	if c.bar != nil {
		c.bar.Finish()
	}
	c.reached = 0
	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(its),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.w)
		}),
	)
}

// advanceTo moves the bar to an absolute position.
func (c *CLIProgressReporter) advanceTo(n int) {
	if c.bar == nil || n <= c.reached {
		return
	}
	c.bar.Add(n - c.reached)
	c.reached = n
}

func (c *CLIProgressReporter) finish() {
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
	}
}

// OnExtractProgress matches parser.WalkOptions.Progress.
func (c *CLIProgressReporter) OnExtractProgress(done, total int) {
	if c.quiet {
		return
	}
	if c.bar == nil {
		c.start(total, "Extracting files", "files/s")
	}
	c.advanceTo(done)
	if done == total {
		c.finish()
	}
}

func (c *CLIProgressReporter) OnStageStart(stage string, total int) {
	if c.quiet || total == 0 {
		return
	}
	c.start(total, "Running "+stage, "req/s")
}

func (c *CLIProgressReporter) OnItemDone(name string) {
	if c.quiet {
		return
	}
	c.advanceTo(c.reached + 1)
}

func (c *CLIProgressReporter) OnStageComplete(stage string) {
	if c.quiet {
		return
	}
	c.finish()
}

// TrackEmbedding drains progress updates into an embedding bar until the
// channel is closed. done is closed once the channel has been drained.
func (c *CLIProgressReporter) TrackEmbedding(total int, updates <-chan embed.BatchProgress, done chan<- struct{}) {
	defer close(done)
	if !c.quiet && total > 0 {
		c.start(total, "Generating embeddings", "emb/s")
	}
	for p := range updates {
		if !c.quiet {
			c.advanceTo(p.Embedded)
		}
	}
	if !c.quiet {
		c.finish()
	}
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result []byte
	for i := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, str[i])
	}
	return string(result)
}
