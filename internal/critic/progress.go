package critic

// ProgressReporter provides callbacks for reporting critic progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnStageStart is called before a stage sends its first prompt.
	OnStageStart(stage string, total int)

	// OnItemDone is called after each chunk or file is handled.
	OnItemDone(name string)

	// OnStageComplete is called once the stage has handled every item.
	OnStageComplete(stage string)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnStageStart(stage string, total int) {}
func (n *NoOpProgressReporter) OnItemDone(name string)               {}
func (n *NoOpProgressReporter) OnStageComplete(stage string)         {}

// Stage names passed to ProgressReporter.
const (
	StageCritique     = "critique"
	StageFileCritique = "file critique"
	StageRefactor     = "refactor"
)
