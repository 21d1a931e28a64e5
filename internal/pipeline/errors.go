package pipeline

import "fmt"

// PipelineError is the single fatal error surface of a run. It names the
// stage and external dependency that failed so callers can decide whether a
// later retry of the whole analysis makes sense. Degraded conditions never
// produce a PipelineError; they are folded into AnalysisMetadata instead.
type PipelineError struct {
	Stage      string
	Dependency string
	Err        error
}

func (e *PipelineError) Error() string {
	if e.Dependency != "" {
		return fmt.Sprintf("pipeline: stage %s failed (dependency: %s): %v", e.Stage, e.Dependency, e.Err)
	}
	return fmt.Sprintf("pipeline: stage %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
