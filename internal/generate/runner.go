// Package generate executes a generation run: an ordered sequence of writes
// that stops at the first failure. Writes already made stay as written.
package generate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"anubis/internal/artifact"
	"anubis/internal/logging"
	"anubis/internal/manifest"
	"anubis/internal/writer"
)

// ArtifactWriter is the part of the writer a run needs.
type ArtifactWriter interface {
	WriteArtifact(a artifact.Artifact, content string) (writer.Result, error)
}

// Recorder receives run bookkeeping. *journal.Journal implements it.
type Recorder interface {
	BeginRun(runID string, started time.Time) error
	Record(runID string, res writer.Result) error
	FinishRun(runID string, finished time.Time, runErr error) error
}

// Summary is what a run did, in write order.
type Summary struct {
	RunID    string
	Results  []writer.Result
	Started  time.Time
	Finished time.Time
}

// Counts tallies results per outcome.
func (s *Summary) Counts() map[artifact.Outcome]int {
	counts := make(map[artifact.Outcome]int, len(artifact.Outcomes))
	for _, r := range s.Results {
		counts[r.Outcome]++
	}
	return counts
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Runner drives writes for one project.
type Runner struct {
	writer  ArtifactWriter
	journal Recorder
	now     func() time.Time
	newID   func() string
}

// NewRunner returns a runner. j may be nil to skip the journal.
func NewRunner(w ArtifactWriter, j Recorder) *Runner {
	return &Runner{
		writer:  w,
		journal: j,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Run writes items in order. On failure it returns the summary of the writes
// completed so far together with an error naming the failing path.
func (r *Runner) Run(items []manifest.Item) (*Summary, error) {
	sum := &Summary{
		RunID:   r.newID(),
		Results: make([]writer.Result, 0, len(items)),
		Started: r.now(),
	}
	logging.Writer("run %s: %d artifacts", sum.RunID, len(items))
	r.record(func(j Recorder) error { return j.BeginRun(sum.RunID, sum.Started) })

	var runErr error
	for _, it := range items {
		res, err := r.writer.WriteArtifact(it.Artifact, it.Content)
		if err != nil {
			runErr = fmt.Errorf("write %s: %w", it.Artifact.RelPath, err)
			break
		}
		sum.Results = append(sum.Results, res)
		r.record(func(j Recorder) error { return j.Record(sum.RunID, res) })
	}

	sum.Finished = r.now()
	r.record(func(j Recorder) error { return j.FinishRun(sum.RunID, sum.Finished, runErr) })

	if runErr != nil {
		logging.Get(logging.CategoryWriter).Error("run %s aborted after %d writes: %v", sum.RunID, len(sum.Results), runErr)
		return sum, runErr
	}
	logging.Writer("run %s finished in %s", sum.RunID, sum.Duration())
	return sum, nil
}

// Journal failures never abort a run; the files on disk are what matters.
func (r *Runner) record(fn func(Recorder) error) {
	if r.journal == nil {
		return
	}
	if err := fn(r.journal); err != nil {
		logging.Get(logging.CategoryJournal).Warn("journal: %v", err)
	}
}
