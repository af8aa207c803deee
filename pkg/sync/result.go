package sync

import "time"

// Status classifies the outcome of one object's pipeline run.
type Status string

const (
	// StatusPublished means the page and its attachments were upserted.
	StatusPublished Status = "published"
	// StatusRendered means the pipeline stopped after rendering (dry runs).
	StatusRendered Status = "rendered"
	// StatusFailed means the object halted at some stage; Stage and Err say
	// where and why.
	StatusFailed Status = "failed"
	// StatusSkipped means the run was cancelled before the object started.
	StatusSkipped Status = "skipped"
)

// Stage names the pipeline step an object reached.
type Stage string

const (
	StageLoad    Stage = "load"
	StageFetch   Stage = "fetch"
	StageRender  Stage = "render"
	StagePublish Stage = "publish"
)

// Result records the outcome of one object.
type Result struct {
	Object    string
	Status    Status
	Stage     Stage
	PageID    string
	Artifacts int
	Err       error
}

// Summary aggregates per-object results for one run. Results keep inventory
// order: parse failures first, then descriptors in lexical source-file order.
type Summary struct {
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Published counts objects whose page was upserted.
func (s Summary) Published() int { return s.count(StatusPublished) }

// Rendered counts objects that completed a dry run.
func (s Summary) Rendered() int { return s.count(StatusRendered) }

// Failed counts objects that halted with an error.
func (s Summary) Failed() int { return s.count(StatusFailed) }

// Skipped counts objects never started because the run was cancelled.
func (s Summary) Skipped() int { return s.count(StatusSkipped) }

// Ok reports whether every object completed without failure.
func (s Summary) Ok() bool {
	return s.Failed() == 0
}

func (s Summary) count(status Status) int {
	n := 0
	for _, result := range s.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}
