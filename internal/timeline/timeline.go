// Package timeline merges heterogeneous event streams (task-tracker
// history, mail, agent signals) into one chronological activity feed.
package timeline

import (
	"sort"
	"time"
)

// Category classifies the origin of a timeline event.
type Category string

const (
	CategoryTask   Category = "task"
	CategoryMail   Category = "mail"
	CategorySignal Category = "signal"
)

// Event is one entry in the merged feed.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Summary   string    `json:"summary"`
}

// Source is one input sequence for a merge. A source that failed to load
// carries Err and contributes zero events; the merge still succeeds with
// the remaining sources.
type Source struct {
	Category Category
	Events   []Event
	Err      error
}

// New builds a source from already-classified events.
func New(cat Category, events []Event) Source {
	return Source{Category: cat, Events: events}
}

// Errored builds a failed source that contributes nothing to the merge.
func Errored(cat Category, err error) Source {
	return Source{Category: cat, Err: err}
}

// Counts summarizes a merge. Total always equals the sum of ByCategory.
type Counts struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	// Rejected counts input events without a parseable timestamp; they
	// never reach the sort. Callers surface this when non-zero.
	Rejected int `json:"rejected,omitempty"`
	// FailedSources counts sources that errored and contributed nothing.
	FailedSources int `json:"failed_sources,omitempty"`
}

// Result is a merged, chronologically ascending feed with its counts.
type Result struct {
	Events []Event `json:"events"`
	Counts Counts  `json:"counts"`
}

// Merge concatenates the sources and sorts ascending by timestamp. The
// sort is stable, so equal timestamps keep their input order. Category
// counts are taken in a single pass over the input sequences, before the
// merge. Events missing a timestamp are rejected and counted.
func Merge(sources ...Source) Result {
	counts := Counts{ByCategory: make(map[Category]int)}

	var merged []Event
	for _, src := range sources {
		if src.Err != nil {
			counts.FailedSources++
			continue
		}
		for _, e := range src.Events {
			if e.Timestamp.IsZero() {
				counts.Rejected++
				continue
			}
			if e.Category == "" {
				e.Category = src.Category
			}
			counts.ByCategory[e.Category]++
			merged = append(merged, e)
		}
	}

	for _, n := range counts.ByCategory {
		counts.Total += n
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	return Result{Events: merged, Counts: counts}
}

// Tail returns the newest n events of a result (the feed is ascending,
// so these are the last n).
func (r Result) Tail(n int) []Event {
	if n <= 0 || len(r.Events) <= n {
		return r.Events
	}
	return r.Events[len(r.Events)-n:]
}
