package timeline

import (
	"fmt"
	"time"

	"github.com/jpatrickfarrell/jat/internal/beads"
	"github.com/jpatrickfarrell/jat/internal/mail"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
)

// FromSignals reconstructs signal events from the latest stored records.
// Records whose emission timestamp cannot be parsed are passed through
// with a zero timestamp so Merge rejects and counts them.
func FromSignals(records map[string]signal.Record) Source {
	events := make([]Event, 0, len(records))
	for session, rec := range records {
		e := Event{
			Category: CategorySignal,
			Type:     rec.Signal.Type,
			Actor:    session,
			TaskID:   rec.Signal.TaskID(),
			Summary:  signalSummary(session, rec.Signal),
		}
		if t, ok := rec.Signal.Time(); ok {
			e.Timestamp = t
		}
		events = append(events, e)
	}
	return New(CategorySignal, events)
}

// signalSummary renders a one-line description of a signal for the feed.
func signalSummary(session string, sig signal.Signal) string {
	label := state.MetaFor(state.FromSignalType(sig.Type)).Label

	switch {
	case sig.Question() != "":
		return fmt.Sprintf("%s asked: %s", session, sig.Question())
	case sig.Summary() != "":
		return fmt.Sprintf("%s: %s", session, sig.Summary())
	case sig.TaskTitle() != "":
		return fmt.Sprintf("%s: %s (%s)", session, sig.TaskTitle(), label)
	default:
		return fmt.Sprintf("%s: %s", session, label)
	}
}

// FromTasks derives task events from beads tasks: one created event per
// task, plus a closed event for tasks with a close time. Unparseable
// timestamps pass through as zero so Merge rejects and counts them.
func FromTasks(tasks []*beads.Task) Source {
	events := make([]Event, 0, len(tasks))
	for _, task := range tasks {
		events = append(events, Event{
			Timestamp: parseRFC3339(task.CreatedAt),
			Category:  CategoryTask,
			Type:      "created",
			Actor:     task.CreatedBy,
			TaskID:    task.ID,
			Summary:   fmt.Sprintf("created %s: %s", task.ID, task.Title),
		})
		if task.ClosedAt != "" {
			events = append(events, Event{
				Timestamp: parseRFC3339(task.ClosedAt),
				Category:  CategoryTask,
				Type:      "closed",
				Actor:     task.Assignee,
				TaskID:    task.ID,
				Summary:   fmt.Sprintf("closed %s: %s", task.ID, task.Title),
			})
		}
	}
	return New(CategoryTask, events)
}

// FromMail converts mail messages to timeline events.
func FromMail(msgs []mail.Message) Source {
	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, Event{
			Timestamp: msg.Timestamp,
			Category:  CategoryMail,
			Type:      "message",
			Actor:     msg.From,
			Summary:   fmt.Sprintf("%s to %s: %s", msg.From, msg.To, msg.Subject),
		})
	}
	return New(CategoryMail, events)
}

func parseRFC3339(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
