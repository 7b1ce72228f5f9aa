// Package mail reads agent-to-agent messages from the beads database.
// Messages are beads tasks labeled jat:message; the assignee is the "to"
// address and created_by is the "from" address.
package mail

import (
	"sort"
	"time"

	"github.com/jpatrickfarrell/jat/internal/beads"
)

// MessageLabel marks a beads task as a mail message.
const MessageLabel = "jat:message"

// Message is one mail message as shown on the dashboard.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Priority  string    `json:"priority"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

// taskClient is the beads surface Mailbox needs.
type taskClient interface {
	List(opts beads.ListOptions) ([]*beads.Task, error)
}

// Mailbox fetches messages from a beads database.
type Mailbox struct {
	client taskClient
}

// NewMailbox creates a Mailbox over the given bd client.
func NewMailbox(client taskClient) *Mailbox {
	return &Mailbox{client: client}
}

// Fetch returns up to limit messages, newest first. A closed message
// task counts as read.
func (m *Mailbox) Fetch(limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	tasks, err := m.client.List(beads.ListOptions{
		Status: "all",
		Label:  MessageLabel,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(tasks))
	for _, task := range tasks {
		msgs = append(msgs, fromTask(task))
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.After(msgs[j].Timestamp)
	})
	return msgs, nil
}

// Unread returns the number of open messages addressed to anyone.
func (m *Mailbox) Unread() (int, error) {
	tasks, err := m.client.List(beads.ListOptions{
		Status: "open",
		Label:  MessageLabel,
	})
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// fromTask converts a message task. Unparseable created_at leaves a zero
// Timestamp, which sorts last and is rejected by the timeline merger.
func fromTask(task *beads.Task) Message {
	msg := Message{
		ID:       task.ID,
		From:     task.CreatedBy,
		To:       task.Assignee,
		Subject:  task.Title,
		Priority: priorityString(task.Priority),
		Read:     task.Status == "closed",
	}
	if ts, err := time.Parse(time.RFC3339, task.CreatedAt); err == nil {
		msg.Timestamp = ts
	}
	return msg
}

// priorityString maps bd's 0-4 numeric priority to a display label.
func priorityString(p int) string {
	switch p {
	case 0:
		return "urgent"
	case 1:
		return "high"
	case 3, 4:
		return "low"
	default:
		return "normal"
	}
}
